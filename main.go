package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"onboardgo/internal/backup"
	"onboardgo/internal/config"
	"onboardgo/internal/insight"
	"onboardgo/internal/logging"
	"onboardgo/internal/redis"
	"onboardgo/internal/service/onboarding"
	"onboardgo/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything a command needs after startup.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *sqlx.DB
	rdb     *redis.Client
	service *onboarding.Service
}

func bootstrap(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	dbType := config.DatabaseDriver()
	logger.Info("opening database", zap.String("driver", dbType))
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	var cache *redis.AnalysisCache
	if cfg.Redis.Enabled {
		rdb, err := redis.NewRedisClient(cfg.Redis)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("create redis client: %w", err)
		}
		a.rdb = rdb
		cache = redis.NewAnalysisCache(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		logger.Info("analysis cache enabled", zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
	}

	generator := insight.New(ctx, cfg.Insights, logger)
	a.service = onboarding.NewService(
		storage.NewStore(db),
		backup.NewCSVWriter(cfg.BasicConfig.BackupPath),
		generator,
		onboarding.Options{
			Cache:       cache,
			Logger:      logger,
			BackupFatal: cfg.BasicConfig.BackupFatal,
		},
	)
	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
