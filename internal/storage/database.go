package storage

import (
	"fmt"
	"strings"

	"onboardgo/internal/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the database configured for dbType.
func Open(dbType string, cfg *config.Config) (*sqlx.DB, error) {
	driver := normalizeDriver(dbType)
	dbCfg, ok := cfg.Databases[driver]
	if !ok {
		dbCfg, ok = cfg.Databases[dbType]
	}
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sqlx.DB
		err error
	)

	switch driver {
	case "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sqlx.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	case "mysql":
		dsn := dbCfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
				dbCfg.Username,
				dbCfg.Password,
				dbCfg.Host,
				dbCfg.Port,
				dbCfg.DBName,
				dbCfg.Params,
			)
		}
		db, err = sqlx.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	case "postgres":
		dsn := dbCfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s %s",
				dbCfg.Host,
				dbCfg.Port,
				dbCfg.Username,
				dbCfg.Password,
				dbCfg.DBName,
				dbCfg.Params,
			)
		}
		db, err = sqlx.Open("postgres", strings.TrimSpace(dsn))
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the sessions table is present. Safe to run on every start.
func Migrate(db *sqlx.DB) error {
	var stmts []string
	switch db.DriverName() {
	case "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				steps TEXT NOT NULL,
				completed_at TEXT NOT NULL,
				drop_off_step INTEGER
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_completed_at ON sessions(completed_at DESC)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				steps MEDIUMTEXT NOT NULL,
				completed_at VARCHAR(64) NOT NULL,
				drop_off_step INT NULL,
				PRIMARY KEY (id),
				INDEX idx_sessions_completed_at (completed_at)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	case "postgres":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				steps TEXT NOT NULL,
				completed_at TEXT NOT NULL,
				drop_off_step INTEGER
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_completed_at ON sessions(completed_at DESC)`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", db.DriverName())
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", db.DriverName(), err)
		}
	}
	return nil
}

func normalizeDriver(dbType string) string {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "postgres", "postgresql", "pg":
		return "postgres"
	default:
		return strings.ToLower(strings.TrimSpace(dbType))
	}
}
