package onboarding

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"onboardgo/internal/backup"
	"onboardgo/internal/funnel"
	"onboardgo/internal/insight"
	"onboardgo/internal/models"
	"onboardgo/internal/redis"
	"onboardgo/internal/storage"
)

// NoDataInsight is the only insight returned when nothing has been recorded.
const NoDataInsight = "No data available for analysis"

// BackupWriter mirrors saved sessions into a secondary file.
type BackupWriter interface {
	Append(session *models.Session) error
	Reset() error
}

// AnalysisCache stores analyze results keyed by a write generation that every
// committed write bumps. *redis.AnalysisCache implements it.
type AnalysisCache interface {
	Generation(ctx context.Context) (int64, error)
	Load(ctx context.Context, gen int64) (*redis.AnalysisEntry, bool, error)
	Store(ctx context.Context, gen int64, entry *redis.AnalysisEntry) error
	Invalidate(ctx context.Context) error
}

// Options tunes optional collaborators of the Service.
type Options struct {
	Cache       AnalysisCache
	Logger      *zap.Logger
	BackupFatal bool
}

// Service handles session persistence, backups and funnel analysis.
type Service struct {
	store       storage.SessionStore
	backup      BackupWriter
	generator   insight.Generator
	cache       AnalysisCache
	logger      *zap.Logger
	backupFatal bool
}

// NewService builds a new onboarding service.
func NewService(store storage.SessionStore, backupWriter BackupWriter, generator insight.Generator, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = insight.Rules{}
	}
	cache := opts.Cache
	if cache == nil {
		cache = (*redis.AnalysisCache)(nil)
	}
	return &Service{
		store:       store,
		backup:      backupWriter,
		generator:   generator,
		cache:       cache,
		logger:      logger,
		backupFatal: opts.BackupFatal,
	}
}

// SubmitResult reports the outcome of the secondary backup write.
type SubmitResult struct {
	BackupSaved bool
}

// SubmitStep stores the session, replacing any previous row with the same id,
// then appends it to the backup file.
func (s *Service) SubmitStep(ctx context.Context, session *models.Session) (*SubmitResult, error) {
	if err := s.store.Upsert(ctx, session); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	result := &SubmitResult{BackupSaved: true}
	if s.backup == nil {
		result.BackupSaved = false
		return result, nil
	}
	if err := s.backup.Append(session); err != nil {
		if s.backupFatal {
			return nil, fmt.Errorf("backup session: %w", err)
		}
		s.logger.Warn("backup append failed", zap.String("session_id", session.ID), zap.Error(err))
		result.BackupSaved = false
	}
	return result, nil
}

// ListSessions returns every stored session, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]models.Session, error) {
	return s.store.ListAll(ctx)
}

// AnalyzeResult is the analyze response. Analysis is nil when there is no data.
type AnalyzeResult struct {
	Analysis *models.Analysis `json:"analysis,omitempty"`
	Insights []string         `json:"insights"`
	Source   string           `json:"source,omitempty"`
	Cached   bool             `json:"-"`
}

// Analyze computes funnel statistics and insights over every stored session.
func (s *Service) Analyze(ctx context.Context) (*AnalyzeResult, error) {
	// the generation is read before the rows so a concurrent write makes this
	// result unreachable instead of stale
	gen, err := s.cache.Generation(ctx)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("analysis cache generation failed", zap.Error(err))
	} else if entry, ok, err := s.cache.Load(ctx, gen); err != nil {
		s.logger.Warn("analysis cache load failed", zap.Error(err))
	} else if ok {
		analysis := entry.Analysis
		return &AnalyzeResult{Analysis: &analysis, Insights: entry.Insights, Source: entry.Source, Cached: true}, nil
	}

	sessions, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return &AnalyzeResult{Insights: []string{NoDataInsight}}, nil
	}

	analysis := funnel.Analyze(sessions)
	generated := s.generator.Generate(ctx, sessions, analysis)
	if cacheable {
		if err := s.cache.Store(ctx, gen, &redis.AnalysisEntry{
			Analysis: analysis,
			Insights: generated.Insights,
			Source:   generated.Source,
		}); err != nil {
			s.logger.Warn("analysis cache store failed", zap.Error(err))
		}
	}
	return &AnalyzeResult{Analysis: &analysis, Insights: generated.Insights, Source: generated.Source}, nil
}

// Reset deletes every session and the backup file. The two steps are not atomic.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return err
	}
	s.invalidate(ctx)
	if s.backup != nil {
		if err := s.backup.Reset(); err != nil {
			return err
		}
	}
	return nil
}

// Export writes all sessions and the funnel summary as an XLSX workbook.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	sessions, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}
	return backup.ExportXLSX(w, sessions, funnel.Analyze(sessions))
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("analysis cache invalidate failed", zap.Error(err))
	}
}
