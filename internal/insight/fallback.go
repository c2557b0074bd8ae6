package insight

import (
	"context"

	"go.uber.org/zap"

	"onboardgo/internal/models"
)

// Fallback serves the primary generator's output unless it reports the
// Unavailable sentinel, in which case the rules output is used.
type Fallback struct {
	primary  Generator
	fallback Generator
	logger   *zap.Logger
}

func WithFallback(primary, fallback Generator, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{primary: primary, fallback: fallback, logger: logger}
}

func (f *Fallback) Generate(ctx context.Context, sessions []models.Session, analysis models.Analysis) Result {
	res := f.primary.Generate(ctx, sessions, analysis)
	if !isUnavailable(res) {
		return res
	}
	f.logger.Warn("external insights unavailable, using rules", zap.String("source", res.Source))
	return f.fallback.Generate(ctx, sessions, analysis)
}
