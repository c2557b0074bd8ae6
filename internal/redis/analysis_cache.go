package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"onboardgo/internal/models"
)

const (
	analysisKey        = "onboard:analysis"
	generationKey      = "onboard:analysis:generation"
	DefaultAnalysisTTL = 5 * time.Minute
)

// AnalysisEntry is the cached body of an analyze response.
type AnalysisEntry struct {
	Analysis models.Analysis `json:"analysis"`
	Insights []string        `json:"insights"`
	Source   string          `json:"source"`
}

// AnalysisCache keeps the last analyze result until the data changes.
//
// Entries are keyed by a write generation. Every write bumps the generation,
// so a result computed from rows read before the write lands under a key no
// reader will ask for again. A nil *AnalysisCache is a valid, disabled cache.
type AnalysisCache struct {
	client *Client
	ttl    time.Duration
}

func NewAnalysisCache(client *Client, ttl time.Duration) *AnalysisCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultAnalysisTTL
	}
	return &AnalysisCache{client: client, ttl: ttl}
}

// Generation returns the current write generation; 0 before the first write.
// Read it before loading the rows an entry will be computed from.
func (c *AnalysisCache) Generation(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	raw, err := c.client.Get(ctx, generationKey)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return 0, nil
		}
		return 0, fmt.Errorf("load analysis generation: %w", err)
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse analysis generation: %w", err)
	}
	return gen, nil
}

// Load returns the entry cached for gen; ok is false on a miss.
func (c *AnalysisCache) Load(ctx context.Context, gen int64) (*AnalysisEntry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, entryKey(gen))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load analysis cache: %w", err)
	}
	var entry AnalysisEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("decode analysis cache: %w", err)
	}
	return &entry, true, nil
}

// Store saves entry under gen, the generation read before the rows were loaded.
func (c *AnalysisCache) Store(ctx context.Context, gen int64, entry *AnalysisEntry) error {
	if c == nil || entry == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}
	if err := c.client.Set(ctx, entryKey(gen), data, c.ttl); err != nil {
		return fmt.Errorf("store analysis cache: %w", err)
	}
	return nil
}

// Invalidate bumps the write generation. Call it after every committed write.
func (c *AnalysisCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if _, err := c.client.Incr(ctx, generationKey); err != nil {
		return fmt.Errorf("invalidate analysis cache: %w", err)
	}
	return nil
}

func entryKey(gen int64) string {
	return analysisKey + ":" + strconv.FormatInt(gen, 10)
}
