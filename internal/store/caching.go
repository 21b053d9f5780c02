package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpcops/slurmacc/internal/model"
)

// usageFetcher is the part of the sreport client the caching layer wraps.
type usageFetcher interface {
	Usage(ctx context.Context, req model.Request) ([]model.UsageRecord, error)
}

// CachingSource serves usage requests from the cache, falling back to the
// wrapped source and saving what it fetched. Cache failures never fail a
// request; the fetch simply goes to the source.
type CachingSource struct {
	next  usageFetcher
	cache *Cache
	now   func() time.Time
	log   zerolog.Logger
}

// NewCachingSource wraps next with read-through caching backed by cache.
func NewCachingSource(next usageFetcher, cache *Cache, log zerolog.Logger) *CachingSource {
	return &CachingSource{next: next, cache: cache, now: time.Now, log: log}
}

// Usage returns cached rows for req when available, fetching them otherwise.
// Periods ending in the future still accrue usage and always bypass the
// cache.
func (s *CachingSource) Usage(ctx context.Context, req model.Request) ([]model.UsageRecord, error) {
	if req.End.After(s.now()) {
		s.log.Debug().Str("key", req.CacheKey()).Msg("period still open, bypassing cache")
		return s.next.Usage(ctx, req)
	}

	key := req.CacheKey()
	records, ok, err := s.cache.GetReport(key)
	if err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("cache read failed, fetching from source")
	} else if ok {
		s.log.Debug().Str("key", key).Int("rows", len(records)).Msg("cache hit")
		return records, nil
	}

	records, err = s.next.Usage(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SaveReport(key, records); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
	return records, nil
}
