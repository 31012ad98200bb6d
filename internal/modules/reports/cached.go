package reports

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/cache"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type CachedReportsDeps struct {
	Inner   Service
	Store   cache.Store
	Log     *logger.Logger
	Metrics CacheMetrics
	TTL     time.Duration

	// Versioned must match the invalidator's setting.
	Versioned bool
}

// CachedReports is a read-through cache in front of a report Service. Misses
// for the same key are computed once. Backend failures fall back to computing
// without the cache.
type CachedReports struct {
	inner     Service
	store     cache.Store
	log       *logger.Logger
	metrics   CacheMetrics
	ttl       time.Duration
	versioned bool
	group     singleflight.Group
}

func NewCachedReports(deps CachedReportsDeps) *CachedReports {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	m := deps.Metrics
	if m == nil {
		m = nopMetrics{}
	}
	return &CachedReports{
		inner:     deps.Inner,
		store:     deps.Store,
		log:       log.With("service", "CachedReports"),
		metrics:   m,
		ttl:       deps.TTL,
		versioned: deps.Versioned,
	}
}

func (c *CachedReports) key(ctx context.Context, userID, base string) (string, error) {
	if !c.versioned {
		return base, nil
	}
	gen, err := cache.GetCounter(ctx, c.store, GenerationKey(userID))
	if err != nil {
		return "", err
	}
	return Versioned(base, gen), nil
}

func cached[T any](ctx context.Context, c *CachedReports, level, userID, base string, compute func(context.Context) (T, error)) (T, error) {
	if c.store == nil {
		return compute(ctx)
	}
	key, err := c.key(ctx, userID, base)
	if err != nil {
		c.log.Warn("cache generation unavailable, computing uncached", "level", level, "error", err)
		c.metrics.CacheBypass(level)
		return compute(ctx)
	}

	var hit T
	ok, err := cache.GetJSON(ctx, c.store, key, &hit)
	if err != nil {
		c.log.Warn("cache read failed", "level", level, "key", key, "error", err)
		c.metrics.CacheBypass(level)
	}
	if ok {
		c.metrics.CacheHit(level)
		return hit, nil
	}
	if err == nil {
		c.metrics.CacheMiss(level)
	}

	// The shared computation outlives any single caller; each caller still
	// stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		start := time.Now()
		res, err := compute(shared)
		if err != nil {
			return res, err
		}
		c.metrics.ObserveBuild(level, time.Since(start))
		if err := cache.SetJSON(shared, c.store, key, res, c.ttl); err != nil {
			c.log.Warn("cache write failed", "level", level, "key", key, "error", err)
		}
		return res, nil
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			var zero T
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

func (c *CachedReports) ProgramReport(ctx context.Context, userID, programID string) (*domain.ProgramReport, error) {
	userID, programID = strings.TrimSpace(userID), strings.TrimSpace(programID)
	return cached(ctx, c, LevelProgram, userID, ProgramKey(userID, programID), func(ctx context.Context) (*domain.ProgramReport, error) {
		return c.inner.ProgramReport(ctx, userID, programID)
	})
}

func (c *CachedReports) StageReport(ctx context.Context, userID, stageID string) (*domain.StageReport, error) {
	userID, stageID = strings.TrimSpace(userID), strings.TrimSpace(stageID)
	return cached(ctx, c, LevelStage, userID, StageKey(userID, stageID), func(ctx context.Context) (*domain.StageReport, error) {
		return c.inner.StageReport(ctx, userID, stageID)
	})
}

func (c *CachedReports) UnitReport(ctx context.Context, userID, unitID string) (*domain.UnitReport, error) {
	userID, unitID = strings.TrimSpace(userID), strings.TrimSpace(unitID)
	return cached(ctx, c, LevelUnit, userID, UnitKey(userID, unitID), func(ctx context.Context) (*domain.UnitReport, error) {
		return c.inner.UnitReport(ctx, userID, unitID)
	})
}

func (c *CachedReports) UserAttempts(ctx context.Context, userID, subconceptID string) ([]*domain.Attempt, error) {
	userID, subconceptID = strings.TrimSpace(userID), strings.TrimSpace(subconceptID)
	return cached(ctx, c, LevelAttempts, userID, AttemptsKey(userID, subconceptID), func(ctx context.Context) ([]*domain.Attempt, error) {
		return c.inner.UserAttempts(ctx, userID, subconceptID)
	})
}

func (c *CachedReports) ProgramConcepts(ctx context.Context, userID, programID string) (*domain.ConceptReport, error) {
	userID, programID = strings.TrimSpace(userID), strings.TrimSpace(programID)
	return cached(ctx, c, LevelConcepts, userID, ConceptsKey(userID, programID), func(ctx context.Context) (*domain.ConceptReport, error) {
		return c.inner.ProgramConcepts(ctx, userID, programID)
	})
}

func (c *CachedReports) UserSummary(ctx context.Context, userID string) (*domain.UserSummary, error) {
	userID = strings.TrimSpace(userID)
	return cached(ctx, c, LevelUserData, userID, UserDataKey(userID), func(ctx context.Context) (*domain.UserSummary, error) {
		return c.inner.UserSummary(ctx, userID)
	})
}
