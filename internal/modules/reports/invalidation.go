package reports

import (
	"context"
	"sort"
	"strings"

	"github.com/yungbote/linguapath-backend/internal/platform/cache"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

const (
	WriteAttempt        = "attempt"
	WriteUnitCompletion = "unit_completion"
)

// WriteEvent describes a committed change to a user's attempt or completion
// state. Missing ancestor ids are resolved by the invalidator.
type WriteEvent struct {
	Kind         string
	UserID       string
	ProgramID    string
	StageID      string
	UnitID       string
	SubconceptID string
}

// PlanEviction returns every cache key whose report transitively includes the
// written entity: program, stage, unit, the attempts entry of each subconcept of
// the unit, the program's concept rollup and the user's derived data. Keys for
// unknown ids are omitted. The result is deduplicated and deterministic.
func PlanEviction(ev WriteEvent, unitSubconceptIDs []string) []string {
	user := strings.TrimSpace(ev.UserID)
	if user == "" {
		return nil
	}
	var keys []string
	seen := map[string]bool{}
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	if id := strings.TrimSpace(ev.ProgramID); id != "" {
		add(ProgramKey(user, id))
	}
	if id := strings.TrimSpace(ev.StageID); id != "" {
		add(StageKey(user, id))
	}
	if id := strings.TrimSpace(ev.UnitID); id != "" {
		add(UnitKey(user, id))
	}

	subs := make([]string, 0, len(unitSubconceptIDs)+1)
	if id := strings.TrimSpace(ev.SubconceptID); id != "" {
		subs = append(subs, id)
	}
	for _, id := range unitSubconceptIDs {
		if id = strings.TrimSpace(id); id != "" {
			subs = append(subs, id)
		}
	}
	sort.Strings(subs)
	for _, id := range subs {
		add(AttemptsKey(user, id))
	}

	if id := strings.TrimSpace(ev.ProgramID); id != "" {
		add(ConceptsKey(user, id))
	}
	add(UserDataKey(user))
	return keys
}

type InvalidatorDeps struct {
	Hierarchy Hierarchy
	Store     cache.Store
	Log       *logger.Logger
	Metrics   CacheMetrics

	// Versioned bumps the user's generation counter so entries computed from a
	// snapshot older than the write can no longer be read.
	Versioned bool
}

// Invalidator evicts the cached reports affected by a write. It never fails:
// lookup and backend errors are logged and the remaining keys are still evicted.
type Invalidator struct {
	hierarchy Hierarchy
	store     cache.Store
	log       *logger.Logger
	metrics   CacheMetrics
	versioned bool
}

func NewInvalidator(deps InvalidatorDeps) *Invalidator {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	m := deps.Metrics
	if m == nil {
		m = nopMetrics{}
	}
	return &Invalidator{
		hierarchy: deps.Hierarchy,
		store:     deps.Store,
		log:       log.With("service", "ReportInvalidator"),
		metrics:   m,
		versioned: deps.Versioned,
	}
}

// Invalidate must run after the write has committed. It returns the planned
// base keys.
func (inv *Invalidator) Invalidate(ctx context.Context, ev WriteEvent) []string {
	if inv == nil || inv.store == nil {
		return nil
	}
	ev = inv.resolve(ctx, ev)
	subs := inv.unitSubconcepts(ctx, ev.UnitID)
	keys := PlanEviction(ev, subs)
	if len(keys) == 0 {
		return nil
	}

	targets := keys
	if inv.versioned {
		gen, err := cache.GetCounter(ctx, inv.store, GenerationKey(ev.UserID))
		if err != nil {
			inv.log.Warn("read cache generation failed", "user_id", ev.UserID, "error", err)
			inv.metrics.EvictionFailed("generation")
		}
		if _, err := inv.store.Incr(ctx, GenerationKey(ev.UserID)); err != nil {
			inv.log.Warn("bump cache generation failed", "user_id", ev.UserID, "error", err)
			inv.metrics.EvictionFailed("generation")
		}
		targets = make([]string, 0, len(keys))
		for _, k := range keys {
			targets = append(targets, Versioned(k, gen))
		}
	}

	if err := inv.store.Evict(ctx, targets...); err != nil {
		inv.log.Warn("evict cached reports failed", "user_id", ev.UserID, "keys", len(targets), "error", err)
		inv.metrics.EvictionFailed("evict")
		return keys
	}
	inv.metrics.Evicted(len(targets))
	inv.log.Debug("evicted cached reports", "user_id", ev.UserID, "kind", ev.Kind, "keys", targets)
	return keys
}

func (inv *Invalidator) resolve(ctx context.Context, ev WriteEvent) WriteEvent {
	if inv.hierarchy == nil {
		return ev
	}
	dbc := dbctx.Of(ctx)
	if ev.UnitID == "" && ev.SubconceptID != "" {
		m, err := inv.hierarchy.GetUnitSubconceptBySubconcept(dbc, ev.SubconceptID)
		switch {
		case err != nil:
			inv.log.Warn("resolve unit for eviction failed", "subconcept_id", ev.SubconceptID, "error", err)
			inv.metrics.EvictionFailed("lookup")
		case m != nil:
			ev.UnitID = m.UnitID
		}
	}
	if ev.UnitID != "" && (ev.StageID == "" || ev.ProgramID == "") {
		u, err := inv.hierarchy.GetUnit(dbc, ev.UnitID)
		switch {
		case err != nil:
			inv.log.Warn("resolve stage for eviction failed", "unit_id", ev.UnitID, "error", err)
			inv.metrics.EvictionFailed("lookup")
		case u != nil:
			if ev.StageID == "" {
				ev.StageID = u.StageID
			}
			if ev.ProgramID == "" {
				ev.ProgramID = u.ProgramID
			}
		}
	}
	if ev.StageID != "" && ev.ProgramID == "" {
		st, err := inv.hierarchy.GetStage(dbc, ev.StageID)
		switch {
		case err != nil:
			inv.log.Warn("resolve program for eviction failed", "stage_id", ev.StageID, "error", err)
			inv.metrics.EvictionFailed("lookup")
		case st != nil:
			ev.ProgramID = st.ProgramID
		}
	}
	return ev
}

func (inv *Invalidator) unitSubconcepts(ctx context.Context, unitID string) []string {
	if unitID == "" || inv.hierarchy == nil {
		return nil
	}
	mappings, err := inv.hierarchy.ListUnitSubconcepts(dbctx.Of(ctx), unitID)
	if err != nil {
		inv.log.Warn("list unit subconcepts for eviction failed", "unit_id", unitID, "error", err)
		inv.metrics.EvictionFailed("lookup")
		return nil
	}
	out := make([]string, 0, len(mappings))
	for _, m := range mappings {
		if m != nil && m.SubconceptID != "" {
			out = append(out, m.SubconceptID)
		}
	}
	return out
}
