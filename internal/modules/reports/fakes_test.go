package reports

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
)

// memStore is an in-memory hierarchy, ledger and completion tracker.
type memStore struct {
	mu sync.Mutex

	programs    map[string]*domain.Program
	stages      map[string]*domain.Stage
	units       map[string]*domain.Unit
	subconcepts map[string]*domain.Subconcept
	concepts    map[string]*domain.Concept
	mappings    []*domain.UnitSubconcept
	attempts    []*domain.Attempt
	completions map[string]*domain.UnitCompletion

	attemptReads atomic.Int64
	failLookups  bool
}

func newMemStore() *memStore {
	return &memStore{
		programs:    map[string]*domain.Program{},
		stages:      map[string]*domain.Stage{},
		units:       map[string]*domain.Unit{},
		subconcepts: map[string]*domain.Subconcept{},
		concepts:    map[string]*domain.Concept{},
		completions: map[string]*domain.UnitCompletion{},
	}
}

var errLookup = errors.New("lookup unavailable")

// seedTree builds P with the given shape. Ids are "s1", "s1u2", "s1u2c1" etc.
func seedTree(stages, units, subs, maxScore int) *memStore {
	m := newMemStore()
	m.programs["P"] = &domain.Program{ID: "P", Name: "Program", StagesCount: stages, UnitCount: stages * units}
	for s := 1; s <= stages; s++ {
		sid := fmt.Sprintf("s%d", s)
		m.stages[sid] = &domain.Stage{ID: sid, ProgramID: "P", Name: "Stage " + sid, Position: s}
		for u := 1; u <= units; u++ {
			uid := fmt.Sprintf("%su%d", sid, u)
			m.units[uid] = &domain.Unit{ID: uid, ProgramID: "P", StageID: sid, Name: "Unit " + uid, Position: u}
			for c := 1; c <= subs; c++ {
				cid := fmt.Sprintf("%sc%d", uid, c)
				m.subconcepts[cid] = &domain.Subconcept{ID: cid, Description: cid, MaxScore: maxScore, NumQuestions: 5}
				m.mappings = append(m.mappings, &domain.UnitSubconcept{ID: uid + ":" + cid, UnitID: uid, SubconceptID: cid, Position: c})
			}
		}
	}
	return m
}

func (m *memStore) addAttempt(user, subconceptID string, score int, started time.Time, successful bool) *domain.Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	unitID := ""
	for _, mp := range m.mappings {
		if mp.SubconceptID == subconceptID {
			unitID = mp.UnitID
		}
	}
	ended := started.Add(5 * time.Minute)
	a := &domain.Attempt{
		ID:           uuid.New(),
		UserID:       user,
		SubconceptID: subconceptID,
		UnitID:       unitID,
		StartedAt:    started,
		EndedAt:      &ended,
		Score:        score,
		Successful:   successful,
		CreatedAt:    started,
	}
	m.attempts = append(m.attempts, a)
	return a
}

func (m *memStore) complete(user, unitID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.units[unitID]
	m.completions[user+"|"+unitID] = &domain.UnitCompletion{UserID: user, UnitID: unitID, StageID: u.StageID, ProgramID: u.ProgramID, Completed: true}
}

func (m *memStore) GetProgram(_ dbctx.Context, id string) (*domain.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLookups {
		return nil, errLookup
	}
	return m.programs[id], nil
}

func (m *memStore) GetStage(_ dbctx.Context, id string) (*domain.Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLookups {
		return nil, errLookup
	}
	return m.stages[id], nil
}

func (m *memStore) GetUnit(_ dbctx.Context, id string) (*domain.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLookups {
		return nil, errLookup
	}
	return m.units[id], nil
}

func (m *memStore) GetSubconcept(_ dbctx.Context, id string) (*domain.Subconcept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subconcepts[id], nil
}

func (m *memStore) ListStages(_ dbctx.Context, programID string) ([]*domain.Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Stage
	for i := 1; i <= len(m.stages); i++ {
		if st := m.stages[fmt.Sprintf("s%d", i)]; st != nil && st.ProgramID == programID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStore) ListUnits(_ dbctx.Context, stageID string) ([]*domain.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Unit
	for i := 1; i <= len(m.units); i++ {
		if u := m.units[fmt.Sprintf("%su%d", stageID, i)]; u != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) ListUnitSubconcepts(_ dbctx.Context, unitID string) ([]*domain.UnitSubconcept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLookups {
		return nil, errLookup
	}
	var out []*domain.UnitSubconcept
	for _, mp := range m.mappings {
		if mp.UnitID != unitID {
			continue
		}
		cp := *mp
		cp.Subconcept = m.subconcepts[mp.SubconceptID]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) GetUnitSubconceptBySubconcept(_ dbctx.Context, subconceptID string) (*domain.UnitSubconcept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLookups {
		return nil, errLookup
	}
	for _, mp := range m.mappings {
		if mp.SubconceptID == subconceptID {
			return mp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListConcepts(_ dbctx.Context, ids []string) ([]*domain.Concept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Concept
	for _, id := range ids {
		if c := m.concepts[id]; c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) ListByUserAndSubconcept(_ dbctx.Context, userID, subconceptID string) ([]*domain.Attempt, error) {
	m.attemptReads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Attempt
	for _, a := range m.attempts {
		if a.UserID == userID && a.SubconceptID == subconceptID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListByUser(_ dbctx.Context, userID string) ([]*domain.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Attempt
	for _, a := range m.attempts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ dbctx.Context, userID, unitID string) (*domain.UnitCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completions[userID+"|"+unitID], nil
}

func (m *memStore) listCompletions(userID string) []*domain.UnitCompletion {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.UnitCompletion
	for _, c := range m.completions {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

// completionView adapts memStore to Completions; ListByUser collides with the
// ledger method of the same name.
type completionView struct{ m *memStore }

func (v completionView) Get(dbc dbctx.Context, userID, unitID string) (*domain.UnitCompletion, error) {
	return v.m.Get(dbc, userID, unitID)
}

func (v completionView) ListByUser(_ dbctx.Context, userID string) ([]*domain.UnitCompletion, error) {
	return v.m.listCompletions(userID), nil
}

func newTestAggregator(m *memStore) *Aggregator {
	return NewAggregator(AggregatorDeps{
		Hierarchy:   m,
		Attempts:    m,
		Completions: completionView{m},
		Workers:     3,
	})
}
