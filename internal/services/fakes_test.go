package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/modules/reports"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
)

type fakeTx struct {
	calls int
	errs  []error
}

func (f *fakeTx) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	return fn(dbctx.Of(ctx))
}

type fakeCurriculum struct {
	mu          sync.Mutex
	programs    map[string]*types.Program
	stages      map[string]*types.Stage
	units       map[string]*types.Unit
	subconcepts map[string]*types.Subconcept
	concepts    map[string]*types.Concept
	mappings    map[string]*types.UnitSubconcept
	order       []string
}

func newFakeCurriculum() *fakeCurriculum {
	return &fakeCurriculum{
		programs:    map[string]*types.Program{},
		stages:      map[string]*types.Stage{},
		units:       map[string]*types.Unit{},
		subconcepts: map[string]*types.Subconcept{},
		concepts:    map[string]*types.Concept{},
		mappings:    map[string]*types.UnitSubconcept{},
	}
}

// withUnit seeds program P / stage S / unit N with the given subconcepts.
func (f *fakeCurriculum) withUnit(maxScore int, subconceptIDs ...string) *fakeCurriculum {
	f.programs["P"] = &types.Program{ID: "P", Name: "Program"}
	f.stages["S"] = &types.Stage{ID: "S", ProgramID: "P", Name: "Stage"}
	f.units["N"] = &types.Unit{ID: "N", ProgramID: "P", StageID: "S", Name: "Unit"}
	for i, id := range subconceptIDs {
		f.subconcepts[id] = &types.Subconcept{ID: id, MaxScore: maxScore}
		f.mappings[id] = &types.UnitSubconcept{ID: "N:" + id, UnitID: "N", SubconceptID: id, Position: i}
		f.order = append(f.order, id)
	}
	return f
}

func (f *fakeCurriculum) GetProgram(_ dbctx.Context, id string) (*types.Program, error) {
	return f.programs[id], nil
}
func (f *fakeCurriculum) GetStage(_ dbctx.Context, id string) (*types.Stage, error) {
	return f.stages[id], nil
}
func (f *fakeCurriculum) GetUnit(_ dbctx.Context, id string) (*types.Unit, error) {
	return f.units[id], nil
}
func (f *fakeCurriculum) GetSubconcept(_ dbctx.Context, id string) (*types.Subconcept, error) {
	return f.subconcepts[id], nil
}
func (f *fakeCurriculum) ListStages(dbctx.Context, string) ([]*types.Stage, error) { return nil, nil }
func (f *fakeCurriculum) ListUnits(dbctx.Context, string) ([]*types.Unit, error)   { return nil, nil }
func (f *fakeCurriculum) ListUnitSubconcepts(_ dbctx.Context, unitID string) ([]*types.UnitSubconcept, error) {
	var out []*types.UnitSubconcept
	for _, id := range f.order {
		if m := f.mappings[id]; m != nil && m.UnitID == unitID {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *fakeCurriculum) GetUnitSubconceptBySubconcept(_ dbctx.Context, id string) (*types.UnitSubconcept, error) {
	return f.mappings[id], nil
}
func (f *fakeCurriculum) ListConcepts(dbctx.Context, []string) ([]*types.Concept, error) {
	return nil, nil
}
func (f *fakeCurriculum) UpsertProgram(_ dbctx.Context, row *types.Program) error {
	f.programs[row.ID] = row
	return nil
}
func (f *fakeCurriculum) UpsertStage(_ dbctx.Context, row *types.Stage) error {
	f.stages[row.ID] = row
	return nil
}
func (f *fakeCurriculum) UpsertUnit(_ dbctx.Context, row *types.Unit) error {
	f.units[row.ID] = row
	return nil
}
func (f *fakeCurriculum) UpsertSubconcept(_ dbctx.Context, row *types.Subconcept) error {
	f.subconcepts[row.ID] = row
	return nil
}
func (f *fakeCurriculum) UpsertUnitSubconcept(_ dbctx.Context, row *types.UnitSubconcept) error {
	if _, ok := f.mappings[row.SubconceptID]; !ok {
		f.order = append(f.order, row.SubconceptID)
	}
	f.mappings[row.SubconceptID] = row
	return nil
}
func (f *fakeCurriculum) UpsertConcept(_ dbctx.Context, row *types.Concept) error {
	f.concepts[row.ID] = row
	return nil
}
func (f *fakeCurriculum) RefreshProgramCounts(_ dbctx.Context, programID string) error {
	p := f.programs[programID]
	if p == nil {
		return nil
	}
	p.StagesCount, p.UnitCount = 0, 0
	for _, st := range f.stages {
		if st.ProgramID == programID {
			p.StagesCount++
		}
	}
	for _, u := range f.units {
		if u.ProgramID == programID {
			p.UnitCount++
		}
	}
	return nil
}

type fakeAttempts struct {
	rows []*types.Attempt
}

func (f *fakeAttempts) Create(_ dbctx.Context, rows []*types.Attempt) ([]*types.Attempt, error) {
	for _, r := range rows {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		f.rows = append(f.rows, r)
	}
	return rows, nil
}

func (f *fakeAttempts) ListByUserAndSubconcept(_ dbctx.Context, userID, subconceptID string) ([]*types.Attempt, error) {
	var out []*types.Attempt
	for _, r := range f.rows {
		if r.UserID == userID && r.SubconceptID == subconceptID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttempts) ListByUser(_ dbctx.Context, userID string) ([]*types.Attempt, error) {
	var out []*types.Attempt
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttempts) CountSuccessfulSubconceptsInUnit(_ dbctx.Context, userID, unitID string) (int, error) {
	seen := map[string]bool{}
	for _, r := range f.rows {
		if r.UserID == userID && r.UnitID == unitID && r.Successful {
			seen[r.SubconceptID] = true
		}
	}
	return len(seen), nil
}

type fakeCompletions struct {
	rows map[string]*types.UnitCompletion
}

func newFakeCompletions() *fakeCompletions {
	return &fakeCompletions{rows: map[string]*types.UnitCompletion{}}
}

func (f *fakeCompletions) Get(_ dbctx.Context, userID, unitID string) (*types.UnitCompletion, error) {
	return f.rows[userID+"|"+unitID], nil
}

func (f *fakeCompletions) Upsert(_ dbctx.Context, row *types.UnitCompletion) error {
	cp := *row
	f.rows[row.UserID+"|"+row.UnitID] = &cp
	return nil
}

func (f *fakeCompletions) ListByUser(_ dbctx.Context, userID string) ([]*types.UnitCompletion, error) {
	var out []*types.UnitCompletion
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordingInvalidator struct {
	events []reports.WriteEvent
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ev reports.WriteEvent) []string {
	r.events = append(r.events, ev)
	return reports.PlanEviction(ev, nil)
}

type countingMetrics struct {
	writes map[string]int
}

func (c *countingMetrics) ProgressWrite(kind, outcome string) {
	if c.writes == nil {
		c.writes = map[string]int{}
	}
	c.writes[kind+"/"+outcome]++
}
