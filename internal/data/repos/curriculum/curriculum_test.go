package curriculum

import (
	"context"
	"testing"

	"github.com/yungbote/linguapath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
)

func TestCurriculumRepoReads(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCurriculumRepo(db, testutil.Logger(t))

	tree := testutil.SeedTree(t, ctx, tx, 2, 2, 2, 10)

	if got, err := repo.GetProgram(dbc, tree.Program.ID); err != nil || got == nil || got.ID != tree.Program.ID {
		t.Fatalf("GetProgram: got=%v err=%v", got, err)
	}
	if got, err := repo.GetProgram(dbc, "missing"); err != nil || got != nil {
		t.Fatalf("GetProgram(missing): want=nil got=%v err=%v", got, err)
	}

	stages, err := repo.ListStages(dbc, tree.Program.ID)
	if err != nil || len(stages) != 2 {
		t.Fatalf("ListStages: err=%v len=%d", err, len(stages))
	}
	if stages[0].ID != tree.Stages[0].ID || stages[1].ID != tree.Stages[1].ID {
		t.Fatalf("ListStages order: want=%s,%s got=%s,%s", tree.Stages[0].ID, tree.Stages[1].ID, stages[0].ID, stages[1].ID)
	}

	units, err := repo.ListUnits(dbc, stages[1].ID)
	if err != nil || len(units) != 2 || units[0].ID != tree.Units[2].ID {
		t.Fatalf("ListUnits: err=%v units=%v", err, units)
	}

	mappings, err := repo.ListUnitSubconcepts(dbc, tree.Units[0].ID)
	if err != nil || len(mappings) != 2 {
		t.Fatalf("ListUnitSubconcepts: err=%v len=%d", err, len(mappings))
	}
	if mappings[0].Subconcept == nil || mappings[0].Subconcept.ID != tree.Subconcepts[0].ID {
		t.Fatalf("ListUnitSubconcepts preload: got=%v", mappings[0].Subconcept)
	}

	m, err := repo.GetUnitSubconceptBySubconcept(dbc, tree.Subconcepts[3].ID)
	if err != nil || m == nil || m.UnitID != tree.Units[1].ID {
		t.Fatalf("GetUnitSubconceptBySubconcept: got=%v err=%v", m, err)
	}
}

func TestCurriculumRepoUpserts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCurriculumRepo(db, testutil.Logger(t))

	p := &types.Program{ID: testutil.UniqueID("prog"), Name: "p"}
	st := &types.Stage{ID: testutil.UniqueID("stage"), ProgramID: p.ID, Name: "s"}
	un := &types.Unit{ID: testutil.UniqueID("unit"), ProgramID: p.ID, StageID: st.ID, Name: "u"}
	conceptID := testutil.UniqueID("concept")
	c := &types.Concept{ID: conceptID, Name: "grammar"}
	sc := &types.Subconcept{ID: testutil.UniqueID("sub"), MaxScore: 10, ConceptID: &conceptID}

	for name, fn := range map[string]func() error{
		"program":    func() error { return repo.UpsertProgram(dbc, p) },
		"stage":      func() error { return repo.UpsertStage(dbc, st) },
		"unit":       func() error { return repo.UpsertUnit(dbc, un) },
		"concept":    func() error { return repo.UpsertConcept(dbc, c) },
		"subconcept": func() error { return repo.UpsertSubconcept(dbc, sc) },
	} {
		if err := fn(); err != nil {
			t.Fatalf("Upsert %s: %v", name, err)
		}
	}
	if err := repo.UpsertUnitSubconcept(dbc, &types.UnitSubconcept{UnitID: un.ID, SubconceptID: sc.ID}); err != nil {
		t.Fatalf("UpsertUnitSubconcept: %v", err)
	}

	p.Name = "renamed"
	if err := repo.UpsertProgram(dbc, p); err != nil {
		t.Fatalf("UpsertProgram again: %v", err)
	}
	if err := repo.RefreshProgramCounts(dbc, p.ID); err != nil {
		t.Fatalf("RefreshProgramCounts: %v", err)
	}
	got, err := repo.GetProgram(dbc, p.ID)
	if err != nil || got == nil {
		t.Fatalf("GetProgram: got=%v err=%v", got, err)
	}
	if got.Name != "renamed" || got.StagesCount != 1 || got.UnitCount != 1 {
		t.Fatalf("program after upsert: want=renamed/1/1 got=%s/%d/%d", got.Name, got.StagesCount, got.UnitCount)
	}

	concepts, err := repo.ListConcepts(dbc, []string{conceptID, "missing"})
	if err != nil || len(concepts) != 1 {
		t.Fatalf("ListConcepts: err=%v len=%d", err, len(concepts))
	}
}
