package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/linguapath-backend/internal/domain"
)

// Tree is a seeded program with its stages, units and subconcepts in order.
type Tree struct {
	Program     *types.Program
	Stages      []*types.Stage
	Units       []*types.Unit
	Subconcepts []*types.Subconcept
}

// UniqueID returns a short id that will not collide across test runs.
func UniqueID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// SeedTree creates a program with stages*units*subconcepts nodes. Every
// subconcept has the given max score.
func SeedTree(tb testing.TB, ctx context.Context, tx *gorm.DB, stages, unitsPerStage, subconceptsPerUnit, maxScore int) *Tree {
	tb.Helper()
	tree := &Tree{}
	p := &types.Program{
		ID:          UniqueID("prog"),
		Name:        "program",
		StagesCount: stages,
		UnitCount:   stages * unitsPerStage,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed program: %v", err)
	}
	tree.Program = p

	for s := 0; s < stages; s++ {
		st := &types.Stage{ID: UniqueID("stage"), ProgramID: p.ID, Name: fmt.Sprintf("stage %d", s+1), Position: s}
		if err := tx.WithContext(ctx).Create(st).Error; err != nil {
			tb.Fatalf("seed stage: %v", err)
		}
		tree.Stages = append(tree.Stages, st)

		for u := 0; u < unitsPerStage; u++ {
			un := &types.Unit{ID: UniqueID("unit"), ProgramID: p.ID, StageID: st.ID, Name: fmt.Sprintf("unit %d.%d", s+1, u+1), Position: u}
			if err := tx.WithContext(ctx).Create(un).Error; err != nil {
				tb.Fatalf("seed unit: %v", err)
			}
			tree.Units = append(tree.Units, un)

			for c := 0; c < subconceptsPerUnit; c++ {
				sc := &types.Subconcept{ID: UniqueID("sub"), Description: "subconcept", MaxScore: maxScore, NumQuestions: 5}
				if err := tx.WithContext(ctx).Create(sc).Error; err != nil {
					tb.Fatalf("seed subconcept: %v", err)
				}
				m := &types.UnitSubconcept{ID: un.ID + ":" + sc.ID, UnitID: un.ID, SubconceptID: sc.ID, Position: c}
				if err := tx.WithContext(ctx).Create(m).Error; err != nil {
					tb.Fatalf("seed unit subconcept: %v", err)
				}
				tree.Subconcepts = append(tree.Subconcepts, sc)
			}
		}
	}
	return tree
}
