package reports

import (
	"context"
	"sort"
	"strings"

	"github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
)

// ProgramConcepts rolls the user's best scores up to the concepts that the
// program's subconcepts map to. Subconcepts without a concept are left out.
func (a *Aggregator) ProgramConcepts(ctx context.Context, userID, programID string) (*domain.ConceptReport, error) {
	userID, programID = strings.TrimSpace(userID), strings.TrimSpace(programID)
	dbc := dbctx.Of(ctx)
	program, err := a.hierarchy.GetProgram(dbc, programID)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, ProgramNotFound(programID)
	}

	subconcepts, err := a.programSubconcepts(dbc, programID)
	if err != nil {
		return nil, err
	}
	attempts, err := a.attempts.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	best := bestScores(attempts)

	byConcept := map[string]*domain.ConceptSummary{}
	for _, sc := range subconcepts {
		if sc.ConceptID == nil || strings.TrimSpace(*sc.ConceptID) == "" {
			continue
		}
		cid := strings.TrimSpace(*sc.ConceptID)
		cs := byConcept[cid]
		if cs == nil {
			cs = &domain.ConceptSummary{ConceptID: cid}
			byConcept[cid] = cs
		}
		cs.TotalSubconcepts++
		cs.TotalMaxScore += sc.MaxScore
		if score, ok := best[sc.ID]; ok {
			cs.AttemptedSubconcepts++
			if score > 0 {
				cs.UserScore += score
			}
		}
	}

	ids := make([]string, 0, len(byConcept))
	for id := range byConcept {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	concepts, err := a.hierarchy.ListConcepts(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range concepts {
		if cs := byConcept[c.ID]; cs != nil {
			cs.Name = c.Name
			cs.Description = c.Description
		}
	}

	out := &domain.ConceptReport{
		ProgramID: program.ID,
		UserID:    userID,
		Concepts:  make([]domain.ConceptSummary, 0, len(ids)),
	}
	for _, id := range ids {
		cs := byConcept[id]
		cs.ScorePercentage = Percentage(cs.UserScore, cs.TotalMaxScore)
		out.Concepts = append(out.Concepts, *cs)
	}
	return out, nil
}

// programSubconcepts lists the program's subconcepts in hierarchy order.
func (a *Aggregator) programSubconcepts(dbc dbctx.Context, programID string) ([]*domain.Subconcept, error) {
	stages, err := a.hierarchy.ListStages(dbc, programID)
	if err != nil {
		return nil, err
	}
	var out []*domain.Subconcept
	for _, st := range stages {
		units, err := a.hierarchy.ListUnits(dbc, st.ID)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			mappings, err := a.hierarchy.ListUnitSubconcepts(dbc, u.ID)
			if err != nil {
				return nil, err
			}
			for _, m := range mappings {
				if m == nil || m.Subconcept == nil {
					continue
				}
				out = append(out, m.Subconcept)
			}
		}
	}
	return out, nil
}

// bestScores maps subconcept id to the highest score among the attempts.
func bestScores(attempts []*domain.Attempt) map[string]int {
	out := map[string]int{}
	for _, a := range attempts {
		if a == nil {
			continue
		}
		if cur, ok := out[a.SubconceptID]; !ok || a.Score > cur {
			out[a.SubconceptID] = a.Score
		}
	}
	return out
}
