package domain

import (
	"github.com/yungbote/linguapath-backend/internal/domain/curriculum"
	"github.com/yungbote/linguapath-backend/internal/domain/progress"
	"github.com/yungbote/linguapath-backend/internal/domain/reports"
)

const (
	StatusYes = reports.StatusYes
	StatusNo  = reports.StatusNo
)

type (
	Program        = curriculum.Program
	Stage          = curriculum.Stage
	Unit           = curriculum.Unit
	Subconcept     = curriculum.Subconcept
	UnitSubconcept = curriculum.UnitSubconcept
	Concept        = curriculum.Concept

	Attempt        = progress.Attempt
	UnitCompletion = progress.UnitCompletion

	AttemptView       = reports.AttemptView
	SubconceptReport  = reports.SubconceptReport
	UnitReport        = reports.UnitReport
	StageReport       = reports.StageReport
	ProgramReport     = reports.ProgramReport
	ScoreDistribution = reports.ScoreDistribution
	ConceptSummary    = reports.ConceptSummary
	ConceptReport     = reports.ConceptReport
	UserSummary       = reports.UserSummary
)

// Models lists every persisted table in migration order.
func Models() []any {
	return []any{
		&Program{},
		&Stage{},
		&Unit{},
		&Concept{},
		&Subconcept{},
		&UnitSubconcept{},
		&Attempt{},
		&UnitCompletion{},
	}
}
