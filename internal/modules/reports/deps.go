package reports

import (
	"context"

	"github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
)

// Hierarchy is the read side of the curriculum store. Missing rows are (nil, nil).
type Hierarchy interface {
	GetProgram(dbc dbctx.Context, programID string) (*domain.Program, error)
	GetStage(dbc dbctx.Context, stageID string) (*domain.Stage, error)
	GetUnit(dbc dbctx.Context, unitID string) (*domain.Unit, error)
	GetSubconcept(dbc dbctx.Context, subconceptID string) (*domain.Subconcept, error)
	ListStages(dbc dbctx.Context, programID string) ([]*domain.Stage, error)
	ListUnits(dbc dbctx.Context, stageID string) ([]*domain.Unit, error)
	ListUnitSubconcepts(dbc dbctx.Context, unitID string) ([]*domain.UnitSubconcept, error)
	GetUnitSubconceptBySubconcept(dbc dbctx.Context, subconceptID string) (*domain.UnitSubconcept, error)
	ListConcepts(dbc dbctx.Context, conceptIDs []string) ([]*domain.Concept, error)
}

// Ledger reads the attempt ledger.
type Ledger interface {
	ListByUserAndSubconcept(dbc dbctx.Context, userID, subconceptID string) ([]*domain.Attempt, error)
	ListByUser(dbc dbctx.Context, userID string) ([]*domain.Attempt, error)
}

// Completions reads the unit completion tracker.
type Completions interface {
	Get(dbc dbctx.Context, userID, unitID string) (*domain.UnitCompletion, error)
	ListByUser(dbc dbctx.Context, userID string) ([]*domain.UnitCompletion, error)
}

// Service produces derived progress reports for one user.
type Service interface {
	ProgramReport(ctx context.Context, userID, programID string) (*domain.ProgramReport, error)
	StageReport(ctx context.Context, userID, stageID string) (*domain.StageReport, error)
	UnitReport(ctx context.Context, userID, unitID string) (*domain.UnitReport, error)
	UserAttempts(ctx context.Context, userID, subconceptID string) ([]*domain.Attempt, error)
	ProgramConcepts(ctx context.Context, userID, programID string) (*domain.ConceptReport, error)
	UserSummary(ctx context.Context, userID string) (*domain.UserSummary, error)
}
