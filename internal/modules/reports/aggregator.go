package reports

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

const defaultWorkers = 4

type AggregatorDeps struct {
	Hierarchy   Hierarchy
	Attempts    Ledger
	Completions Completions
	Log         *logger.Logger

	// Workers bounds concurrent sibling subtree computations per level.
	Workers int
}

// Aggregator walks the hierarchy top-down and rolls attempts and completions up
// into nested reports. Sibling subtrees are computed concurrently; results are
// always assembled in hierarchy order.
type Aggregator struct {
	hierarchy   Hierarchy
	attempts    Ledger
	completions Completions
	log         *logger.Logger
	workers     int
	tracer      trace.Tracer

	// children resolves nested reports; defaults to the aggregator itself.
	children Service
}

func NewAggregator(deps AggregatorDeps) *Aggregator {
	workers := deps.Workers
	if workers < 1 {
		workers = defaultWorkers
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	a := &Aggregator{
		hierarchy:   deps.Hierarchy,
		attempts:    deps.Attempts,
		completions: deps.Completions,
		log:         log.With("service", "ReportAggregator"),
		workers:     workers,
		tracer:      otel.Tracer("linguapath/reports"),
	}
	a.children = a
	return a
}

// UseChildReports routes nested stage, unit and attempt lookups through s,
// typically a cache decorator wrapping this aggregator. Call before serving.
func (a *Aggregator) UseChildReports(s Service) {
	if s == nil {
		a.children = a
		return
	}
	a.children = s
}

func (a *Aggregator) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return a.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (a *Aggregator) ProgramReport(ctx context.Context, userID, programID string) (out *domain.ProgramReport, err error) {
	userID, programID = strings.TrimSpace(userID), strings.TrimSpace(programID)
	ctx, span := a.startSpan(ctx, "reports.ProgramReport", attribute.String("program_id", programID))
	defer func() { endSpan(span, err) }()

	dbc := dbctx.Of(ctx)
	program, err := a.hierarchy.GetProgram(dbc, programID)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, ProgramNotFound(programID)
	}
	stages, err := a.hierarchy.ListStages(dbc, programID)
	if err != nil {
		return nil, err
	}

	stageReports := make([]*domain.StageReport, len(stages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, st := range stages {
		i, st := i, st
		g.Go(func() error {
			sr, err := a.children.StageReport(gctx, userID, st.ID)
			if err != nil {
				return err
			}
			stageReports[i] = sr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out = &domain.ProgramReport{
		ProgramID:   program.ID,
		UserID:      userID,
		Name:        program.Name,
		Description: program.Description,
		TotalStages: len(stageReports),
		Stages:      make([]domain.StageReport, 0, len(stageReports)),
	}
	var (
		unitAverages []float64
		scores       []int
	)
	prevComplete := true
	for i, sr := range stageReports {
		// copy: the child report may be shared with a cache or other callers
		st := *sr
		st.Enabled = i == 0 || prevComplete
		prevComplete = st.IsComplete()

		if st.IsComplete() {
			out.CompletedStages++
		}
		out.TotalUnits += st.TotalUnits
		out.CompletedUnits += st.CompletedUnits
		out.TotalSubconcepts += st.TotalSubconcepts
		out.CompletedSubconcepts += st.CompletedSubconcepts
		out.FirstAttemptDate = minTime(out.FirstAttemptDate, st.FirstAttemptDate)
		out.LastAttemptDate = maxTime(out.LastAttemptDate, st.LastAttemptDate)
		for _, u := range st.Units {
			unitAverages = append(unitAverages, u.AverageScore)
			for _, sc := range u.Subconcepts {
				for _, at := range sc.Attempts {
					scores = append(scores, at.Score)
				}
			}
		}
		out.Stages = append(out.Stages, st)
	}
	out.StageCompletionPercentage = Percentage(out.CompletedStages, out.TotalStages)
	out.UnitCompletionPercentage = Percentage(out.CompletedUnits, out.TotalUnits)
	out.SubconceptCompletionPercentage = Percentage(out.CompletedSubconcepts, out.TotalSubconcepts)
	out.AverageScore = MeanPositive(unitAverages)
	out.ScoreDistribution = Distribution(scores)
	return out, nil
}

// StageReport leaves Enabled false; unlocking depends on the previous stage and
// is decided by the program level.
func (a *Aggregator) StageReport(ctx context.Context, userID, stageID string) (*domain.StageReport, error) {
	userID, stageID = strings.TrimSpace(userID), strings.TrimSpace(stageID)
	dbc := dbctx.Of(ctx)
	stage, err := a.hierarchy.GetStage(dbc, stageID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, StageNotFound(stageID)
	}
	units, err := a.hierarchy.ListUnits(dbc, stageID)
	if err != nil {
		return nil, err
	}

	unitReports := make([]*domain.UnitReport, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			ur, err := a.children.UnitReport(gctx, userID, u.ID)
			if err != nil {
				return err
			}
			unitReports[i] = ur
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &domain.StageReport{
		StageID:     stage.ID,
		Name:        stage.Name,
		Description: stage.Description,
		Position:    stage.Position,
		TotalUnits:  len(unitReports),
		Units:       make([]domain.UnitReport, 0, len(unitReports)),
	}
	averages := make([]float64, 0, len(unitReports))
	for _, ur := range unitReports {
		if ur.IsComplete() {
			out.CompletedUnits++
		}
		out.TotalSubconcepts += ur.TotalSubconcepts
		out.CompletedSubconcepts += ur.CompletedSubconcepts
		out.FirstAttemptDate = minTime(out.FirstAttemptDate, ur.FirstAttemptDate)
		out.LastAttemptDate = maxTime(out.LastAttemptDate, ur.LastAttemptDate)
		averages = append(averages, ur.AverageScore)
		out.Units = append(out.Units, *ur)
	}
	out.UnitCompletionPercentage = Percentage(out.CompletedUnits, out.TotalUnits)
	out.SubconceptCompletionPercentage = Percentage(out.CompletedSubconcepts, out.TotalSubconcepts)
	out.AverageScore = MeanPositive(averages)
	// a stage without units is trivially complete
	out.CompletionStatus = domain.StatusNo
	if out.CompletedUnits == out.TotalUnits {
		out.CompletionStatus = domain.StatusYes
	}
	return out, nil
}

// UnitReport marks every subconcept completed when the unit carries a completion
// flag for the user, whether or not the subconcept itself was attempted.
func (a *Aggregator) UnitReport(ctx context.Context, userID, unitID string) (*domain.UnitReport, error) {
	userID, unitID = strings.TrimSpace(userID), strings.TrimSpace(unitID)
	dbc := dbctx.Of(ctx)
	unit, err := a.hierarchy.GetUnit(dbc, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, UnitNotFound(unitID)
	}
	mappings, err := a.hierarchy.ListUnitSubconcepts(dbc, unitID)
	if err != nil {
		return nil, err
	}
	completion, err := a.completions.Get(dbc, userID, unitID)
	if err != nil {
		return nil, err
	}
	completed := completion != nil && completion.Completed

	subReports := make([]*domain.SubconceptReport, len(mappings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, m := range mappings {
		i, m := i, m
		if m == nil || m.Subconcept == nil {
			sid := ""
			if m != nil {
				sid = m.SubconceptID
			}
			a.log.Warn("skipping orphaned subconcept mapping", "unit_id", unitID, "subconcept_id", sid)
			continue
		}
		g.Go(func() error {
			attempts, err := a.children.UserAttempts(gctx, userID, m.SubconceptID)
			if err != nil {
				return err
			}
			subReports[i] = buildSubconceptReport(m.Subconcept, attempts, completed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &domain.UnitReport{
		UnitID:      unit.ID,
		Name:        unit.Name,
		Description: unit.Description,
		Subconcepts: make([]domain.SubconceptReport, 0, len(subReports)),
	}
	var highest []float64
	for _, sr := range subReports {
		if sr == nil {
			continue
		}
		out.TotalSubconcepts++
		if sr.Completed {
			out.CompletedSubconcepts++
		}
		if sr.AttemptCount > 0 {
			highest = append(highest, float64(sr.HighestScore))
		}
		out.FirstAttemptDate = minTime(out.FirstAttemptDate, sr.FirstAttemptDate)
		out.LastAttemptDate = maxTime(out.LastAttemptDate, sr.LastAttemptDate)
		out.Subconcepts = append(out.Subconcepts, *sr)
	}
	out.SubconceptCompletionPercentage = Percentage(out.CompletedSubconcepts, out.TotalSubconcepts)
	out.AverageScore = MeanPositive(highest)
	out.CompletionStatus = domain.StatusNo
	if completed {
		out.CompletionStatus = domain.StatusYes
	}
	return out, nil
}

func buildSubconceptReport(sc *domain.Subconcept, attempts []*domain.Attempt, completed bool) *domain.SubconceptReport {
	st := summarizeAttempts(attempts)
	return &domain.SubconceptReport{
		SubconceptID:     sc.ID,
		Description:      sc.Description,
		MaxScore:         sc.MaxScore,
		NumQuestions:     sc.NumQuestions,
		Completed:        completed,
		AttemptCount:     st.count,
		HighestScore:     st.highest,
		FirstAttemptDate: st.first,
		LastAttemptDate:  st.last,
		Attempts:         toViews(attempts),
	}
}

// UserAttempts returns every attempt for the pair, ascending by start time.
func (a *Aggregator) UserAttempts(ctx context.Context, userID, subconceptID string) ([]*domain.Attempt, error) {
	userID, subconceptID = strings.TrimSpace(userID), strings.TrimSpace(subconceptID)
	rows, err := a.attempts.ListByUserAndSubconcept(dbctx.Of(ctx), userID, subconceptID)
	if err != nil {
		return nil, err
	}
	sortAttempts(rows)
	if rows == nil {
		rows = []*domain.Attempt{}
	}
	return rows, nil
}
