package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/yungbote/linguapath-backend/internal/data/db"
	"github.com/yungbote/linguapath-backend/internal/data/repos"
	types "github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/modules/reports"
	"github.com/yungbote/linguapath-backend/internal/platform/apierr"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

const (
	CodeInvalidAttempt    = "invalid_attempt"
	CodeInvalidCompletion = "invalid_completion"
	CodeScoreOutOfRange   = "score_out_of_range"

	maxTxAttempts = 3
)

type RecordAttemptInput struct {
	UserID       string          `json:"user_id" validate:"required,max=64"`
	SubconceptID string          `json:"subconcept_id" validate:"required,max=64"`
	SessionID    string          `json:"session_id" validate:"max=128"`
	StartedAt    time.Time       `json:"started_at"`
	EndedAt      *time.Time      `json:"ended_at"`
	Score        int             `json:"score" validate:"gte=0"`
	Successful   bool            `json:"successful"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

type RecordAttemptResult struct {
	Attempt       *types.Attempt `json:"attempt"`
	UnitID        string         `json:"unit_id"`
	StageID       string         `json:"stage_id"`
	ProgramID     string         `json:"program_id"`
	UnitCompleted bool           `json:"unit_completed"`
}

type SetUnitCompletionInput struct {
	UserID    string `json:"user_id" validate:"required,max=64"`
	UnitID    string `json:"unit_id" validate:"required,max=64"`
	Completed bool   `json:"completed"`
}

// Invalidator evicts cached reports after a committed write.
type Invalidator interface {
	Invalidate(ctx context.Context, ev reports.WriteEvent) []string
}

// WriteMetrics counts progress writes.
type WriteMetrics interface {
	ProgressWrite(kind, outcome string)
}

type ProgressService interface {
	RecordAttempt(ctx context.Context, in RecordAttemptInput) (*RecordAttemptResult, error)
	SetUnitCompletion(ctx context.Context, in SetUnitCompletionInput) (*types.UnitCompletion, error)
}

type ProgressServiceDeps struct {
	Tx          db.TxRunner
	Log         *logger.Logger
	Curriculum  repos.CurriculumRepo
	Attempts    repos.AttemptRepo
	Completions repos.UnitCompletionRepo
	Invalidator Invalidator
	Metrics     WriteMetrics

	// CompletionThreshold is the share of a unit's subconcepts that need a
	// successful attempt before the unit is marked complete.
	CompletionThreshold float64
	Now                 func() time.Time
}

type progressService struct {
	tx          db.TxRunner
	log         *logger.Logger
	curriculum  repos.CurriculumRepo
	attempts    repos.AttemptRepo
	completions repos.UnitCompletionRepo
	invalidator Invalidator
	metrics     WriteMetrics
	threshold   float64
	now         func() time.Time
	validate    *validator.Validate
}

func NewProgressService(deps ProgressServiceDeps) ProgressService {
	threshold := deps.CompletionThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 1
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &progressService{
		tx:          deps.Tx,
		log:         log.With("service", "ProgressService"),
		curriculum:  deps.Curriculum,
		attempts:    deps.Attempts,
		completions: deps.Completions,
		invalidator: deps.Invalidator,
		metrics:     deps.Metrics,
		threshold:   threshold,
		now:         now,
		validate:    validator.New(),
	}
}

// RequiredSubconcepts is how many distinct successful subconcepts complete a
// unit of total subconcepts.
func RequiredSubconcepts(total int, threshold float64) int {
	if total <= 0 {
		return 0
	}
	n := int(math.Ceil(threshold*float64(total) - 1e-9))
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}

func validationError(code string, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
		return apierr.BadRequest(code, fmt.Errorf("invalid fields: %s", strings.Join(fields, ", ")))
	}
	return apierr.BadRequest(code, err)
}

func (s *progressService) inTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	var err error
	for i := 0; i < maxTxAttempts; i++ {
		err = s.tx.InTx(ctx, fn)
		if err == nil || !(db.IsRetryable(err) || db.IsUniqueViolation(err, "")) {
			return err
		}
		s.log.Warn("retrying progress transaction", "attempt", i+1, "error", err)
	}
	return err
}

func (s *progressService) invalidate(ctx context.Context, ev reports.WriteEvent) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate(context.WithoutCancel(ctx), ev)
}

func (s *progressService) observe(kind string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ProgressWrite(kind, outcome)
}

func (s *progressService) RecordAttempt(ctx context.Context, in RecordAttemptInput) (out *RecordAttemptResult, err error) {
	defer func() { s.observe(reports.WriteAttempt, err) }()

	in.UserID = strings.TrimSpace(in.UserID)
	in.SubconceptID = strings.TrimSpace(in.SubconceptID)
	in.SessionID = strings.TrimSpace(in.SessionID)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(CodeInvalidAttempt, err)
	}
	if in.StartedAt.IsZero() {
		in.StartedAt = s.now()
	}
	in.StartedAt = in.StartedAt.UTC()
	if in.EndedAt != nil {
		e := in.EndedAt.UTC()
		if e.Before(in.StartedAt) {
			return nil, apierr.BadRequest(CodeInvalidAttempt, errors.New("ended_at is before started_at"))
		}
		in.EndedAt = &e
	}
	if len(in.Metadata) > 0 && !json.Valid(in.Metadata) {
		return nil, apierr.BadRequest(CodeInvalidAttempt, errors.New("metadata is not valid json"))
	}

	out = &RecordAttemptResult{}
	err = s.inTx(ctx, func(dbc dbctx.Context) error {
		sc, err := s.curriculum.GetSubconcept(dbc, in.SubconceptID)
		if err != nil {
			return err
		}
		if sc == nil {
			return reports.SubconceptNotFound(in.SubconceptID)
		}
		mapping, err := s.curriculum.GetUnitSubconceptBySubconcept(dbc, in.SubconceptID)
		if err != nil {
			return err
		}
		if mapping == nil {
			return reports.SubconceptNotFound(in.SubconceptID)
		}
		unit, err := s.curriculum.GetUnit(dbc, mapping.UnitID)
		if err != nil {
			return err
		}
		if unit == nil {
			return reports.UnitNotFound(mapping.UnitID)
		}
		if sc.MaxScore > 0 && in.Score > sc.MaxScore {
			return apierr.BadRequest(CodeScoreOutOfRange, fmt.Errorf("score %d exceeds max score %d", in.Score, sc.MaxScore))
		}

		row := &types.Attempt{
			UserID:       in.UserID,
			SubconceptID: sc.ID,
			UnitID:       unit.ID,
			SessionID:    in.SessionID,
			StartedAt:    in.StartedAt,
			EndedAt:      in.EndedAt,
			Score:        in.Score,
			Successful:   in.Successful,
		}
		if len(in.Metadata) > 0 {
			row.Metadata = datatypes.JSON(in.Metadata)
		}
		if _, err := s.attempts.Create(dbc, []*types.Attempt{row}); err != nil {
			return err
		}
		out.Attempt = row
		out.UnitID, out.StageID, out.ProgramID = unit.ID, unit.StageID, unit.ProgramID

		if !in.Successful {
			return nil
		}
		completed, err := s.evaluateUnitCompletion(dbc, in.UserID, unit)
		if err != nil {
			return err
		}
		out.UnitCompleted = completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	// after commit: a read that starts now sees the new attempt
	s.invalidate(ctx, reports.WriteEvent{
		Kind:         reports.WriteAttempt,
		UserID:       in.UserID,
		ProgramID:    out.ProgramID,
		StageID:      out.StageID,
		UnitID:       out.UnitID,
		SubconceptID: in.SubconceptID,
	})
	s.log.Info("attempt recorded",
		"user_id", in.UserID,
		"subconcept_id", in.SubconceptID,
		"unit_id", out.UnitID,
		"score", in.Score,
		"unit_completed", out.UnitCompleted,
	)
	return out, nil
}

// evaluateUnitCompletion flips the unit to complete once enough distinct
// subconcepts have a successful attempt. It never clears an existing flag.
func (s *progressService) evaluateUnitCompletion(dbc dbctx.Context, userID string, unit *types.Unit) (bool, error) {
	existing, err := s.completions.Get(dbc, userID, unit.ID)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.Completed {
		return true, nil
	}
	mappings, err := s.curriculum.ListUnitSubconcepts(dbc, unit.ID)
	if err != nil {
		return false, err
	}
	total := len(mappings)
	if total == 0 {
		return false, nil
	}
	done, err := s.attempts.CountSuccessfulSubconceptsInUnit(dbc, userID, unit.ID)
	if err != nil {
		return false, err
	}
	if done < RequiredSubconcepts(total, s.threshold) {
		return false, nil
	}
	now := s.now().UTC()
	row := &types.UnitCompletion{
		UserID:      userID,
		UnitID:      unit.ID,
		StageID:     unit.StageID,
		ProgramID:   unit.ProgramID,
		Completed:   true,
		CompletedAt: &now,
	}
	if existing != nil {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	}
	if err := s.completions.Upsert(dbc, row); err != nil {
		return false, err
	}
	return true, nil
}

func (s *progressService) SetUnitCompletion(ctx context.Context, in SetUnitCompletionInput) (out *types.UnitCompletion, err error) {
	defer func() { s.observe(reports.WriteUnitCompletion, err) }()

	in.UserID = strings.TrimSpace(in.UserID)
	in.UnitID = strings.TrimSpace(in.UnitID)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(CodeInvalidCompletion, err)
	}

	err = s.inTx(ctx, func(dbc dbctx.Context) error {
		unit, err := s.curriculum.GetUnit(dbc, in.UnitID)
		if err != nil {
			return err
		}
		if unit == nil {
			return reports.UnitNotFound(in.UnitID)
		}
		row := &types.UnitCompletion{
			UserID:    in.UserID,
			UnitID:    unit.ID,
			StageID:   unit.StageID,
			ProgramID: unit.ProgramID,
			Completed: in.Completed,
		}
		if in.Completed {
			now := s.now().UTC()
			row.CompletedAt = &now
		}
		existing, err := s.completions.Get(dbc, in.UserID, unit.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
			if in.Completed && existing.Completed && existing.CompletedAt != nil {
				row.CompletedAt = existing.CompletedAt
			}
		}
		if err := s.completions.Upsert(dbc, row); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, reports.WriteEvent{
		Kind:      reports.WriteUnitCompletion,
		UserID:    out.UserID,
		ProgramID: out.ProgramID,
		StageID:   out.StageID,
		UnitID:    out.UnitID,
	})
	s.log.Info("unit completion set", "user_id", out.UserID, "unit_id", out.UnitID, "completed", out.Completed)
	return out, nil
}
