package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

// AttemptRepo is the append-only attempt ledger.
type AttemptRepo interface {
	Create(dbc dbctx.Context, rows []*types.Attempt) ([]*types.Attempt, error)
	ListByUserAndSubconcept(dbc dbctx.Context, userID, subconceptID string) ([]*types.Attempt, error)
	ListByUser(dbc dbctx.Context, userID string) ([]*types.Attempt, error)
	CountSuccessfulSubconceptsInUnit(dbc dbctx.Context, userID, unitID string) (int, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return &attemptRepo{db: db, log: baseLog.With("repo", "AttemptRepo")}
}

func (r *attemptRepo) Create(dbc dbctx.Context, rows []*types.Attempt) ([]*types.Attempt, error) {
	if len(rows) == 0 {
		return []*types.Attempt{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUserAndSubconcept returns every attempt for the pair, oldest start first.
func (r *attemptRepo) ListByUserAndSubconcept(dbc dbctx.Context, userID, subconceptID string) ([]*types.Attempt, error) {
	var out []*types.Attempt
	if userID == "" || subconceptID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND subconcept_id = ?", userID, subconceptID).
		Order("started_at ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.Attempt, error) {
	var out []*types.Attempt
	if userID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("started_at ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountSuccessfulSubconceptsInUnit counts distinct subconcepts of the unit with
// at least one successful attempt by the user.
func (r *attemptRepo) CountSuccessfulSubconceptsInUnit(dbc dbctx.Context, userID, unitID string) (int, error) {
	if userID == "" || unitID == "" {
		return 0, nil
	}
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.Attempt{}).
		Where("user_id = ? AND unit_id = ? AND successful = ?", userID, unitID, true).
		Distinct("subconcept_id").
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
