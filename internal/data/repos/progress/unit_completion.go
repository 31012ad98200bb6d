package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

// UnitCompletionRepo is the per-(user, unit) completion tracker.
type UnitCompletionRepo interface {
	Get(dbc dbctx.Context, userID, unitID string) (*types.UnitCompletion, error)
	Upsert(dbc dbctx.Context, row *types.UnitCompletion) error
	ListByUser(dbc dbctx.Context, userID string) ([]*types.UnitCompletion, error)
}

type unitCompletionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnitCompletionRepo(db *gorm.DB, baseLog *logger.Logger) UnitCompletionRepo {
	return &unitCompletionRepo{db: db, log: baseLog.With("repo", "UnitCompletionRepo")}
}

func (r *unitCompletionRepo) Get(dbc dbctx.Context, userID, unitID string) (*types.UnitCompletion, error) {
	if userID == "" || unitID == "" {
		return nil, nil
	}
	var row types.UnitCompletion
	err := dbc.DB(r.db).
		Where("user_id = ? AND unit_id = ?", userID, unitID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Upsert writes the flag for (user, unit). A unique violation that slips past
// the conflict clause aborts the surrounding transaction, so it is returned for
// the caller to retry as a whole.
func (r *unitCompletionRepo) Upsert(dbc dbctx.Context, row *types.UnitCompletion) error {
	if row == nil || row.UserID == "" || row.UnitID == "" {
		return nil
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if row.Completed && row.CompletedAt == nil {
		row.CompletedAt = &now
	}
	if !row.Completed {
		row.CompletedAt = nil
	}

	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "unit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stage_id", "program_id", "completed", "completed_at", "updated_at"}),
	}).Create(row).Error
}

func (r *unitCompletionRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.UnitCompletion, error) {
	var out []*types.UnitCompletion
	if userID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("unit_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
