package curriculum

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

// CurriculumRepo is the hierarchy store. Lookups of missing rows return (nil, nil).
type CurriculumRepo interface {
	GetProgram(dbc dbctx.Context, programID string) (*types.Program, error)
	GetStage(dbc dbctx.Context, stageID string) (*types.Stage, error)
	GetUnit(dbc dbctx.Context, unitID string) (*types.Unit, error)
	GetSubconcept(dbc dbctx.Context, subconceptID string) (*types.Subconcept, error)

	ListStages(dbc dbctx.Context, programID string) ([]*types.Stage, error)
	ListUnits(dbc dbctx.Context, stageID string) ([]*types.Unit, error)
	ListUnitSubconcepts(dbc dbctx.Context, unitID string) ([]*types.UnitSubconcept, error)
	GetUnitSubconceptBySubconcept(dbc dbctx.Context, subconceptID string) (*types.UnitSubconcept, error)
	ListConcepts(dbc dbctx.Context, conceptIDs []string) ([]*types.Concept, error)

	UpsertProgram(dbc dbctx.Context, row *types.Program) error
	UpsertStage(dbc dbctx.Context, row *types.Stage) error
	UpsertUnit(dbc dbctx.Context, row *types.Unit) error
	UpsertSubconcept(dbc dbctx.Context, row *types.Subconcept) error
	UpsertUnitSubconcept(dbc dbctx.Context, row *types.UnitSubconcept) error
	UpsertConcept(dbc dbctx.Context, row *types.Concept) error
	RefreshProgramCounts(dbc dbctx.Context, programID string) error
}

type curriculumRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumRepo {
	return &curriculumRepo{db: db, log: baseLog.With("repo", "CurriculumRepo")}
}

func first[T any](t *gorm.DB, query string, args ...interface{}) (*T, error) {
	var row T
	err := t.Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *curriculumRepo) GetProgram(dbc dbctx.Context, programID string) (*types.Program, error) {
	if programID == "" {
		return nil, nil
	}
	return first[types.Program](dbc.DB(r.db), "id = ?", programID)
}

func (r *curriculumRepo) GetStage(dbc dbctx.Context, stageID string) (*types.Stage, error) {
	if stageID == "" {
		return nil, nil
	}
	return first[types.Stage](dbc.DB(r.db), "id = ?", stageID)
}

func (r *curriculumRepo) GetUnit(dbc dbctx.Context, unitID string) (*types.Unit, error) {
	if unitID == "" {
		return nil, nil
	}
	return first[types.Unit](dbc.DB(r.db), "id = ?", unitID)
}

func (r *curriculumRepo) GetSubconcept(dbc dbctx.Context, subconceptID string) (*types.Subconcept, error) {
	if subconceptID == "" {
		return nil, nil
	}
	return first[types.Subconcept](dbc.DB(r.db), "id = ?", subconceptID)
}

func (r *curriculumRepo) ListStages(dbc dbctx.Context, programID string) ([]*types.Stage, error) {
	var out []*types.Stage
	if programID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("program_id = ?", programID).
		Order("position ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *curriculumRepo) ListUnits(dbc dbctx.Context, stageID string) ([]*types.Unit, error) {
	var out []*types.Unit
	if stageID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("stage_id = ?", stageID).
		Order("position ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListUnitSubconcepts returns the unit's mappings in display order with the
// subconcept preloaded. A mapping whose subconcept row is gone has Subconcept == nil.
func (r *curriculumRepo) ListUnitSubconcepts(dbc dbctx.Context, unitID string) ([]*types.UnitSubconcept, error) {
	var out []*types.UnitSubconcept
	if unitID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Preload("Subconcept").
		Where("unit_id = ?", unitID).
		Order("position ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *curriculumRepo) GetUnitSubconceptBySubconcept(dbc dbctx.Context, subconceptID string) (*types.UnitSubconcept, error) {
	if subconceptID == "" {
		return nil, nil
	}
	return first[types.UnitSubconcept](dbc.DB(r.db), "subconcept_id = ?", subconceptID)
}

func (r *curriculumRepo) ListConcepts(dbc dbctx.Context, conceptIDs []string) ([]*types.Concept, error) {
	var out []*types.Concept
	if len(conceptIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", conceptIDs).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func upsertByID(t *gorm.DB, row interface{}, cols []string) error {
	return t.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(append(cols, "updated_at")),
	}).Create(row).Error
}

func (r *curriculumRepo) UpsertProgram(dbc dbctx.Context, row *types.Program) error {
	if row == nil || row.ID == "" {
		return nil
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return upsertByID(dbc.DB(r.db), row, []string{"name", "description", "stages_count", "unit_count"})
}

func (r *curriculumRepo) UpsertStage(dbc dbctx.Context, row *types.Stage) error {
	if row == nil || row.ID == "" {
		return nil
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return upsertByID(dbc.DB(r.db), row, []string{"program_id", "name", "description", "position"})
}

func (r *curriculumRepo) UpsertUnit(dbc dbctx.Context, row *types.Unit) error {
	if row == nil || row.ID == "" {
		return nil
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return upsertByID(dbc.DB(r.db), row, []string{"program_id", "stage_id", "name", "description", "position"})
}

func (r *curriculumRepo) UpsertSubconcept(dbc dbctx.Context, row *types.Subconcept) error {
	if row == nil || row.ID == "" {
		return nil
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return upsertByID(dbc.DB(r.db), row, []string{"description", "max_score", "num_questions", "concept_id", "link"})
}

// UpsertUnitSubconcept keys on subconcept_id: a subconcept belongs to one unit,
// so re-importing it under another unit moves it.
func (r *curriculumRepo) UpsertUnitSubconcept(dbc dbctx.Context, row *types.UnitSubconcept) error {
	if row == nil || row.SubconceptID == "" || row.UnitID == "" {
		return nil
	}
	if row.ID == "" {
		row.ID = row.UnitID + ":" + row.SubconceptID
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subconcept_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"unit_id", "position", "dependencies", "updated_at"}),
	}).Create(row).Error
}

func (r *curriculumRepo) UpsertConcept(dbc dbctx.Context, row *types.Concept) error {
	if row == nil || row.ID == "" {
		return nil
	}
	stamp(&row.CreatedAt, &row.UpdatedAt)
	return upsertByID(dbc.DB(r.db), row, []string{"name", "description"})
}

// RefreshProgramCounts recomputes the denormalized stage and unit counts.
func (r *curriculumRepo) RefreshProgramCounts(dbc dbctx.Context, programID string) error {
	if programID == "" {
		return nil
	}
	t := dbc.DB(r.db)
	var stages, units int64
	if err := t.Model(&types.Stage{}).Where("program_id = ?", programID).Count(&stages).Error; err != nil {
		return err
	}
	if err := t.Model(&types.Unit{}).Where("program_id = ?", programID).Count(&units).Error; err != nil {
		return err
	}
	return t.Model(&types.Program{}).
		Where("id = ?", programID).
		Updates(map[string]interface{}{
			"stages_count": int(stages),
			"unit_count":   int(units),
			"updated_at":   time.Now().UTC(),
		}).Error
}
