package progress

import (
	"time"

	"github.com/google/uuid"
)

// UnitCompletion is the per-(user, unit) completion flag. A row with
// Completed=false reads the same as no row.
type UnitCompletion struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string     `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_unit_completion_user_unit,priority:1" json:"user_id"`
	UnitID      string     `gorm:"column:unit_id;type:varchar(64);not null;uniqueIndex:idx_unit_completion_user_unit,priority:2" json:"unit_id"`
	StageID     string     `gorm:"column:stage_id;type:varchar(64);not null;index" json:"stage_id"`
	ProgramID   string     `gorm:"column:program_id;type:varchar(64);not null;index" json:"program_id"`
	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UnitCompletion) TableName() string { return "unit_completion" }
