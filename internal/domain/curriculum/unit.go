package curriculum

import "time"

type Unit struct {
	ID          string `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ProgramID   string `gorm:"column:program_id;type:varchar(64);not null;index" json:"program_id"`
	StageID     string `gorm:"column:stage_id;type:varchar(64);not null;index:idx_unit_stage_position,priority:1" json:"stage_id"`
	Stage       *Stage `gorm:"constraint:OnDelete:CASCADE;foreignKey:StageID;references:ID" json:"-"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Position    int    `gorm:"column:position;not null;default:0;index:idx_unit_stage_position,priority:2" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Unit) TableName() string { return "unit" }
