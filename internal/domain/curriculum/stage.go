package curriculum

import "time"

type Stage struct {
	ID          string   `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ProgramID   string   `gorm:"column:program_id;type:varchar(64);not null;index:idx_stage_program_position,priority:1" json:"program_id"`
	Program     *Program `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProgramID;references:ID" json:"-"`
	Name        string   `gorm:"column:name;not null" json:"name"`
	Description string   `gorm:"column:description;type:text" json:"description"`

	// Position orders stages inside a program; sequential unlock follows it.
	Position int `gorm:"column:position;not null;default:0;index:idx_stage_program_position,priority:2" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Stage) TableName() string { return "stage" }
