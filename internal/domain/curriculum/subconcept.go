package curriculum

import (
	"time"

	"gorm.io/datatypes"
)

type Subconcept struct {
	ID           string  `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Description  string  `gorm:"column:description;type:text" json:"description"`
	MaxScore     int     `gorm:"column:max_score;not null;default:0" json:"max_score"`
	NumQuestions int     `gorm:"column:num_questions;not null;default:0" json:"num_questions"`
	ConceptID    *string `gorm:"column:concept_id;type:varchar(64);index" json:"concept_id,omitempty"`
	Link         string  `gorm:"column:link" json:"link,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Subconcept) TableName() string { return "subconcept" }

// UnitSubconcept places a subconcept inside exactly one unit. Dependencies holds
// the ids of subconcepts that should be done first (JSON array of strings).
type UnitSubconcept struct {
	ID           string         `gorm:"column:id;type:varchar(160);primaryKey" json:"id"`
	UnitID       string         `gorm:"column:unit_id;type:varchar(64);not null;index:idx_unit_subconcept_position,priority:1" json:"unit_id"`
	Unit         *Unit          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UnitID;references:ID" json:"-"`
	SubconceptID string         `gorm:"column:subconcept_id;type:varchar(64);not null;uniqueIndex" json:"subconcept_id"`
	Subconcept   *Subconcept    `gorm:"foreignKey:SubconceptID;references:ID" json:"subconcept,omitempty"`
	Position     int            `gorm:"column:position;not null;default:0;index:idx_unit_subconcept_position,priority:2" json:"position"`
	Dependencies datatypes.JSON `gorm:"column:dependencies" json:"dependencies,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UnitSubconcept) TableName() string { return "unit_subconcept" }
