package curriculum

import "time"

// Program is the root of the curriculum hierarchy.
type Program struct {
	ID          string `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`

	// Denormalized counts maintained by curriculum imports.
	StagesCount int `gorm:"column:stages_count;not null;default:0" json:"stages_count"`
	UnitCount   int `gorm:"column:unit_count;not null;default:0" json:"unit_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Program) TableName() string { return "program" }
