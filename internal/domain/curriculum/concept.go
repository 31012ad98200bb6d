package curriculum

import "time"

// Concept groups subconcepts across units for the concept mapping report.
type Concept struct {
	ID          string `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Concept) TableName() string { return "concept" }
