package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Attempt is one scored submission by a learner against a subconcept. Rows are
// append-only: best score and latest attempt are derived at read time.
type Attempt struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string     `gorm:"column:user_id;type:varchar(64);not null;index:idx_attempt_user_subconcept,priority:1;index:idx_attempt_user_unit,priority:1" json:"user_id"`
	SubconceptID string     `gorm:"column:subconcept_id;type:varchar(64);not null;index:idx_attempt_user_subconcept,priority:2" json:"subconcept_id"`
	UnitID       string     `gorm:"column:unit_id;type:varchar(64);not null;index:idx_attempt_user_unit,priority:2" json:"unit_id"`
	SessionID    string     `gorm:"column:session_id;type:varchar(128);index" json:"session_id"`
	StartedAt    time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt      *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	Score        int        `gorm:"column:score;not null;default:0" json:"score"`
	Successful   bool       `gorm:"column:successful;not null;default:false" json:"successful"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Attempt) TableName() string { return "attempt" }

// FinishedAt is the end timestamp, falling back to the start for attempts
// recorded without one.
func (a *Attempt) FinishedAt() time.Time {
	if a.EndedAt != nil && !a.EndedAt.IsZero() {
		return *a.EndedAt
	}
	return a.StartedAt
}
