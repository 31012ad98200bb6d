package reports

import "time"

const (
	StatusYes = "yes"
	StatusNo  = "no"
)

// AttemptView is the leaf-level projection of an attempt.
type AttemptView struct {
	AttemptID  string     `json:"attempt_id"`
	SessionID  string     `json:"session_id,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Score      int        `json:"score"`
	Successful bool       `json:"successful"`
}

type SubconceptReport struct {
	SubconceptID     string        `json:"subconcept_id"`
	Description      string        `json:"description"`
	MaxScore         int           `json:"max_score"`
	NumQuestions     int           `json:"num_questions"`
	Completed        bool          `json:"completed"`
	AttemptCount     int           `json:"attempt_count"`
	HighestScore     int           `json:"highest_score"`
	FirstAttemptDate *time.Time    `json:"first_attempt_date,omitempty"`
	LastAttemptDate  *time.Time    `json:"last_attempt_date,omitempty"`
	Attempts         []AttemptView `json:"attempts"`
}

type UnitReport struct {
	UnitID                         string             `json:"unit_id"`
	Name                           string             `json:"name"`
	Description                    string             `json:"description"`
	TotalSubconcepts               int                `json:"total_subconcepts"`
	CompletedSubconcepts           int                `json:"completed_subconcepts"`
	SubconceptCompletionPercentage float64            `json:"subconcept_completion_percentage"`
	AverageScore                   float64            `json:"average_score"`
	CompletionStatus               string             `json:"completion_status"`
	FirstAttemptDate               *time.Time         `json:"first_attempt_date,omitempty"`
	LastAttemptDate                *time.Time         `json:"last_attempt_date,omitempty"`
	Subconcepts                    []SubconceptReport `json:"subconcepts"`
}

func (u *UnitReport) IsComplete() bool { return u != nil && u.CompletionStatus == StatusYes }

type StageReport struct {
	StageID                        string       `json:"stage_id"`
	Name                           string       `json:"name"`
	Description                    string       `json:"description"`
	Position                       int          `json:"position"`
	TotalUnits                     int          `json:"total_units"`
	CompletedUnits                 int          `json:"completed_units"`
	UnitCompletionPercentage       float64      `json:"unit_completion_percentage"`
	TotalSubconcepts               int          `json:"total_subconcepts"`
	CompletedSubconcepts           int          `json:"completed_subconcepts"`
	SubconceptCompletionPercentage float64      `json:"subconcept_completion_percentage"`
	AverageScore                   float64      `json:"average_score"`
	CompletionStatus               string       `json:"completion_status"`
	Enabled                        bool         `json:"enabled"`
	FirstAttemptDate               *time.Time   `json:"first_attempt_date,omitempty"`
	LastAttemptDate                *time.Time   `json:"last_attempt_date,omitempty"`
	Units                          []UnitReport `json:"units"`
}

func (s *StageReport) IsComplete() bool { return s != nil && s.CompletionStatus == StatusYes }

type ProgramReport struct {
	ProgramID                      string            `json:"program_id"`
	UserID                         string            `json:"user_id"`
	Name                           string            `json:"name"`
	Description                    string            `json:"description"`
	TotalStages                    int               `json:"total_stages"`
	CompletedStages                int               `json:"completed_stages"`
	StageCompletionPercentage      float64           `json:"stage_completion_percentage"`
	TotalUnits                     int               `json:"total_units"`
	CompletedUnits                 int               `json:"completed_units"`
	UnitCompletionPercentage       float64           `json:"unit_completion_percentage"`
	TotalSubconcepts               int               `json:"total_subconcepts"`
	CompletedSubconcepts           int               `json:"completed_subconcepts"`
	SubconceptCompletionPercentage float64           `json:"subconcept_completion_percentage"`
	AverageScore                   float64           `json:"average_score"`
	FirstAttemptDate               *time.Time        `json:"first_attempt_date,omitempty"`
	LastAttemptDate                *time.Time        `json:"last_attempt_date,omitempty"`
	ScoreDistribution              ScoreDistribution `json:"score_distribution"`
	Stages                         []StageReport     `json:"stages"`
}

// ScoreDistribution maps bucket labels ("0-20" ... "81-100") to attempt counts.
// All five buckets are always present.
type ScoreDistribution map[string]int

// ConceptSummary rolls a user's best scores up to one concept.
type ConceptSummary struct {
	ConceptID            string  `json:"concept_id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	TotalSubconcepts     int     `json:"total_subconcepts"`
	AttemptedSubconcepts int     `json:"attempted_subconcepts"`
	TotalMaxScore        int     `json:"total_max_score"`
	UserScore            int     `json:"user_score"`
	ScorePercentage      float64 `json:"score_percentage"`
}

type ConceptReport struct {
	ProgramID string           `json:"program_id"`
	UserID    string           `json:"user_id"`
	Concepts  []ConceptSummary `json:"concepts"`
}

// UserSummary is the per-user derived data shown on dashboards and session
// summaries. It depends on every attempt and completion of the user.
type UserSummary struct {
	UserID               string     `json:"user_id"`
	TotalAttempts        int        `json:"total_attempts"`
	SuccessfulAttempts   int        `json:"successful_attempts"`
	SubconceptsAttempted int        `json:"subconcepts_attempted"`
	BestScoreTotal       int        `json:"best_score_total"`
	CompletedUnits       int        `json:"completed_units"`
	LastActivityAt       *time.Time `json:"last_activity_at,omitempty"`
}
