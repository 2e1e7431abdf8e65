package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	StatusPreparing  SessionStatus = "PREPARING"
	StatusInProgress SessionStatus = "IN_PROGRESS"
	StatusCompleted  SessionStatus = "COMPLETED"
	StatusCancelled  SessionStatus = "CANCELLED"
	StatusFailed     SessionStatus = "FAILED"
)

// NonTerminalStatuses are the statuses in which a session still counts as the
// user's active session. At most one session per user may be in one of them.
var NonTerminalStatuses = []SessionStatus{StatusPreparing, StatusInProgress}

func (s SessionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo is the single place that encodes the session state machine:
//
//	PREPARING  -> IN_PROGRESS | FAILED | CANCELLED
//	IN_PROGRESS -> COMPLETED | CANCELLED
//
// Terminal statuses accept nothing.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case StatusPreparing:
		return next == StatusInProgress || next == StatusFailed || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// StatusesAllowing returns every status from which `next` is reachable. Used
// to build guarded UPDATE ... WHERE status IN (...) transitions.
func StatusesAllowing(next SessionStatus) []SessionStatus {
	all := []SessionStatus{StatusPreparing, StatusInProgress, StatusCompleted, StatusCancelled, StatusFailed}
	var out []SessionStatus
	for _, s := range all {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

type InterviewSession struct {
	ID     string `gorm:"column:id;type:uuid;primaryKey" json:"session_id"`
	UserID string `gorm:"column:user_id;type:uuid;index" json:"user_id"`

	JobTarget      string  `gorm:"column:job_target;type:text" json:"job_target"`
	JobCategory    *string `gorm:"column:job_category;type:text" json:"job_category,omitempty"`
	JobSubCategory *string `gorm:"column:job_sub_category;type:text" json:"job_sub_category,omitempty"`
	Background     *string `gorm:"column:background;type:text" json:"background,omitempty"`

	Status SessionStatus `gorm:"column:status;type:text;index" json:"status"`

	// CurrentQuestion is the 0-based index of the next question to be read.
	CurrentQuestion int `gorm:"column:current_question" json:"current_question"`
	TotalQuestions  int `gorm:"column:total_questions" json:"total_questions"`

	// PlannedDuration is the interview length target in minutes.
	PlannedDuration int     `gorm:"column:planned_duration" json:"planned_duration,omitempty"`
	Prompt          *string `gorm:"column:prompt;type:text" json:"prompt,omitempty"`

	AnalysisResult  datatypes.JSON `gorm:"column:analysis_result;type:jsonb" json:"analysis_result,omitempty"`
	DurationSeconds int64          `gorm:"column:duration_seconds" json:"duration_seconds"`

	StartedAt   *time.Time `gorm:"column:started_at;type:timestamptz" json:"started_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamptz" json:"completed_at,omitempty"`
}

func (InterviewSession) TableName() string { return "interview_sessions" }
