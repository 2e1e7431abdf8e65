package models

import "time"

// SynthesisStatus tracks the speech-synthesis outcome for one question.
// PENDING means synthesis has not been attempted, FAILED means it was
// attempted and gave up; only READY questions carry playable audio.
type SynthesisStatus string

const (
	SynthesisPending SynthesisStatus = "PENDING"
	SynthesisReady   SynthesisStatus = "READY"
	SynthesisFailed  SynthesisStatus = "FAILED"
)

type InterviewQuestion struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:uuid;uniqueIndex:uidx_session_question" json:"session_id"`

	QuestionIndex int    `gorm:"column:question_index;uniqueIndex:uidx_session_question" json:"question_index"`
	QuestionText  string `gorm:"column:question_text;type:text" json:"question_text"`

	AudioURL                 *string         `gorm:"column:audio_url;type:text" json:"audio_url,omitempty"`
	AudioPath                *string         `gorm:"column:audio_path;type:text" json:"audio_path,omitempty"`
	EstimatedDurationSeconds int             `gorm:"column:estimated_duration_seconds" json:"estimated_duration_seconds"`
	SynthesisStatus          SynthesisStatus `gorm:"column:synthesis_status;type:text" json:"synthesis_status"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (InterviewQuestion) TableName() string { return "interview_questions" }
