package models

import "time"

type InterviewAnswer struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:uuid;uniqueIndex:uidx_session_answer" json:"session_id"`

	QuestionIndex int     `gorm:"column:question_index;uniqueIndex:uidx_session_answer" json:"question_index"`
	AnswerText    *string `gorm:"column:answer_text;type:text" json:"answer_text,omitempty"`

	VideoURL        *string `gorm:"column:video_url;type:text" json:"video_url,omitempty"`
	VideoPath       *string `gorm:"column:video_path;type:text" json:"video_path,omitempty"`
	DurationSeconds int     `gorm:"column:duration_seconds" json:"duration_seconds"`

	SubmittedAt time.Time `gorm:"column:submitted_at;type:timestamptz" json:"submitted_at"`
}

func (InterviewAnswer) TableName() string { return "interview_answers" }
