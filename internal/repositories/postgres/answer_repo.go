package postgres

import (
	"context"

	"github.com/mockmate/mockmate/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	// Upsert keys on (session_id, question_index): resubmitting an answer for
	// the same question replaces the previous one.
	Upsert(ctx context.Context, a *models.InterviewAnswer) error
	ListBySession(ctx context.Context, sessionID string) ([]models.InterviewAnswer, error)
}

type answerRepo struct {
	db *gorm.DB
}

func NewAnswerRepo(db *gorm.DB) AnswerRepository {
	return &answerRepo{db: db}
}

func (r *answerRepo) Upsert(ctx context.Context, a *models.InterviewAnswer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer_text", "video_url", "video_path", "duration_seconds", "submitted_at"}),
		}).
		Create(a).Error
}

func (r *answerRepo) ListBySession(ctx context.Context, sessionID string) ([]models.InterviewAnswer, error) {
	var rows []models.InterviewAnswer
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_index ASC").
		Find(&rows).Error
	return rows, err
}
