package postgres

import (
	"context"
	"errors"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/utils"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	// CreateBatch writes the whole question bundle in one transaction, so a
	// storage failure never leaves a partial bundle behind.
	CreateBatch(ctx context.Context, questions []models.InterviewQuestion) error
	ListBySession(ctx context.Context, sessionID string) ([]models.InterviewQuestion, error)
	GetByIndex(ctx context.Context, sessionID string, index int) (*models.InterviewQuestion, error)
}

type questionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) CreateBatch(ctx context.Context, questions []models.InterviewQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *questionRepo) ListBySession(ctx context.Context, sessionID string) ([]models.InterviewQuestion, error) {
	var rows []models.InterviewQuestion
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_index ASC").
		Find(&rows).Error
	return rows, err
}

func (r *questionRepo) GetByIndex(ctx context.Context, sessionID string, index int) (*models.InterviewQuestion, error) {
	var row models.InterviewQuestion
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND question_index = ?", sessionID, index).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}
