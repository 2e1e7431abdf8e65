package postgres

import (
	"context"
	"errors"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionRepository interface {
	// CreateExclusive atomically checks for an existing non-terminal session
	// for the same user and creates s only if none exists. The check and the
	// insert run under a per-user advisory transaction lock, so two
	// concurrent calls for one user can never both create. Returns the
	// existing session (created=false) or s itself (created=true).
	CreateExclusive(ctx context.Context, s *models.InterviewSession) (session *models.InterviewSession, created bool, err error)

	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
	FindUnfinished(ctx context.Context, userID string) (*models.InterviewSession, error)
	ListByUser(ctx context.Context, userID string, status models.SessionStatus, page, limit int) ([]models.InterviewSession, int64, error)

	// Transition performs a guarded status update: the row is only touched if
	// its current status legally allows `to`. Returns false when the guard
	// rejected the update (the session is already terminal or was moved
	// concurrently).
	Transition(ctx context.Context, id string, to models.SessionStatus, updates map[string]any) (bool, error)

	// AdvanceCurrentQuestion bumps current_question from `from` to from+1.
	// Optimistic: returns false if another caller advanced first.
	AdvanceCurrentQuestion(ctx context.Context, id string, from int) (bool, error)

	SetAnalysisResult(ctx context.Context, id string, result datatypes.JSON) error
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) CreateExclusive(ctx context.Context, s *models.InterviewSession) (*models.InterviewSession, bool, error) {
	var existing *models.InterviewSession
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize create attempts per user across all instances.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", s.UserID).Error; err != nil {
			return err
		}

		var row models.InterviewSession
		err := tx.
			Where("user_id = ? AND status IN ?", s.UserID, models.NonTerminalStatuses).
			Order("created_at DESC").
			Take(&row).Error
		if err == nil {
			existing = &row
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(s).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	return s, created, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	var row models.InterviewSession
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *sessionRepo) FindUnfinished(ctx context.Context, userID string) (*models.InterviewSession, error) {
	var row models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, models.NonTerminalStatuses).
		Order("created_at DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, status models.SessionStatus, page, limit int) ([]models.InterviewSession, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	q := r.db.WithContext(ctx).Model(&models.InterviewSession{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InterviewSession
	err := q.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *sessionRepo) Transition(ctx context.Context, id string, to models.SessionStatus, updates map[string]any) (bool, error) {
	froms := models.StatusesAllowing(to)
	if len(froms) == 0 {
		return false, nil
	}

	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	res := r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ? AND status IN ?", id, froms).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) AdvanceCurrentQuestion(ctx context.Context, id string, from int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ? AND current_question = ?", id, from).
		Update("current_question", from+1)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) SetAnalysisResult(ctx context.Context, id string, result datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Update("analysis_result", result).Error
}
