package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mockmate/mockmate/internal/cache"
	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/queue"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
	"github.com/mockmate/mockmate/internal/utils"
)

const (
	minQuestionCount = 1
	maxQuestionCount = 20

	// 15-minute interview target at ~2.5 minutes per answer
	targetDurationMinutes = 15
	minutesPerQuestion    = 2.5

	sessionCacheTTL = 30 * time.Second
)

// defaultQuestionCount derives from the duration target when the caller does
// not ask for a specific count.
var defaultQuestionCount = int(math.Round(targetDurationMinutes / minutesPerQuestion))

type CreateSessionParams struct {
	UserID         string
	JobTarget      string
	JobCategory    string
	JobSubCategory string
	Background     string
	QuestionCount  *int
}

type CreateSessionResult struct {
	Session   *models.InterviewSession   `json:"session"`
	Questions []models.InterviewQuestion `json:"questions"`
	Resumed   bool                       `json:"resumed"`
}

type SessionDetail struct {
	Session   *models.InterviewSession   `json:"session"`
	Questions []models.InterviewQuestion `json:"questions"`
	Answers   []models.InterviewAnswer   `json:"answers"`
}

type NextQuestionResult struct {
	Question  *models.InterviewQuestion `json:"question,omitempty"`
	Completed bool                      `json:"completed"`
}

type SubmitAnswerParams struct {
	QuestionIndex   int
	AnswerText      *string
	VideoURL        *string
	VideoPath       *string
	DurationSeconds int
}

type InterviewService interface {
	CreateSession(ctx context.Context, p CreateSessionParams) (*CreateSessionResult, error)
	GetSession(ctx context.Context, sessionID string) (*SessionDetail, error)
	GetUnfinishedSession(ctx context.Context, userID string) (*SessionDetail, error)
	GetNextQuestion(ctx context.Context, sessionID string) (*NextQuestionResult, error)
	SubmitAnswer(ctx context.Context, sessionID string, p SubmitAnswerParams) (*models.InterviewAnswer, error)
	CompleteSession(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	CancelSession(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	ListSessions(ctx context.Context, userID string, status models.SessionStatus, page, limit int) ([]models.InterviewSession, int64, error)
}

type interviewService struct {
	sessions  pgrepo.SessionRepository
	questions pgrepo.QuestionRepository
	answers   pgrepo.AnswerRepository
	pipeline  QuestionPipeline
	analysis  queue.AnalysisTrigger
	cache     cache.Cache
	log       *logrus.Logger
}

func NewInterviewService(
	sessions pgrepo.SessionRepository,
	questions pgrepo.QuestionRepository,
	answers pgrepo.AnswerRepository,
	pipeline QuestionPipeline,
	analysis queue.AnalysisTrigger,
	c cache.Cache,
	log *logrus.Logger,
) InterviewService {
	return &interviewService{
		sessions:  sessions,
		questions: questions,
		answers:   answers,
		pipeline:  pipeline,
		analysis:  analysis,
		cache:     c,
		log:       log,
	}
}

func (s *interviewService) CreateSession(ctx context.Context, p CreateSessionParams) (*CreateSessionResult, error) {
	const op = "InterviewService.CreateSession"

	if p.UserID == "" || p.JobTarget == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and job_target are required", nil)
	}

	count := defaultQuestionCount
	if p.QuestionCount != nil {
		if *p.QuestionCount < minQuestionCount || *p.QuestionCount > maxQuestionCount {
			return nil, utils.E(utils.CodeInvalidArgument, op,
				fmt.Sprintf("question_count must be between %d and %d", minQuestionCount, maxQuestionCount), nil)
		}
		count = *p.QuestionCount
	}

	planned := int(math.Round(float64(count) * minutesPerQuestion))
	if planned > targetDurationMinutes {
		planned = targetDurationMinutes
	}
	if planned < 1 {
		planned = 1
	}

	now := time.Now().UTC()
	session := &models.InterviewSession{
		ID:              uuid.NewString(),
		UserID:          p.UserID,
		JobTarget:       p.JobTarget,
		JobCategory:     optStr(p.JobCategory),
		JobSubCategory:  optStr(p.JobSubCategory),
		Background:      optStr(p.Background),
		Status:          models.StatusPreparing,
		TotalQuestions:  count,
		PlannedDuration: planned,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	existing, created, err := s.sessions.CreateExclusive(ctx, session)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	if !created {
		qs, err := s.questions.ListBySession(ctx, existing.ID)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to load questions", err)
		}
		s.log.WithFields(logrus.Fields{
			"session_id": existing.ID,
			"user_id":    p.UserID,
		}).Info("resuming unfinished interview session")
		return &CreateSessionResult{Session: existing, Questions: qs, Resumed: true}, nil
	}

	sess, qs, err := s.pipeline.Run(ctx, session)
	if err != nil {
		return nil, err
	}
	return &CreateSessionResult{Session: sess, Questions: qs, Resumed: false}, nil
}

func (s *interviewService) GetSession(ctx context.Context, sessionID string) (*SessionDetail, error) {
	const op = "InterviewService.GetSession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	key := sessionCacheKey(sessionID)
	if s.cache != nil {
		var cached SessionDetail
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	detail, err := s.loadDetail(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, detail, sessionCacheTTL)
	}
	return detail, nil
}

func (s *interviewService) GetUnfinishedSession(ctx context.Context, userID string) (*SessionDetail, error) {
	const op = "InterviewService.GetUnfinishedSession"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	sess, err := s.sessions.FindUnfinished(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "no unfinished interview session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to look up unfinished session", err)
	}

	return s.loadDetail(ctx, op, sess.ID)
}

func (s *interviewService) GetNextQuestion(ctx context.Context, sessionID string) (*NextQuestionResult, error) {
	const op = "InterviewService.GetNextQuestion"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	if sess.Status != models.StatusInProgress {
		return nil, utils.E(utils.CodeConflict, op, "session is not in progress", nil)
	}
	if sess.CurrentQuestion >= sess.TotalQuestions {
		return &NextQuestionResult{Completed: true}, nil
	}

	q, err := s.questions.GetByIndex(ctx, sessionID, sess.CurrentQuestion)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "question not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get question", err)
	}

	// reading the next question advances the position; repeated reads move
	// through the bundle
	ok, err := s.sessions.AdvanceCurrentQuestion(ctx, sessionID, sess.CurrentQuestion)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to advance question position", err)
	}
	if !ok {
		return nil, utils.E(utils.CodeConflict, op, "question position advanced concurrently", nil)
	}
	s.invalidate(ctx, sessionID)

	return &NextQuestionResult{Question: q}, nil
}

func (s *interviewService) SubmitAnswer(ctx context.Context, sessionID string, p SubmitAnswerParams) (*models.InterviewAnswer, error) {
	const op = "InterviewService.SubmitAnswer"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	if sess.Status != models.StatusInProgress {
		return nil, utils.E(utils.CodeConflict, op, "answers can only be recorded while the session is in progress", nil)
	}
	if p.QuestionIndex < 0 || p.QuestionIndex >= sess.TotalQuestions {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("question_index must be within [0, %d)", sess.TotalQuestions), nil)
	}

	a := &models.InterviewAnswer{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		QuestionIndex:   p.QuestionIndex,
		AnswerText:      p.AnswerText,
		VideoURL:        p.VideoURL,
		VideoPath:       p.VideoPath,
		DurationSeconds: p.DurationSeconds,
		SubmittedAt:     time.Now().UTC(),
	}
	if err := s.answers.Upsert(ctx, a); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist answer", err)
	}
	s.invalidate(ctx, sessionID)
	return a, nil
}

func (s *interviewService) CompleteSession(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	const op = "InterviewService.CompleteSession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	now := time.Now().UTC()
	var dur int64
	if sess.StartedAt != nil {
		dur = int64(now.Sub(*sess.StartedAt).Seconds())
		if dur < 0 {
			dur = 0
		}
	}

	ok, err := s.sessions.Transition(ctx, sessionID, models.StatusCompleted, map[string]any{
		"completed_at":     now,
		"duration_seconds": dur,
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to complete session", err)
	}
	if !ok {
		return nil, utils.E(utils.CodeConflict, op, "session cannot be completed from its current status", nil)
	}
	s.invalidate(ctx, sessionID)

	// fire-and-forget: completion latency is independent of downstream
	// analysis cost
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.analysis.Notify(nctx, sessionID); err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to enqueue analysis")
		}
	}()

	sess, err = s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to reload session", err)
	}
	return sess, nil
}

func (s *interviewService) CancelSession(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	const op = "InterviewService.CancelSession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	ok, err := s.sessions.Transition(ctx, sessionID, models.StatusCancelled, nil)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to cancel session", err)
	}
	if !ok {
		return nil, utils.E(utils.CodeConflict, op, "cannot cancel a session in a terminal status", nil)
	}
	s.invalidate(ctx, sessionID)

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to reload session", err)
	}
	return sess, nil
}

func (s *interviewService) ListSessions(ctx context.Context, userID string, status models.SessionStatus, page, limit int) ([]models.InterviewSession, int64, error) {
	const op = "InterviewService.ListSessions"

	if userID == "" {
		return nil, 0, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	rows, total, err := s.sessions.ListByUser(ctx, userID, status, page, limit)
	if err != nil {
		return nil, 0, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return rows, total, nil
}

func (s *interviewService) loadDetail(ctx context.Context, op, sessionID string) (*SessionDetail, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	qs, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load questions", err)
	}
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load answers", err)
	}

	return &SessionDetail{Session: sess, Questions: qs, Answers: answers}, nil
}

func (s *interviewService) invalidate(ctx context.Context, sessionID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, sessionCacheKey(sessionID))
	}
}

func sessionCacheKey(sessionID string) string {
	return "interview:session:" + sessionID
}

func optStr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
