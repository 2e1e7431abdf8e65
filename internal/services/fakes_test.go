package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/providers/llm"
	"github.com/mockmate/mockmate/internal/providers/tts"
	"github.com/mockmate/mockmate/internal/queue"
	"github.com/mockmate/mockmate/internal/utils"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.InterviewSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.InterviewSession{}}
}

func (r *fakeSessionRepo) put(s *models.InterviewSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
}

func (r *fakeSessionRepo) CreateExclusive(_ context.Context, s *models.InterviewSession) (*models.InterviewSession, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *models.InterviewSession
	for _, row := range r.sessions {
		if row.UserID != s.UserID || row.Status.Terminal() {
			continue
		}
		if latest == nil || row.CreatedAt.After(latest.CreatedAt) {
			latest = row
		}
	}
	if latest != nil {
		cp := *latest
		return &cp, false, nil
	}

	cp := *s
	r.sessions[s.ID] = &cp
	return s, true, nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.sessions[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeSessionRepo) FindUnfinished(_ context.Context, userID string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.InterviewSession
	for _, row := range r.sessions {
		if row.UserID != userID || row.Status.Terminal() {
			continue
		}
		if latest == nil || row.CreatedAt.After(latest.CreatedAt) {
			latest = row
		}
	}
	if latest == nil {
		return nil, utils.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string, status models.SessionStatus, page, limit int) ([]models.InterviewSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var rows []models.InterviewSession
	for _, row := range r.sessions {
		if row.UserID != userID {
			continue
		}
		if status != "" && row.Status != status {
			continue
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	total := int64(len(rows))
	start := (page - 1) * limit
	if start > len(rows) {
		start = len(rows)
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], total, nil
}

func (r *fakeSessionRepo) Transition(_ context.Context, id string, to models.SessionStatus, updates map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.sessions[id]
	if !ok {
		return false, nil
	}
	if !row.Status.CanTransitionTo(to) {
		return false, nil
	}

	row.Status = to
	for k, v := range updates {
		switch k {
		case "completed_at":
			t := v.(time.Time)
			row.CompletedAt = &t
		case "duration_seconds":
			row.DurationSeconds = v.(int64)
		case "total_questions":
			row.TotalQuestions = v.(int)
		case "current_question":
			row.CurrentQuestion = v.(int)
		case "started_at":
			t := v.(time.Time)
			row.StartedAt = &t
		case "prompt":
			s := v.(string)
			row.Prompt = &s
		}
	}
	return true, nil
}

func (r *fakeSessionRepo) AdvanceCurrentQuestion(_ context.Context, id string, from int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.sessions[id]
	if !ok || row.CurrentQuestion != from {
		return false, nil
	}
	row.CurrentQuestion = from + 1
	return true, nil
}

func (r *fakeSessionRepo) SetAnalysisResult(_ context.Context, id string, result datatypes.JSON) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.sessions[id]
	if !ok {
		return utils.ErrNotFound
	}
	row.AnalysisResult = result
	return nil
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type fakeQuestionRepo struct {
	mu         sync.Mutex
	bySession  map[string][]models.InterviewQuestion
	failCreate bool
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{bySession: map[string][]models.InterviewQuestion{}}
}

func (r *fakeQuestionRepo) CreateBatch(_ context.Context, questions []models.InterviewQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("storage down")
	}
	for _, q := range questions {
		r.bySession[q.SessionID] = append(r.bySession[q.SessionID], q)
	}
	return nil
}

func (r *fakeQuestionRepo) ListBySession(_ context.Context, sessionID string) ([]models.InterviewQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.InterviewQuestion(nil), r.bySession[sessionID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

func (r *fakeQuestionRepo) GetByIndex(_ context.Context, sessionID string, index int) (*models.InterviewQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.bySession[sessionID] {
		if q.QuestionIndex == index {
			cp := q
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

type fakeAnswerRepo struct {
	mu        sync.Mutex
	bySession map[string][]models.InterviewAnswer
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{bySession: map[string][]models.InterviewAnswer{}}
}

func (r *fakeAnswerRepo) Upsert(_ context.Context, a *models.InterviewAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.bySession[a.SessionID]
	for i := range rows {
		if rows[i].QuestionIndex == a.QuestionIndex {
			rows[i] = *a
			return nil
		}
	}
	r.bySession[a.SessionID] = append(rows, *a)
	return nil
}

func (r *fakeAnswerRepo) ListBySession(_ context.Context, sessionID string) ([]models.InterviewAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.InterviewAnswer(nil), r.bySession[sessionID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

func (r *fakeAnswerRepo) count(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySession[sessionID])
}

// fakeGenerator returns canned questions; failures counts how many initial
// calls should fail. onGenerate runs inside the call, before returning.
type fakeGenerator struct {
	mu        sync.Mutex
	questions []string
	failures  int
	calls     int
	onGenerate func()
}

func (g *fakeGenerator) GenerateQuestions(_ context.Context, req llm.QuestionRequest) ([]string, string, error) {
	g.mu.Lock()
	g.calls++
	shouldFail := g.calls <= g.failures
	g.mu.Unlock()

	if g.onGenerate != nil {
		g.onGenerate()
	}
	if shouldFail {
		return nil, "", errors.New("upstream unavailable")
	}

	out := g.questions
	if out == nil {
		for i := 0; i < req.Count; i++ {
			out = append(out, fmt.Sprintf("Question %d: can you walk me through it?", i))
		}
	}
	return append([]string(nil), out...), "test prompt", nil
}

func (g *fakeGenerator) GenerateFeedback(context.Context, string) (string, error) {
	return "solid performance overall", nil
}

func (g *fakeGenerator) Close() error { return nil }

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fakeSynth echoes the text back as audio bytes so tests can verify that
// audio landed on the question it was synthesized for.
type fakeSynth struct {
	mu        sync.Mutex
	failTexts map[string]bool
	inFlight  int
	maxSeen   int
	delay     time.Duration
}

func (s *fakeSynth) Synthesize(_ context.Context, text, _ string) (*tts.Result, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	fail := s.failTexts[text]
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if fail {
		return nil, errors.New("synthesis unavailable")
	}
	return &tts.Result{
		Audio:                    []byte("audio:" + text),
		MimeType:                 "audio/mpeg",
		EstimatedDurationSeconds: 7,
	}, nil
}

func (s *fakeSynth) Close() error { return nil }

func (s *fakeSynth) maxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSeen
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string][]byte{}}
}

func (u *fakeUploader) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	u.objects[objectName] = data
	u.mu.Unlock()
	return "mem://" + objectName, nil
}

// fakeBus records status events and analysis notifications.
type fakeBus struct {
	mu       sync.Mutex
	events   []queue.StatusEvent
	notified chan string
}

func newFakeBus() *fakeBus {
	return &fakeBus{notified: make(chan string, 8)}
}

func (b *fakeBus) Notify(_ context.Context, sessionID string) error {
	b.notified <- sessionID
	return nil
}

func (b *fakeBus) PublishStatus(_ context.Context, _ string, ev queue.StatusEvent) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}
