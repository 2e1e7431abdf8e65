package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/providers/llm"
	"github.com/mockmate/mockmate/internal/providers/tts"
	"github.com/mockmate/mockmate/internal/queue"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
	"github.com/mockmate/mockmate/internal/storage"
	"github.com/mockmate/mockmate/internal/utils"
)

const (
	// fan-out limit for per-question speech synthesis; upstream throttles
	// beyond a handful of concurrent requests
	synthesisFanOut = 3

	generationTimeout = 10 * time.Second
	synthesisTimeout  = 8 * time.Second

	upstreamAttempts = 3
	retryBackoffBase = 500 * time.Millisecond
)

// QuestionPipeline builds the question bundle for a freshly created session:
// one text-generation call, then bounded-concurrency speech synthesis, then
// a single transactional write of the bundle.
type QuestionPipeline interface {
	Run(ctx context.Context, session *models.InterviewSession) (*models.InterviewSession, []models.InterviewQuestion, error)
}

type questionPipeline struct {
	sessions  pgrepo.SessionRepository
	questions pgrepo.QuestionRepository
	generator llm.TextGenerator
	synth     tts.SpeechSynthesizer
	uploader  storage.Uploader
	status    queue.StatusPublisher
	log       *logrus.Logger
	voice     string
}

func NewQuestionPipeline(
	sessions pgrepo.SessionRepository,
	questions pgrepo.QuestionRepository,
	generator llm.TextGenerator,
	synth tts.SpeechSynthesizer,
	uploader storage.Uploader,
	status queue.StatusPublisher,
	log *logrus.Logger,
	voice string,
) QuestionPipeline {
	return &questionPipeline{
		sessions:  sessions,
		questions: questions,
		generator: generator,
		synth:     synth,
		uploader:  uploader,
		status:    status,
		log:       log,
		voice:     voice,
	}
}

func (p *questionPipeline) Run(ctx context.Context, session *models.InterviewSession) (*models.InterviewSession, []models.InterviewQuestion, error) {
	const op = "QuestionPipeline.Run"

	req := llm.QuestionRequest{
		JobTarget:                session.JobTarget,
		Count:                    session.TotalQuestions,
		EstimatedDurationMinutes: session.PlannedDuration,
	}
	if session.JobCategory != nil {
		req.JobCategory = *session.JobCategory
	}
	if session.JobSubCategory != nil {
		req.JobSubCategory = *session.JobSubCategory
	}
	if session.Background != nil {
		req.Background = *session.Background
	}

	var (
		texts  []string
		prompt string
	)
	err := withRetry(ctx, upstreamAttempts, retryBackoffBase, func(ctx context.Context) error {
		gctx, cancel := context.WithTimeout(ctx, generationTimeout)
		defer cancel()

		t, pr, err := p.generator.GenerateQuestions(gctx, req)
		if err != nil {
			return err
		}
		texts, prompt = t, pr
		return nil
	})
	if err != nil {
		// generation failure fails the whole creation; the FAILED row is
		// kept for audit
		if _, terr := p.sessions.Transition(ctx, session.ID, models.StatusFailed, nil); terr != nil {
			p.log.WithError(terr).WithField("session_id", session.ID).Error("failed to mark session FAILED")
		}
		p.status.PublishStatus(ctx, session.ID, queue.StatusEvent{
			Type: "generation", Status: "failed", Message: "question generation failed",
		})
		return nil, nil, utils.E(utils.CodeUnavailable, op, "question generation failed", err)
	}

	now := time.Now().UTC()

	// one pre-allocated slot per index: synthesis concurrency can never
	// attach audio to the wrong question
	results := make([]models.InterviewQuestion, len(texts))

	g := new(errgroup.Group)
	g.SetLimit(synthesisFanOut)
	for i, text := range texts {
		g.Go(func() error {
			results[i] = p.synthesizeQuestion(ctx, session.ID, i, text, now)

			idx := i
			status := "ready"
			if results[i].SynthesisStatus == models.SynthesisFailed {
				status = "failed"
			}
			p.status.PublishStatus(ctx, session.ID, queue.StatusEvent{
				Type: "synthesis", Status: status, QuestionIndex: &idx,
			})
			return nil
		})
	}
	_ = g.Wait()

	// a cancel may have landed while the upstream calls were in flight;
	// never resurrect a cancelled session with fresh questions
	cur, err := p.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to re-read session", err)
	}
	if cur.Status != models.StatusPreparing {
		p.log.WithFields(logrus.Fields{
			"session_id": session.ID,
			"status":     cur.Status,
		}).Warn("discarding generated question bundle, session left PREPARING concurrently")
		return cur, nil, nil
	}

	if err := p.questions.CreateBatch(ctx, results); err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to persist question bundle", err)
	}

	ok, err := p.sessions.Transition(ctx, session.ID, models.StatusInProgress, map[string]any{
		"total_questions":  len(results),
		"current_question": 0,
		"started_at":       now,
		"prompt":           prompt,
	})
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to start session", err)
	}
	if !ok {
		// lost the race to a cancel between the re-read and the commit
		cur, err = p.sessions.GetByID(ctx, session.ID)
		if err != nil {
			return nil, nil, utils.E(utils.CodeInternal, op, "failed to re-read session", err)
		}
		return cur, nil, nil
	}

	cur, err = p.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to re-read session", err)
	}

	p.status.PublishStatus(ctx, session.ID, queue.StatusEvent{
		Type: "generation", Status: "ready",
		Message: fmt.Sprintf("%d questions prepared", len(results)),
	})
	return cur, results, nil
}

func (p *questionPipeline) synthesizeQuestion(ctx context.Context, sessionID string, index int, text string, now time.Time) models.InterviewQuestion {
	q := models.InterviewQuestion{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		QuestionIndex:   index,
		QuestionText:    text,
		SynthesisStatus: models.SynthesisPending,
		CreatedAt:       now,
	}

	var res *tts.Result
	err := withRetry(ctx, upstreamAttempts, retryBackoffBase, func(ctx context.Context) error {
		sctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
		defer cancel()

		r, err := p.synth.Synthesize(sctx, text, p.voice)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"session_id":     sessionID,
			"question_index": index,
		}).Warn("speech synthesis failed, question kept without audio")
		q.SynthesisStatus = models.SynthesisFailed
		return q
	}

	object := fmt.Sprintf("interviews/%s/question-%02d.mp3", sessionID, index)
	url, err := p.uploader.Upload(ctx, object, res.MimeType, bytes.NewReader(res.Audio))
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"session_id":     sessionID,
			"question_index": index,
		}).Warn("audio upload failed, question kept without audio")
		q.SynthesisStatus = models.SynthesisFailed
		return q
	}

	q.AudioURL = &url
	q.AudioPath = &object
	q.EstimatedDurationSeconds = res.EstimatedDurationSeconds
	q.SynthesisStatus = models.SynthesisReady
	return q
}

// withRetry runs fn up to attempts times with exponential backoff. A context
// cancellation stops retrying immediately.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff << (attempt - 1)):
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
