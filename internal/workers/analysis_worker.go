package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/providers/llm"
	"github.com/mockmate/mockmate/internal/queue"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
)

// AnalysisWorkerPool consumes completed-session ids from the analysis stream
// and writes an AI feedback summary back onto the session row. Everything
// here is best-effort and off the request path.
type AnalysisWorkerPool struct {
	Redis      *redis.Client
	Sessions   pgrepo.SessionRepository
	Questions  pgrepo.QuestionRepository
	Answers    pgrepo.AnswerRepository
	LLM        llm.TextGenerator
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Sessions == nil || p.Questions == nil || p.Answers == nil || p.LLM == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Sessions/Questions/Answers/LLM must be set")
	}
	if p.Stream == "" {
		p.Stream = queue.AnalysisStream
	}
	if p.Group == "" {
		p.Group = "analysis-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	sessionID := ""
	if v, ok := msg.Values["session_id"]; ok {
		sessionID, _ = v.(string)
	}
	if sessionID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
	})

	statusCh := queue.StatusChannel(sessionID)

	sess, err := p.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		log.WithError(err).Warn("analysis target session not found")
		return
	}
	if sess.Status != models.StatusCompleted {
		log.WithField("status", sess.Status).Warn("skipping analysis, session not completed")
		return
	}
	if len(sess.AnalysisResult) > 0 {
		return // redelivery of an already analyzed session
	}

	questions, err := p.Questions.ListBySession(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("failed to load questions for analysis")
		return
	}
	answers, err := p.Answers.ListBySession(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("failed to load answers for analysis")
		return
	}

	_ = p.Redis.Publish(ctx, statusCh, `{"type":"analysis","status":"processing"}`).Err()

	transcript := buildTranscript(sess, questions, answers)

	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, 30*time.Second)
	summary, err := p.LLM.GenerateFeedback(actx, transcript)
	cancel()
	if err != nil {
		log.WithError(err).Error("feedback generation failed")
		_ = p.Redis.Publish(ctx, statusCh, `{"type":"analysis","status":"failed"}`).Err()
		return
	}

	result, _ := json.Marshal(map[string]any{
		"summary":            summary,
		"generated_at":       time.Now().UTC().Format(time.RFC3339),
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
	if err := p.Sessions.SetAnalysisResult(ctx, sessionID, datatypes.JSON(result)); err != nil {
		log.WithError(err).Error("failed to store analysis result")
		_ = p.Redis.Publish(ctx, statusCh, `{"type":"analysis","status":"failed"}`).Err()
		return
	}

	log.WithField("processing_time_ms", time.Since(start).Milliseconds()).Info("session analyzed")
	_ = p.Redis.Publish(ctx, statusCh, `{"type":"analysis","status":"done"}`).Err()
}

func buildTranscript(sess *models.InterviewSession, questions []models.InterviewQuestion, answers []models.InterviewAnswer) string {
	byIndex := make(map[int]*models.InterviewAnswer, len(answers))
	for i := range answers {
		byIndex[answers[i].QuestionIndex] = &answers[i]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Position: %s\n", sess.JobTarget)
	if sess.JobCategory != nil {
		fmt.Fprintf(&sb, "Category: %s\n", *sess.JobCategory)
	}
	sb.WriteString("\n")

	for _, q := range questions {
		fmt.Fprintf(&sb, "Q%d: %s\n", q.QuestionIndex+1, q.QuestionText)
		if a, ok := byIndex[q.QuestionIndex]; ok && a.AnswerText != nil {
			fmt.Fprintf(&sb, "A%d: %s\n", q.QuestionIndex+1, *a.AnswerText)
		} else {
			fmt.Fprintf(&sb, "A%d: (no answer recorded)\n", q.QuestionIndex+1)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
