package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mockmate/mockmate/config"
	"github.com/mockmate/mockmate/internal/api/handlers"
	"github.com/mockmate/mockmate/internal/api/middleware"
	"github.com/mockmate/mockmate/internal/api/routes"
	"github.com/mockmate/mockmate/internal/cache"
	"github.com/mockmate/mockmate/internal/logger"
	"github.com/mockmate/mockmate/internal/providers/llm"
	"github.com/mockmate/mockmate/internal/providers/tts"
	"github.com/mockmate/mockmate/internal/queue"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
	"github.com/mockmate/mockmate/internal/services"
	"github.com/mockmate/mockmate/internal/storage"
	"github.com/mockmate/mockmate/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()
	ctx := context.Background()

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	// AI providers
	generator, err := llm.NewVertexGemini(ctx,
		os.Getenv("VERTEX_PROJECT_ID"),
		os.Getenv("VERTEX_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
	)
	if err != nil {
		log.Fatalf("Vertex init error: %v", err)
	}
	defer generator.Close()

	synth, err := tts.NewGoogleTTS(ctx, os.Getenv("TTS_LANGUAGE"))
	if err != nil {
		log.Fatalf("TTS init error: %v", err)
	}
	defer synth.Close()

	bucket := os.Getenv("GCS_AUDIO_BUCKET")
	if bucket == "" {
		log.Fatalf("GCS_AUDIO_BUCKET is not set")
	}
	uploader, err := storage.NewGCSUploader(ctx, bucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}
	defer uploader.Close()

	// Repositories and services
	sessionRepo := pgrepo.NewSessionRepo(config.PostgresDB)
	questionRepo := pgrepo.NewQuestionRepo(config.PostgresDB)
	answerRepo := pgrepo.NewAnswerRepo(config.PostgresDB)

	bus := queue.NewRedisBus(config.RedisClient)
	sessionCache := cache.NewRedisCache(config.RedisClient)

	pipeline := services.NewQuestionPipeline(
		sessionRepo, questionRepo,
		generator, synth, uploader,
		bus, l,
		os.Getenv("TTS_VOICE"),
	)
	interviewSvc := services.NewInterviewService(
		sessionRepo, questionRepo, answerRepo,
		pipeline, bus, sessionCache, l,
	)

	// Analysis worker pool
	pool := &workers.AnalysisWorkerPool{
		Redis:     config.RedisClient,
		Sessions:  sessionRepo,
		Questions: questionRepo,
		Answers:   answerRepo,
		LLM:       generator,
		Logger:    l,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("analysis worker init error: %v", err)
	}

	// Start Gin server
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Interview: handlers.NewInterviewHandler(interviewSvc),
		WS:        handlers.NewWSHandler(interviewSvc, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
