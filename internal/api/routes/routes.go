package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mockmate/mockmate/internal/api/handlers"
	"github.com/mockmate/mockmate/internal/api/middleware"
)

type Deps struct {
	Interview *handlers.InterviewHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/interview/session", d.Interview.Create)
	auth.GET("/interview/session/unfinished", d.Interview.GetUnfinished)
	auth.GET("/interview/session/:session_id", d.Interview.Get)
	auth.GET("/interview/session/:session_id/next", d.Interview.NextQuestion)
	auth.POST("/interview/session/:session_id/answer", d.Interview.SubmitAnswer)
	auth.POST("/interview/session/:session_id/complete", d.Interview.Complete)
	auth.POST("/interview/session/:session_id/cancel", d.Interview.Cancel)
	auth.GET("/interview/sessions", d.Interview.List)

	// WebSocket (session progress events)
	auth.GET("/ws/interview/:session_id", d.WS.SessionWS)
}
