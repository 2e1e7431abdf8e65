package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/services"
	"github.com/mockmate/mockmate/internal/utils"
)

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

type CreateSessionRequest struct {
	JobTarget      string `json:"job_target" binding:"required"`
	JobCategory    string `json:"job_category"`
	JobSubCategory string `json:"job_sub_category"`
	Background     string `json:"background"`
	QuestionCount  *int   `json:"question_count"`
}

func (h *InterviewHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Create", "invalid request body", err))
		return
	}

	out, err := h.svc.CreateSession(c.Request.Context(), services.CreateSessionParams{
		UserID:         userID,
		JobTarget:      req.JobTarget,
		JobCategory:    req.JobCategory,
		JobSubCategory: req.JobSubCategory,
		Background:     req.Background,
		QuestionCount:  req.QuestionCount,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	detail, err := h.svc.GetSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if detail.Session.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "InterviewHandler.Get", "forbidden", nil))
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *InterviewHandler) GetUnfinished(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	detail, err := h.svc.GetUnfinishedSession(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *InterviewHandler) NextQuestion(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if !h.authorize(c, sessionID, userID, "InterviewHandler.NextQuestion") {
		return
	}

	out, err := h.svc.GetNextQuestion(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

type SubmitAnswerRequest struct {
	QuestionIndex   *int    `json:"question_index" binding:"required"`
	AnswerText      *string `json:"answer_text"`
	VideoURL        *string `json:"video_url"`
	VideoPath       *string `json:"video_path"`
	DurationSeconds int     `json:"duration_seconds"`
}

func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if !h.authorize(c, sessionID, userID, "InterviewHandler.SubmitAnswer") {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.SubmitAnswer", "invalid request body", err))
		return
	}

	a, err := h.svc.SubmitAnswer(c.Request.Context(), sessionID, services.SubmitAnswerParams{
		QuestionIndex:   *req.QuestionIndex,
		AnswerText:      req.AnswerText,
		VideoURL:        req.VideoURL,
		VideoPath:       req.VideoPath,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *InterviewHandler) Complete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if !h.authorize(c, sessionID, userID, "InterviewHandler.Complete") {
		return
	}

	sess, err := h.svc.CompleteSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *InterviewHandler) Cancel(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if !h.authorize(c, sessionID, userID, "InterviewHandler.Cancel") {
		return
	}

	sess, err := h.svc.CancelSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

type ListSessionsResponse struct {
	Sessions []models.InterviewSession `json:"sessions"`
	Total    int64                     `json:"total"`
	Page     int                       `json:"page"`
	Limit    int                       `json:"limit"`
}

func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	status := models.SessionStatus(c.Query("status"))

	rows, total, err := h.svc.ListSessions(c.Request.Context(), userID, status, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListSessionsResponse{
		Sessions: rows,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// authorize checks session ownership before any mutating call.
func (h *InterviewHandler) authorize(c *gin.Context, sessionID, userID, op string) bool {
	detail, err := h.svc.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return false
	}
	if detail.Session.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, op, "forbidden", nil))
		return false
	}
	return true
}
