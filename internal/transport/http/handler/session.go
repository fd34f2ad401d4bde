package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plabroom/internal/app"
	"plabroom/internal/transport/http/response"
)

type SessionHandler struct {
	sessionService *app.SessionService
}

type CreateSessionRequest struct {
	Role                string `json:"role" binding:"required,oneof=doctor patient observer"`
	TimingType          string `json:"timing_type" binding:"omitempty,oneof=timed untimed"`
	ReadingMinutes      int    `json:"reading_minutes" binding:"omitempty,gt=0,lte=60"`
	ConsultationMinutes int    `json:"consultation_minutes" binding:"omitempty,gt=0,lte=60"`
	FeedbackMinutes     int    `json:"feedback_minutes" binding:"omitempty,gt=0,lte=60"`
}

type JoinSessionRequest struct {
	Role string `json:"role" binding:"required,oneof=doctor patient observer"`
}

type SelectCaseRequest struct {
	CategoryID uint `json:"category_id" binding:"required,gt=0"`
}

func NewSessionHandler(sessionService *app.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	state, err := h.sessionService.CreateSession(c.Request.Context(), app.CreateSessionInput{
		HostID:              userID,
		HostUsername:        getUsernameFromContext(c),
		Role:                req.Role,
		TimingType:          req.TimingType,
		ReadingMinutes:      req.ReadingMinutes,
		ConsultationMinutes: req.ConsultationMinutes,
		FeedbackMinutes:     req.FeedbackMinutes,
	})
	if err != nil {
		h.writeSessionError(c, err, "create session failed")
		return
	}

	response.OK(c, state)
}

func (h *SessionHandler) ListMine(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessions, err := h.sessionService.ListHostedSessions(userID)
	if err != nil {
		h.writeSessionError(c, err, "list sessions failed")
		return
	}

	response.OK(c, sessions)
}

func (h *SessionHandler) Join(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	participant, err := h.sessionService.JoinSession(c.Request.Context(), app.JoinSessionInput{
		Code:     c.Param("code"),
		UserID:   userID,
		Username: getUsernameFromContext(c),
		Role:     req.Role,
	})
	if err != nil {
		h.writeSessionError(c, err, "join session failed")
		return
	}

	response.OK(c, participant)
}

func (h *SessionHandler) Leave(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.sessionService.LeaveSession(c.Request.Context(), c.Param("code"), userID); err != nil {
		h.writeSessionError(c, err, "leave session failed")
		return
	}

	response.OK(c, gin.H{"left": true})
}

func (h *SessionHandler) GetState(c *gin.Context) {
	state, err := h.sessionService.GetState(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeSessionError(c, err, "get session state failed")
		return
	}

	response.OK(c, state)
}

func (h *SessionHandler) SelectCase(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SelectCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	selected, err := h.sessionService.SelectCase(c.Request.Context(), app.SelectCaseInput{
		Code:       c.Param("code"),
		UserID:     userID,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		h.writeSessionError(c, err, "select case failed")
		return
	}

	response.OK(c, selected)
}

func (h *SessionHandler) Start(c *gin.Context) {
	h.runTransition(c, h.sessionService.StartSession, "start session failed")
}

func (h *SessionHandler) Skip(c *gin.Context) {
	h.runTransition(c, h.sessionService.SkipPhase, "skip phase failed")
}

func (h *SessionHandler) CompleteRound(c *gin.Context) {
	h.runTransition(c, h.sessionService.CompleteRound, "complete round failed")
}

func (h *SessionHandler) End(c *gin.Context) {
	h.runTransition(c, h.sessionService.EndSession, "end session failed")
}

func (h *SessionHandler) runTransition(c *gin.Context, fn func(ctx context.Context, code string, userID uint) error, failMsg string) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := fn(c.Request.Context(), c.Param("code"), userID); err != nil {
		h.writeSessionError(c, err, failMsg)
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), c.Param("code"))
	if err != nil {
		// Completing the last case ends the session; the snapshot is gone
		// but the transition itself succeeded.
		if errors.Is(err, app.ErrSessionNotFound) {
			response.OK(c, gin.H{"ok": true})
			return
		}
		h.writeSessionError(c, err, failMsg)
		return
	}

	response.OK(c, state)
}

func (h *SessionHandler) writeSessionError(c *gin.Context, err error, failMsg string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrInvalidRole),
		errors.Is(err, app.ErrNoCaseSelected), errors.Is(err, app.ErrMissingRoles),
		errors.Is(err, app.ErrCategoryEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrSessionEnded):
		response.Error(c, http.StatusGone, response.CodeSessionEnded, err.Error())
	case errors.Is(err, app.ErrRoleTaken):
		response.Error(c, http.StatusConflict, response.CodeRoleTaken, err.Error())
	case errors.Is(err, app.ErrWrongPhase):
		response.Error(c, http.StatusConflict, response.CodeWrongPhase, err.Error())
	case errors.Is(err, app.ErrTopicExhausted):
		response.Error(c, http.StatusConflict, response.CodeTopicExhausted, err.Error())
	case errors.Is(err, app.ErrAllCasesUsed):
		response.Error(c, http.StatusGone, response.CodeAllCasesUsed, err.Error())
	case errors.Is(err, app.ErrNotParticipant), errors.Is(err, app.ErrNotHost),
		errors.Is(err, app.ErrNotAllowed):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, failMsg)
	}
}
