package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"plabroom/internal/app"
	"plabroom/internal/transport/http/response"
)

type FeedbackHandler struct {
	feedbackService *app.FeedbackService
}

type SubmitFeedbackRequest struct {
	RecipientID   uint   `json:"recipient_id" binding:"required,gt=0"`
	DataGathering int    `json:"data_gathering" binding:"min=0,max=4"`
	Management    int    `json:"management" binding:"min=0,max=4"`
	Interpersonal int    `json:"interpersonal" binding:"min=0,max=4"`
	Comment       string `json:"comment" binding:"omitempty,max=2000"`
	ClientKey     string `json:"client_key" binding:"omitempty,max=36"`
}

func NewFeedbackHandler(feedbackService *app.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	submitted, err := h.feedbackService.SubmitFeedback(c.Request.Context(), app.SubmitFeedbackInput{
		Code:          c.Param("code"),
		AuthorID:      userID,
		RecipientID:   req.RecipientID,
		DataGathering: req.DataGathering,
		Management:    req.Management,
		Interpersonal: req.Interpersonal,
		Comment:       req.Comment,
		ClientKey:     req.ClientKey,
	})
	if err != nil {
		h.writeFeedbackError(c, err, "submit feedback failed")
		return
	}

	response.OK(c, submitted)
}

func (h *FeedbackHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	round := 0
	if raw := c.Query("round"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid round")
			return
		}
		round = parsed
	}

	feedbacks, err := h.feedbackService.ListFeedback(c.Param("code"), userID, round)
	if err != nil {
		h.writeFeedbackError(c, err, "list feedback failed")
		return
	}

	response.OK(c, feedbacks)
}

func (h *FeedbackHandler) writeFeedbackError(c *gin.Context, err error, failMsg string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrScoreOutOfRange),
		errors.Is(err, app.ErrSelfFeedback), errors.Is(err, app.ErrNoCaseSelected):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrNotParticipant):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrFeedbackEnqueue):
		response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, failMsg)
	}
}
