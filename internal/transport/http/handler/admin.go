package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plabroom/internal/app"
	"plabroom/internal/transport/http/response"
)

type AdminHandler struct {
	adminService *app.AdminService
}

type UpdateUserFlagsRequest struct {
	IsAdmin *bool `json:"is_admin"`
	Active  *bool `json:"active"`
}

func NewAdminHandler(adminService *app.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list users failed")
		return
	}

	payload := make([]gin.H, 0, len(users))
	for i := range users {
		payload = append(payload, userPayload(&users[i]))
	}
	response.OK(c, payload)
}

func (h *AdminHandler) UpdateUserFlags(c *gin.Context) {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	userID, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateUserFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if req.IsAdmin == nil && req.Active == nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "nothing to update")
		return
	}

	user, err := h.adminService.UpdateUserFlags(actorID, userID, app.UpdateUserFlagsInput{
		IsAdmin: req.IsAdmin,
		Active:  req.Active,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update user failed")
		}
		return
	}

	response.OK(c, userPayload(user))
}
