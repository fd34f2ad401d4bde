package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"plabroom/internal/app"
	"plabroom/internal/repository"
	"plabroom/internal/transport/http/response"
)

// CaseBankHandler serves the case and category CRUD surface. Reads are
// open to any authenticated user; mutations sit behind the admin group.
type CaseBankHandler struct {
	caseService *app.CaseService
}

type CaseRequest struct {
	CategoryID   uint   `json:"category_id" binding:"omitempty,gt=0"`
	Title        string `json:"title" binding:"omitempty,max=255"`
	DoctorNotes  string `json:"doctor_notes"`
	PatientNotes string `json:"patient_notes"`
	MarkingNotes string `json:"marking_notes"`
	RecallDate   string `json:"recall_date" binding:"omitempty,datetime=2006-01-02"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"omitempty,max=128"`
	Description string `json:"description" binding:"omitempty,max=512"`
}

func NewCaseBankHandler(caseService *app.CaseService) *CaseBankHandler {
	return &CaseBankHandler{caseService: caseService}
}

func (h *CaseBankHandler) CreateCase(c *gin.Context) {
	var req CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	input, err := caseInput(req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid recall date")
		return
	}

	created, err := h.caseService.CreateCase(input)
	if err != nil {
		h.writeCaseError(c, err, "create case failed")
		return
	}
	response.OK(c, created)
}

func (h *CaseBankHandler) GetCase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	found, err := h.caseService.GetCase(id)
	if err != nil {
		h.writeCaseError(c, err, "get case failed")
		return
	}
	response.OK(c, found)
}

func (h *CaseBankHandler) ListCases(c *gin.Context) {
	var filter repository.CaseFilter

	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid category_id")
			return
		}
		filter.CategoryID = uint(id)
	}
	if raw := c.Query("recall_after"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid recall_after")
			return
		}
		filter.RecallAfter = &t
	}
	if raw := c.Query("recall_before"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid recall_before")
			return
		}
		filter.RecallBefore = &t
	}

	cases, err := h.caseService.ListCases(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list cases failed")
		return
	}
	response.OK(c, cases)
}

func (h *CaseBankHandler) UpdateCase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	input, err := caseInput(req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid recall date")
		return
	}

	updated, err := h.caseService.UpdateCase(id, input)
	if err != nil {
		h.writeCaseError(c, err, "update case failed")
		return
	}
	response.OK(c, updated)
}

func (h *CaseBankHandler) DeleteCase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.caseService.DeleteCase(id); err != nil {
		h.writeCaseError(c, err, "delete case failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *CaseBankHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	created, err := h.caseService.CreateCategory(app.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeCaseError(c, err, "create category failed")
		return
	}
	response.OK(c, created)
}

func (h *CaseBankHandler) ListCategories(c *gin.Context) {
	categories, err := h.caseService.ListCategories()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list categories failed")
		return
	}
	response.OK(c, categories)
}

func (h *CaseBankHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	updated, err := h.caseService.UpdateCategory(id, app.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeCaseError(c, err, "update category failed")
		return
	}
	response.OK(c, updated)
}

func (h *CaseBankHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.caseService.DeleteCategory(id); err != nil {
		h.writeCaseError(c, err, "delete category failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *CaseBankHandler) writeCaseError(c *gin.Context, err error, failMsg string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrCaseNotFound):
		response.Error(c, http.StatusNotFound, response.CodeCaseNotFound, err.Error())
	case errors.Is(err, app.ErrCategoryNotFound):
		response.Error(c, http.StatusNotFound, response.CodeCategoryNotFound, err.Error())
	case errors.Is(err, app.ErrCategoryExists), errors.Is(err, app.ErrCategoryInUse):
		response.Error(c, http.StatusConflict, response.CodeBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, failMsg)
	}
}

func caseInput(req CaseRequest) (app.CaseInput, error) {
	input := app.CaseInput{
		CategoryID:   req.CategoryID,
		Title:        req.Title,
		DoctorNotes:  req.DoctorNotes,
		PatientNotes: req.PatientNotes,
		MarkingNotes: req.MarkingNotes,
	}
	if req.RecallDate != "" {
		t, err := time.Parse("2006-01-02", req.RecallDate)
		if err != nil {
			return input, err
		}
		input.RecallDate = &t
	}
	return input, nil
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}
