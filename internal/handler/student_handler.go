package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabungan-api/internal/dto"
	"github.com/noah-isme/tabungan-api/internal/models"
	"github.com/noah-isme/tabungan-api/internal/service"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
	"github.com/noah-isme/tabungan-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	ledger *service.LedgerService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(ledger *service.LedgerService) *StudentHandler {
	return &StudentHandler{ledger: ledger}
}

// List godoc
// @Summary List students
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param search query string false "Search by name or NIS"
// @Param grade query int false "Filter by grade"
// @Param class query string false "Filter by class label"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "name, nis, class, balance or created_at"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.ClassLabel = c.Query("class")
	if grade, err := strconv.Atoi(c.Query("grade")); err == nil {
		filter.Grade = grade
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	students, pagination := h.ledger.ListStudents(filter)
	response.JSON(c, http.StatusOK, students, pagination, map[string]interface{}{"revision": h.ledger.Revision()})
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, ok := h.ledger.GetStudent(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Transactions godoc
// @Summary List a student's transactions, newest first
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/transactions [get]
func (h *StudentHandler) Transactions(c *gin.Context) {
	id := c.Param("id")
	student, ok := h.ledger.GetStudent(id)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))
		return
	}
	txns := h.ledger.TransactionsByStudent(id)
	response.JSON(c, http.StatusOK, txns, nil, map[string]interface{}{"balance": student.Balance})
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.ledger.AddStudent(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student identity fields
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.ledger.UpdateStudent(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student and all its transactions
// @Tags Students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.ledger.DeleteStudent(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
