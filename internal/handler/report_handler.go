package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabungan-api/internal/service"
	"github.com/noah-isme/tabungan-api/pkg/response"
)

// ReportHandler serves class reports and their exports.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Classes godoc
// @Summary Class savings reports
// @Description Totals per grade or per class, depending on configuration
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/classes [get]
func (h *ReportHandler) Classes(c *gin.Context) {
	list, err := h.reports.ClassReports(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Reports, nil, map[string]interface{}{
		"revision": list.Revision,
		"grouping": list.Grouping,
	})
}

// ClassDetail godoc
// @Summary Class report with per-student rows
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param key path string true "Grade number or class label"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/classes/{key} [get]
func (h *ReportHandler) ClassDetail(c *gin.Context) {
	detail, err := h.reports.ClassDetail(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Export godoc
// @Summary Export a class report
// @Tags Reports
// @Security BearerAuth
// @Produce plain
// @Produce text/csv
// @Produce application/pdf
// @Param key path string true "Grade number or class label"
// @Param format query string false "text, csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/classes/{key}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Render(c.Request.Context(), c.Param("key"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
