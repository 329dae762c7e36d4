package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
	"github.com/noah-isme/tabungan-api/pkg/export"
)

// ExportFormat names a rendering of a class report.
type ExportFormat string

const (
	ExportFormatText ExportFormat = "text"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
)

// ParseExportFormat validates a requested format, defaulting to text.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatText:
		return ExportFormatText, nil
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be one of text, csv, pdf")
	}
}

type classDetailSource interface {
	ClassDetail(ctx context.Context, groupKey string) (*models.ClassReportDetail, error)
	Grouping() ReportGrouping
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	SchoolName string
}

// ExportFile is a rendered report ready to be downloaded or shared.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders class report details as text, CSV or PDF.
type ExportService struct {
	reports   classDetailSource
	renderers map[ExportFormat]datasetRenderer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the pkg/export implementations.
func NewExportService(reports classDetailSource, cfg ExportConfig, logger *zap.Logger, text, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if text == nil {
		text = export.NewTextExporter()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		reports: reports,
		renderers: map[ExportFormat]datasetRenderer{
			ExportFormatText: text,
			ExportFormatCSV:  csv,
			ExportFormatPDF:  pdf,
		},
		logger: logger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var exportContentTypes = map[ExportFormat]string{
	ExportFormatText: "text/plain; charset=utf-8",
	ExportFormatCSV:  "text/csv; charset=utf-8",
	ExportFormatPDF:  "application/pdf",
}

var exportExtensions = map[ExportFormat]string{
	ExportFormatText: "txt",
	ExportFormatCSV:  "csv",
	ExportFormatPDF:  "pdf",
}

// Column headers of the exported student table.
const (
	colName        = "Nama"
	colNIS         = "NIS"
	colClass       = "Kelas"
	colBalance     = "Saldo"
	colDeposits    = "Setoran"
	colWithdrawals = "Penarikan"
)

// Render builds the report of one group and renders it in format.
func (s *ExportService) Render(ctx context.Context, groupKey string, format ExportFormat) (*ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}

	detail, err := s.reports.ClassDetail(ctx, groupKey)
	if err != nil {
		return nil, err
	}

	dataset := s.buildDataset(detail)
	content, err := renderer.Render(dataset)
	if err != nil {
		s.logger.Error("report export failed", zap.String("group", groupKey), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	return &ExportFile{
		Filename:    s.buildFilename(detail.ClassLabel, format),
		ContentType: exportContentTypes[format],
		Content:     content,
	}, nil
}

func (s *ExportService) buildDataset(detail *models.ClassReportDetail) export.Dataset {
	groupLabel := "Kelas " + detail.ClassLabel
	if s.reports.Grouping() == GroupByGrade && len(detail.Classes) > 0 {
		groupLabel = fmt.Sprintf("Kelas %s (%s)", detail.ClassLabel, strings.Join(detail.Classes, ", "))
	}

	title := "Laporan Tabungan " + groupLabel
	if s.cfg.SchoolName != "" {
		title = s.cfg.SchoolName + " - " + title
	}

	rows := make([]map[string]string, 0, len(detail.Students))
	for _, student := range detail.Students {
		rows = append(rows, map[string]string{
			colName:        student.Name,
			colNIS:         student.NIS,
			colClass:       student.ClassLabel,
			colBalance:     export.FormatRupiah(student.Balance),
			colDeposits:    export.FormatRupiah(student.TotalDeposits),
			colWithdrawals: export.FormatRupiah(student.TotalWithdrawals),
		})
	}

	return export.Dataset{
		Title: title,
		Summary: []export.SummaryLine{
			{Label: "Tanggal", Value: s.now().Format("02-01-2006")},
			{Label: "Jumlah Siswa", Value: fmt.Sprintf("%d", detail.TotalStudents)},
			{Label: "Total Saldo", Value: export.FormatRupiah(detail.TotalBalance)},
			{Label: "Total Setoran", Value: export.FormatRupiah(detail.TotalDeposits)},
			{Label: "Total Penarikan", Value: export.FormatRupiah(detail.TotalWithdrawals)},
		},
		Headers: []string{colName, colNIS, colClass, colBalance, colDeposits, colWithdrawals},
		Rows:    rows,
	}
}

func (s *ExportService) buildFilename(groupLabel string, format ExportFormat) string {
	timestamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("laporan_kelas_%s_%s.%s", sanitizeFilename(groupLabel), timestamp, exportExtensions[format])
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
