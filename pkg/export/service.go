// Package export builds spreadsheet reports of saved recommendation sets.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/fraatlas/backend/pkg/domain"
	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/logger"
	"github.com/fraatlas/backend/pkg/metrics"
	"github.com/fraatlas/backend/pkg/models"
)

const (
	sheetRecommendations = "Recommendations"
	sheetSummary         = "Summary"
)

// Source supplies the claims and their latest recommendation sets
type Source interface {
	ListPendingClaims(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error)
	LatestRecommendations(ctx context.Context, claimID string) (*dss.Result, error)
}

// Row is one recommended scheme for one claim
type Row struct {
	Claim          models.Claim
	Recommendation dss.Recommendation
	GeneratedAt    time.Time
}

// Report collects the rows of an export
type Report struct {
	District    string
	State       string
	Rows        []Row
	Claims      int
	WithoutSet  int
	HighCount   int
	GeneratedAt time.Time
}

// Service handles report generation
type Service struct {
	source      Source
	storagePath string
	logger      logger.Logger
	metrics     *metrics.Metrics
}

// NewService creates a new export service writing files under storagePath
func NewService(source Source, storagePath string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		source:      source,
		storagePath: storagePath,
		logger:      log.With("component", "export"),
	}
}

// WithMetrics counts exported reports
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Build collects the latest recommendation sets of pending claims matching
// the filter. Claims without a saved set are counted, not listed.
func (s *Service) Build(ctx context.Context, filter models.ClaimFilter) (*Report, error) {
	claims, err := s.source.ListPendingClaims(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &Report{
		District:    filter.District,
		State:       filter.State,
		Claims:      len(claims),
		GeneratedAt: time.Now().UTC(),
	}

	for _, claim := range claims {
		result, err := s.source.LatestRecommendations(ctx, claim.ID)
		if domain.IsNotFound(err) {
			report.WithoutSet++
			continue
		}
		if err != nil {
			return nil, err
		}

		report.HighCount += result.HighPriorityCount
		for _, rec := range result.Recommendations {
			report.Rows = append(report.Rows, Row{
				Claim:          claim,
				Recommendation: rec,
				GeneratedAt:    result.GeneratedAt,
			})
		}
	}

	s.logger.Info("report built",
		"district", filter.District,
		"state", filter.State,
		"claims", report.Claims,
		"rows", len(report.Rows),
		"without_set", report.WithoutSet,
	)
	return report, nil
}

// WriteExcel writes the report as an xlsx workbook
func (s *Service) WriteExcel(w io.Writer, report *Report) error {
	f, err := s.workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.metrics.RecordReportExported()
	return nil
}

// SaveExcel builds a report and saves it under the storage path,
// returning the file path
func (s *Service) SaveExcel(ctx context.Context, filter models.ClaimFilter) (string, error) {
	report, err := s.Build(ctx, filter)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.storagePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(s.storagePath, FileName(report))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := s.WriteExcel(f, report); err != nil {
		return "", err
	}
	return path, nil
}

// FileName is the download name of a report. The scope is reduced to
// [a-z0-9-] so it is safe both as a path element and in a header.
func FileName(report *Report) string {
	scope := report.District
	if scope == "" {
		scope = report.State
	}
	return fmt.Sprintf("dss-recommendations-%s-%s.xlsx", slug(scope), report.GeneratedAt.Format("20060102-150405"))
}

// slug folds accents, lowercases and turns every other run of characters
// into a single dash
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(strings.ToLower(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		case unicode.Is(unicode.Mn, r):
			// combining accent left over from NFKD
		default:
			dash = true
		}
	}
	if b.Len() == 0 {
		return "all"
	}
	return b.String()
}

var headers = []string{
	"Claim ID", "Village", "District", "State", "Claim Type", "Area (ha)",
	"Scheme", "Category", "Relevance", "Priority", "Eligible", "Reasoning", "Generated At",
}

func (s *Service) workbook(report *Report) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetRecommendations)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetRecommendations, cell, header)
		f.SetCellStyle(sheetRecommendations, cell, cell, headerStyle)
	}

	for i, row := range report.Rows {
		values := []interface{}{
			row.Claim.ID,
			row.Claim.VillageName,
			row.Claim.District,
			row.Claim.State,
			string(row.Claim.ClaimType),
			row.Claim.AreaHectares,
			row.Recommendation.Scheme.Name,
			string(row.Recommendation.Scheme.Category),
			row.Recommendation.RelevanceScore,
			string(row.Recommendation.Priority),
			row.Recommendation.EligibilityMatch,
			row.Recommendation.Reasoning,
			row.GeneratedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetRecommendations, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetRecommendations, col, col, 15)
	}
	f.SetColWidth(sheetRecommendations, "L", "L", 60)

	summary := [][]interface{}{
		{"District", report.District},
		{"State", report.State},
		{"Pending claims", report.Claims},
		{"Claims without recommendations", report.WithoutSet},
		{"Recommended schemes", len(report.Rows)},
		{"High priority", report.HighCount},
		{"Engine version", dss.EngineVersion},
		{"Generated at", report.GeneratedAt.Format(time.RFC3339)},
	}
	for i, values := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}
	f.SetColWidth(sheetSummary, "A", "A", 32)

	f.SetActiveSheet(index)
	return f, nil
}
