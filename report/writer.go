package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/xuri/excelize/v2"

	"github.com/zombar/seoaudit"
	"github.com/zombar/seoaudit/models"
)

const (
	filePrefix      = "seo_analysis_"
	timestampLayout = "20060102_150405"

	shortIDLen = 8

	resultsSheet = "Results"
	summarySheet = "Summary"
)

// FileName returns the report file name for a timestamped run and extension
func FileName(report *models.BatchReport, ext string) string {
	return filePrefix + report.Timestamp.Format(timestampLayout) + "." + ext
}

// reportPath returns a path in dir that no earlier report occupies. A run
// finishing within the same second as another gets its short run id appended.
func reportPath(dir string, report *models.BatchReport, ext string) string {
	name := FileName(report, ext)
	path := filepath.Join(dir, name)
	if !exists(path) {
		return path
	}

	stem := strings.TrimSuffix(name, "."+ext)
	if id := shortID(report.RunID); id != "" {
		stem += "_" + id
		path = filepath.Join(dir, stem+"."+ext)
	}
	for n := 2; exists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.%s", stem, n, ext))
	}
	return path
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteJSON writes the report to {dir}/seo_analysis_YYYYMMDD_HHMMSS.json and returns the path
func WriteJSON(dir string, report *models.BatchReport) (string, error) {
	data, err := models.MarshalIndentJSON(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := reportPath(dir, report, "json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

var resultColumns = []string{"Content ID", "Title", "Category", "Score", "Grade", "Critical", "Important", "Moderate", "Minor", "Keywords", "Top Suggestion", "HTML File"}

// WriteXLSX writes the results and summary sheets to {dir}/seo_analysis_YYYYMMDD_HHMMSS.xlsx
func WriteXLSX(dir string, report *models.BatchReport) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2980B9"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range resultColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(resultsSheet, cell, col)
		f.SetCellStyle(resultsSheet, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(col) + 5)
		if width < 12 {
			width = 12
		}
		f.SetColWidth(resultsSheet, colName, colName, width)
	}

	for rowIdx, r := range report.ContentResults {
		topSuggestion := ""
		if len(r.Suggestions) > 0 {
			topSuggestion = r.Suggestions[0].Text
		}
		row := []any{
			r.ContentID,
			r.Title,
			r.Category,
			r.SEOScore,
			r.Grade,
			len(r.Issues.Critical),
			len(r.Issues.Important),
			len(r.Issues.Moderate),
			len(r.Issues.Minor),
			strings.Join(r.Keywords, ", "),
			topSuggestion,
			r.HTMLFile,
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	for i, row := range summaryRows(report) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := reportPath(dir, report, "xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

func summaryRows(report *models.BatchReport) [][]any {
	rows := [][]any{
		{"Run ID", report.RunID},
		{"Timestamp", report.Timestamp.Format("2006-01-02 15:04:05")},
		{"Total content", report.TotalContent},
		{"Processed", report.Processed},
		{"Failed", report.Failed},
		{"Average score", fmt.Sprintf("%.1f", report.AverageScore)},
		{"Highest score", report.HighestScore},
		{"Lowest score", report.LowestScore},
	}
	for _, g := range seoaudit.Grades {
		rows = append(rows, []any{"Grade " + g, report.GradeDistribution[g]})
	}
	return rows
}

// RenderSummary writes the run statistics and grade distribution as a table
func RenderSummary(w io.Writer, report *models.BatchReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("SEO analysis summary")

	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, row := range summaryRows(report) {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}

// RenderResults writes one row per record, at most limit rows when limit is positive
func RenderResults(w io.Writer, report *models.BatchReport, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Title", "Score", "Grade", "Issues"})
	for i, r := range report.ContentResults {
		if limit > 0 && i >= limit {
			break
		}
		t.AppendRow(table.Row{r.ContentID, seoaudit.Truncate(r.Title, 50), r.SEOScore, r.Grade, r.Issues.Count()})
	}

	t.Render()
}
