package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"todolist/internal/logger"
	"todolist/internal/models/todo"
	"todolist/internal/repository"
)

// ReportService turns the filtered todo set into a spreadsheet artifact
// or a JSON preview. It never filters on its own: the Filter decides.
type ReportService struct {
	repo repository.TodoRepository
}

func NewReportService(repo repository.TodoRepository) *ReportService {
	return &ReportService{repo: repo}
}

// ReportRow is one rendered line of the report, shared by export and
// preview so the two surfaces cannot drift apart.
type ReportRow struct {
	Title       string `json:"title"`
	Assignee    string `json:"assigne"`
	DueDate     string `json:"due_date"`
	TimeTracked int    `json:"time_tracked"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

type ReportSummary struct {
	TotalRecords     int `json:"total_records"`
	TotalTimeTracked int `json:"total_time_tracked"`
}

type Preview struct {
	Todos   []ReportRow   `json:"todos"`
	Summary ReportSummary `json:"summary"`
}

var reportHeaders = []string{"Title", "Assignee", "Due Date", "Time Tracked", "Status", "Priority"}

const (
	reportSheet   = "TodoList Report"
	maxColWidth   = 50
	headerFill    = "E2E8F0"
	summaryFill   = "FEF3C7"
	summaryGap    = 2 // blank rows between data and summary
	reportColumns = 6
)

func (s *ReportService) rows(ctx context.Context, f todo.Filter) ([]ReportRow, int, error) {
	todos, err := s.repo.ListFiltered(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]ReportRow, len(todos))
	total := 0
	for i, t := range todos {
		rows[i] = renderRow(t)
		total += t.TimeTracked
	}
	return rows, total, nil
}

func renderRow(t *todo.Todo) ReportRow {
	row := ReportRow{
		Title:       t.Title,
		Assignee:    "-",
		DueDate:     "-",
		TimeTracked: t.TimeTracked,
		Status:      todo.FormatEnum(string(t.Status)),
	}
	if t.Assignee != "" {
		row.Assignee = t.Assignee
	}
	if !t.DueDate.IsZero() {
		row.DueDate = t.DueDate.Format("2006-01-02")
	}
	if t.Priority != nil {
		row.Priority = todo.FormatEnum(string(*t.Priority))
	}
	return row
}

// Preview returns the same rows the export would contain, JSON-shaped.
func (s *ReportService) Preview(ctx context.Context, f todo.Filter) (*Preview, error) {
	rows, total, err := s.rows(ctx, f)
	if err != nil {
		logger.Error("Service: preview failed", err)
		return nil, NewPersistenceError("An error occurred while retrieving preview data", err)
	}

	return &Preview{
		Todos: rows,
		Summary: ReportSummary{
			TotalRecords:     len(rows),
			TotalTimeTracked: total,
		},
	}, nil
}

// ExportExcel builds the xlsx workbook: header row, one row per todo
// ordered by due date, two blank rows, then a styled summary row. Every
// cell in that rectangle carries a thin border; columns auto-size capped
// at 50. Zero matching rows still produce header + summary.
func (s *ReportService) ExportExcel(ctx context.Context, f todo.Filter) ([]byte, error) {
	rows, total, err := s.rows(ctx, f)
	if err != nil {
		logger.Error("Service: export failed", err)
		return nil, NewPersistenceError("An error occurred while generating the report", err)
	}

	book, err := s.buildWorkbook(rows, total)
	if err != nil {
		logger.Error("Service: workbook build failed", err)
		return nil, NewPersistenceError("An error occurred while generating the report", err)
	}
	defer book.Close()

	buf, err := book.WriteToBuffer()
	if err != nil {
		logger.Error("Service: workbook write failed", err)
		return nil, NewPersistenceError("An error occurred while generating the report", err)
	}
	return buf.Bytes(), nil
}

func (s *ReportService) buildWorkbook(rows []ReportRow, totalTimeTracked int) (*excelize.File, error) {
	book := excelize.NewFile()
	if err := book.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}

	header := make([]any, len(reportHeaders))
	for i, h := range reportHeaders {
		header[i] = h
	}
	if err := book.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{row.Title, row.Assignee, row.DueDate, row.TimeTracked, row.Status, row.Priority}
		if err := book.SetSheetRow(reportSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	summaryRow := 1 + len(rows) + summaryGap + 1
	summary := map[int]string{
		1: "SUMMARY",
		3: "Total Time Tracked:",
		4: fmt.Sprintf("%d hours", totalTimeTracked),
	}
	for col, value := range summary {
		cell, _ := excelize.CoordinatesToCellName(col, summaryRow)
		if err := book.SetCellValue(reportSheet, cell, value); err != nil {
			return nil, err
		}
	}

	if err := s.styleWorkbook(book, rows, summary, summaryRow); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *ReportService) styleWorkbook(book *excelize.File, rows []ReportRow, summary map[int]string, summaryRow int) error {
	thin := []excelize.Border{
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
	}

	borderStyle, err := book.NewStyle(&excelize.Style{Border: thin})
	if err != nil {
		return err
	}
	headerStyle, err := book.NewStyle(&excelize.Style{
		Border: thin,
		Font:   &excelize.Font{Bold: true, Size: 12},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}
	summaryStyle, err := book.NewStyle(&excelize.Style{
		Border: thin,
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{summaryFill}},
	})
	if err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(reportColumns)

	bodyEnd := fmt.Sprintf("%s%d", lastCol, summaryRow-1)
	if err := book.SetCellStyle(reportSheet, "A2", bodyEnd, borderStyle); err != nil {
		return err
	}
	if err := book.SetCellStyle(reportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	summaryStart := fmt.Sprintf("A%d", summaryRow)
	summaryEnd := fmt.Sprintf("%s%d", lastCol, summaryRow)
	if err := book.SetCellStyle(reportSheet, summaryStart, summaryEnd, summaryStyle); err != nil {
		return err
	}

	// auto-size from the longest rendered value per column
	for col := 1; col <= reportColumns; col++ {
		width := len(reportHeaders[col-1])
		for _, row := range rows {
			if l := len(cellText(row, col)); l > width {
				width = l
			}
		}
		if l := len(summary[col]); l > width {
			width = l
		}
		name, _ := excelize.ColumnNumberToName(col)
		w := float64(width + 2)
		if w > maxColWidth {
			w = maxColWidth
		}
		if err := book.SetColWidth(reportSheet, name, name, w); err != nil {
			return err
		}
	}
	return nil
}

func cellText(row ReportRow, col int) string {
	switch col {
	case 1:
		return row.Title
	case 2:
		return row.Assignee
	case 3:
		return row.DueDate
	case 4:
		return strconv.Itoa(row.TimeTracked)
	case 5:
		return row.Status
	default:
		return row.Priority
	}
}

// ExportFilename stamps the download name with the export timestamp.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("todolist_report_%s_%s.xlsx",
		now.Format("2006-01-02"),
		now.Format("15_04_05"))
}
