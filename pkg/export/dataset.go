package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Format is a supported export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" or "pdf" in any case; empty defaults to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Dataset is a titled grid: one header row and rows of equal width.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// TimetableDataset lays lessons out as periods (rows) by weekdays (columns).
// Sunday only gets a column when a lesson falls on it.
func TimetableDataset(title string, cells []models.TimetableCell, label func(models.TimetableCell) string) Dataset {
	if label == nil {
		label = ClassCellLabel
	}

	days := models.SchoolDays()
	for _, cell := range cells {
		if models.ParseDayOfWeek(cell.DayOfWeek) == models.Sunday {
			days = append(days, models.Sunday)
			break
		}
	}
	column := make(map[models.DayOfWeek]int, len(days))
	headers := []string{"Period"}
	for i, day := range days {
		column[day] = i + 1
		name := day.Name()
		headers = append(headers, strings.ToUpper(name[:1])+name[1:])
	}

	type period struct {
		order int
		name  string
	}
	periods := map[string]period{}
	grid := map[string][]string{}
	for _, cell := range cells {
		col, ok := column[models.ParseDayOfWeek(cell.DayOfWeek)]
		if !ok {
			continue
		}
		if _, seen := periods[cell.TimeSlotID]; !seen {
			periods[cell.TimeSlotID] = period{order: cell.OrderIndex, name: cell.TimeSlotName}
			grid[cell.TimeSlotID] = make([]string, len(headers))
		}
		row := grid[cell.TimeSlotID]
		if row[col] != "" {
			row[col] += " / "
		}
		row[col] += label(cell)
	}

	slotIDs := make([]string, 0, len(periods))
	for id := range periods {
		slotIDs = append(slotIDs, id)
	}
	sort.Slice(slotIDs, func(i, j int) bool {
		if periods[slotIDs[i]].order != periods[slotIDs[j]].order {
			return periods[slotIDs[i]].order < periods[slotIDs[j]].order
		}
		return slotIDs[i] < slotIDs[j]
	})

	rows := make([][]string, 0, len(slotIDs))
	for _, id := range slotIDs {
		row := grid[id]
		row[0] = periods[id].name
		if row[0] == "" {
			row[0] = fmt.Sprintf("#%d", periods[id].order)
		}
		rows = append(rows, row)
	}
	return Dataset{Title: title, Headers: headers, Rows: rows}
}

// ClassCellLabel shows the subject and room of a lesson.
func ClassCellLabel(cell models.TimetableCell) string {
	label := cell.SubjectCode
	if cell.SubjectName != "" {
		label = cell.SubjectName
	}
	if cell.Room != "" {
		label += " (" + cell.Room + ")"
	}
	return label
}

// TeacherCellLabel shows the class and subject of a lesson.
func TeacherCellLabel(cell models.TimetableCell) string {
	return cell.ClassName + " " + cell.SubjectCode
}
