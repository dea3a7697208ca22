package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func sampleCells() []models.TimetableCell {
	return []models.TimetableCell{
		{ClassName: "10A", SubjectCode: "PE", TimeSlotID: "slot-6", TimeSlotName: "Period 6", OrderIndex: 6, DayOfWeek: "friday"},
		{ClassName: "10A", SubjectCode: "MATH", SubjectName: "Mathematics", TimeSlotID: "slot-1", TimeSlotName: "Period 1", OrderIndex: 1, DayOfWeek: "monday", Room: "R1"},
		{ClassName: "10B", SubjectCode: "MATH", TimeSlotID: "slot-1", TimeSlotName: "Period 1", OrderIndex: 1, DayOfWeek: "monday"},
	}
}

func TestTimetableDatasetGrid(t *testing.T) {
	data := TimetableDataset("Timetable 10A", sampleCells(), nil)

	assert.Equal(t, []string{"Period", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "Period 1", data.Rows[0][0])
	assert.Equal(t, "Mathematics (R1) / MATH", data.Rows[0][1])
	assert.Equal(t, "Period 6", data.Rows[1][0])
	assert.Equal(t, "PE", data.Rows[1][5])
}

func TestTimetableDatasetTeacherLabelAndSunday(t *testing.T) {
	cells := []models.TimetableCell{{ClassName: "10A", SubjectCode: "MATH", TimeSlotID: "slot-2", OrderIndex: 2, DayOfWeek: "sunday"}}
	data := TimetableDataset("", cells, TeacherCellLabel)

	assert.Equal(t, "Sunday", data.Headers[len(data.Headers)-1])
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "#2", data.Rows[0][0])
	assert.Equal(t, "10A MATH", data.Rows[0][7])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" Pdf ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{Headers: []string{"Period", "Monday"}, Rows: [][]string{{"Period 1", "Math, advanced"}, {"Period 2"}}})
	require.NoError(t, err)
	assert.Equal(t, "Period,Monday\nPeriod 1,\"Math, advanced\"\nPeriod 2,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(TimetableDataset("Timetable 10A", sampleCells(), nil))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}
