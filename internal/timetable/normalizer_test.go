package timetable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestExpandTemplates(t *testing.T) {
	classes := []models.Class{
		{ID: "class-10a", GradeLevelID: "grade-10"},
		{ID: "class-11a", GradeLevelID: "grade-11"},
		{ID: "combined-11", GradeLevelID: "grade-11", IsCombined: true},
	}
	templates := []models.CurriculumAssignment{
		{SubjectID: "math", WeeklyPeriods: 4, Type: models.CurriculumMandatory},
		{SubjectID: "phys", GradeLevelID: strPtr("grade-11"), WeeklyPeriods: 3, Type: models.CurriculumMandatory},
		{SubjectID: "math", GradeLevelID: strPtr("grade-11"), WeeklyPeriods: 5, Type: models.CurriculumMandatory},
		classRow("class-10a", "art", 1, models.CurriculumElective),
	}

	rows := ExpandTemplates("term-1", classes, templates)

	got := map[string]int{}
	for _, row := range rows {
		require.NotNil(t, row.ClassID)
		assert.Nil(t, row.GradeLevelID)
		assert.Equal(t, "term-1", row.TermID)
		got[*row.ClassID+"/"+row.SubjectID] = row.WeeklyPeriods
	}
	assert.Equal(t, map[string]int{
		"class-10a/math":   4,
		"class-11a/math":   5,
		"class-11a/phys":   3,
		"combined-11/math": 5,
		"combined-11/phys": 3,
	}, got)
}

func TestExpandTemplatesOneRowPerClassSubject(t *testing.T) {
	classes := []models.Class{
		{ID: "class-10a", GradeLevelID: "grade-10"},
		{ID: "class-11a", GradeLevelID: "grade-11"},
	}
	templates := []models.CurriculumAssignment{
		{SubjectID: "pe", WeeklyPeriods: 2, Type: models.CurriculumMandatory},
		{SubjectID: "pe", WeeklyPeriods: 3, Type: models.CurriculumMandatory},
		{SubjectID: "bio", GradeLevelID: strPtr("grade-10"), WeeklyPeriods: 4, Type: models.CurriculumMandatory},
		{SubjectID: "bio", WeeklyPeriods: 1, Type: models.CurriculumMandatory},
		{SubjectID: "bio", GradeLevelID: strPtr("grade-10"), WeeklyPeriods: 6, Type: models.CurriculumMandatory},
	}

	rows := ExpandTemplates("term-1", classes, templates)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"class-10a/pe/2", "class-10a/bio/4", "class-11a/pe/2", "class-11a/bio/1"}, rowKeys(rows))
}

func rowKeys(rows []models.CurriculumAssignment) []string {
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, fmt.Sprintf("%s/%s/%d", row.ClassIDValue(), row.SubjectID, row.WeeklyPeriods))
	}
	return keys
}

func TestExpandTemplatesNoClasses(t *testing.T) {
	rows := ExpandTemplates("term-1", nil, []models.CurriculumAssignment{{SubjectID: "math", WeeklyPeriods: 4}})
	assert.Empty(t, rows)
}

func TestReservationCells(t *testing.T) {
	slots := makeSlots(9, 4)
	cells := SpecialActivityCells(slots)
	assert.Equal(t, DaySlot{Day: models.Monday, TimeSlotID: "slot-1"}, cells[ActivityFlagCeremony])
	assert.Equal(t, DaySlot{Day: models.Saturday, TimeSlotID: "slot-9"}, cells[ActivityClassActivity])

	pool := ElectivePool(makeSlots(7))
	assert.Equal(t, []DaySlot{
		{Day: models.Tuesday, TimeSlotID: "slot-6"},
		{Day: models.Tuesday, TimeSlotID: "slot-7"},
		{Day: models.Wednesday, TimeSlotID: "slot-6"},
		{Day: models.Wednesday, TimeSlotID: "slot-7"},
		{Day: models.Saturday, TimeSlotID: "slot-6"},
		{Day: models.Saturday, TimeSlotID: "slot-7"},
	}, pool)
}

func TestCatalogSchedulableRows(t *testing.T) {
	catalog := baseCatalog()
	catalog.Classes = append(catalog.Classes, models.Class{ID: "combined-10", GradeLevelID: "grade-10", IsCombined: true})
	catalog.Curriculum = append(catalog.Curriculum,
		classRow("class-10a", "club", 2, models.CurriculumElective),
		classRow("class-10a", "math", 6, models.CurriculumMandatory),
		classRow("combined-10", "club", 2, models.CurriculumElective),
	)

	rows := catalog.SchedulableRows()
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].WeeklyPeriods)
	assert.Equal(t, "combined-10", rows[1].ClassIDValue())

	teacher, ok := catalog.TeacherFor("class-10a", "math")
	assert.True(t, ok)
	assert.Equal(t, "teacher-1", teacher)
	_, ok = catalog.TeacherFor("combined-10", "club")
	assert.False(t, ok)
}
