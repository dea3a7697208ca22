package timetable

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func strPtr(v string) *string { return &v }

func makeSlots(n int, breaks ...int) []models.TimeSlot {
	isBreak := make(map[int]bool, len(breaks))
	for _, b := range breaks {
		isBreak[b] = true
	}
	slots := make([]models.TimeSlot, 0, n)
	for i := 1; i <= n; i++ {
		slots = append(slots, models.TimeSlot{
			ID:         fmt.Sprintf("slot-%d", i),
			Name:       fmt.Sprintf("Period %d", i),
			OrderIndex: i,
			IsBreak:    isBreak[i],
		})
	}
	return slots
}

func classRow(classID, subjectID string, weekly int, kind models.CurriculumType) models.CurriculumAssignment {
	return models.CurriculumAssignment{
		ID:            classID + "-" + subjectID,
		TermID:        "term-1",
		SubjectID:     subjectID,
		ClassID:       strPtr(classID),
		WeeklyPeriods: weekly,
		Type:          kind,
	}
}

func assign(teacherID, classID, subjectID string) models.TeacherAssignment {
	return models.TeacherAssignment{
		ID:        teacherID + "-" + classID + "-" + subjectID,
		TeacherID: teacherID,
		ClassID:   classID,
		SubjectID: subjectID,
		TermID:    "term-1",
		IsActive:  true,
	}
}

func teacherBlocked(teacherID string, day models.DayOfWeek, slotID string) models.ScheduleConstraint {
	return models.ScheduleConstraint{
		ID:         fmt.Sprintf("c-%s-%d-%s", teacherID, day, slotID),
		TermID:     "term-1",
		Type:       models.ConstraintTeacherUnavailable,
		TeacherID:  strPtr(teacherID),
		DayOfWeek:  int(day),
		TimeSlotID: slotID,
		IsActive:   true,
	}
}

func baseCatalog() *Catalog {
	return &Catalog{
		TermID: "term-1",
		Classes: []models.Class{
			{ID: "class-10a", Name: "10A", GradeLevelID: "grade-10"},
		},
		Subjects: map[string]models.Subject{
			"math": {ID: "math", Code: "MATH", Name: "Mathematics"},
			"pe":   {ID: "pe", Code: "PE", Name: "Physical Education"},
			"club": {ID: "club", Code: "CLUB", Name: "Robotics Club"},
		},
		Curriculum: []models.CurriculumAssignment{
			classRow("class-10a", "math", 4, models.CurriculumMandatory),
		},
		TeacherAssignments: []models.TeacherAssignment{
			assign("teacher-1", "class-10a", "math"),
		},
		TimeSlots: makeSlots(8),
	}
}

func testClassifier() SubjectClassifier {
	return NewSubjectClassifier(nil, nil, 5)
}

func orderOf(slotID string) int {
	var n int
	_, _ = fmt.Sscanf(slotID, "slot-%d", &n)
	return n
}
