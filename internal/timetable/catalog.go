package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Catalog is everything one generation run reads. Curriculum rows must be
// class-specific (normalised) before the catalog reaches the scheduler.
type Catalog struct {
	TermID             string
	Classes            []models.Class
	Subjects           map[string]models.Subject
	Curriculum         []models.CurriculumAssignment
	TeacherAssignments []models.TeacherAssignment
	TimeSlots          []models.TimeSlot
	Constraints        []models.ScheduleConstraint
}

// Validate checks the prerequisites of a run in a fixed order so the first
// missing input is the one reported.
func (c *Catalog) Validate() error {
	if c == nil || !hasClassSpecificCurriculum(c.Curriculum) {
		return appErrors.Clone(appErrors.ErrCurriculumMissing, "")
	}
	if !curriculumCoversClasses(c.Classes, c.Curriculum) {
		return appErrors.Clone(appErrors.ErrCurriculumMissing, "no curriculum row belongs to a class of this term's academic year; check the class list before generating")
	}
	if len(c.TeacherAssignments) == 0 {
		return appErrors.Clone(appErrors.ErrTeacherAssignmentsMissing, "")
	}
	if len(lessonSlots(c.TimeSlots)) == 0 {
		return appErrors.Clone(appErrors.ErrTimeSlotsMissing, "")
	}
	return nil
}

func hasClassSpecificCurriculum(rows []models.CurriculumAssignment) bool {
	for _, row := range rows {
		if !row.IsTemplate() {
			return true
		}
	}
	return false
}

func curriculumCoversClasses(classes []models.Class, rows []models.CurriculumAssignment) bool {
	known := make(map[string]struct{}, len(classes))
	for _, class := range classes {
		known[class.ID] = struct{}{}
	}
	for _, row := range rows {
		if _, ok := known[row.ClassIDValue()]; ok {
			return true
		}
	}
	return false
}

// DaySlot addresses one cell of the weekly grid.
type DaySlot struct {
	Day        models.DayOfWeek `json:"day"`
	TimeSlotID string           `json:"time_slot_id"`
}

// Lesson is a generated, not yet persisted, schedule entry.
type Lesson struct {
	ClassID    string           `json:"class_id"`
	TeacherID  string           `json:"teacher_id"`
	SubjectID  string           `json:"subject_id"`
	TimeSlotID string           `json:"time_slot_id"`
	Day        models.DayOfWeek `json:"day_of_week"`
	WeekNumber int              `json:"week_number"`
}

// ToSchedule converts the lesson into its persistence shape.
func (l Lesson) ToSchedule(termID string) models.Schedule {
	return models.Schedule{
		TermID:     termID,
		ClassID:    l.ClassID,
		TeacherID:  l.TeacherID,
		SubjectID:  l.SubjectID,
		TimeSlotID: l.TimeSlotID,
		DayOfWeek:  l.Day.Name(),
		WeekNumber: l.WeekNumber,
		IsActive:   true,
	}
}

// Settings tune one run. Zero values are not the defaults; use DefaultSettings.
type Settings struct {
	GenerateSpecialActivities bool
	RespectConstraints        bool
	BalanceSubjects           bool
	OptimizeWorkload          bool
	MaxPeriodsPerDay          int
	WeekNumber                int
	Days                      []models.DayOfWeek
}

// DefaultSettings mirrors the generator's documented behaviour.
func DefaultSettings() Settings {
	return Settings{
		GenerateSpecialActivities: true,
		RespectConstraints:        true,
		BalanceSubjects:           true,
		WeekNumber:                1,
		Days:                      models.SchoolDays(),
	}
}

func (s Settings) normalised() Settings {
	if s.WeekNumber <= 0 {
		s.WeekNumber = 1
	}
	days := make([]models.DayOfWeek, 0, len(s.Days))
	seen := make(map[models.DayOfWeek]bool, len(s.Days))
	for _, day := range s.Days {
		if day < models.Monday || day > models.Saturday || seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	if len(days) == 0 {
		days = models.SchoolDays()
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	s.Days = days
	return s
}

// lessonSlots returns the non-break slots ordered by order_index.
func lessonSlots(slots []models.TimeSlot) []models.TimeSlot {
	result := make([]models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.IsBreak {
			continue
		}
		result = append(result, slot)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OrderIndex < result[j].OrderIndex
	})
	return result
}

// SchedulableRows returns, per class in catalog order, the rows a run places:
// mandatory rows of base classes and every row of combined classes, first row
// per subject.
func (c *Catalog) SchedulableRows() []models.CurriculumAssignment {
	var out []models.CurriculumAssignment
	for _, class := range c.Classes {
		seen := make(map[string]struct{})
		for _, row := range c.Curriculum {
			if row.ClassIDValue() != class.ID {
				continue
			}
			if !class.IsCombined && row.Type == models.CurriculumElective {
				continue
			}
			if _, dup := seen[row.SubjectID]; dup {
				continue
			}
			seen[row.SubjectID] = struct{}{}
			out = append(out, row)
		}
	}
	return out
}

// TeacherFor returns the first assignment's teacher for a (class, subject).
func (c *Catalog) TeacherFor(classID, subjectID string) (string, bool) {
	for _, ta := range c.TeacherAssignments {
		if ta.ClassID == classID && ta.SubjectID == subjectID {
			return ta.TeacherID, true
		}
	}
	return "", false
}
