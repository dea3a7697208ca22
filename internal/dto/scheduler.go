package dto

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

// GenerationSettings tunes a generation run. Nil fields take their defaults.
type GenerationSettings struct {
	ClearExisting             *bool `json:"clearExisting"`
	GenerateSpecialActivities *bool `json:"generateSpecialActivities"`
	RespectConstraints        *bool `json:"respectConstraints"`
	BalanceSubjects           *bool `json:"balanceSubjects"`
	OptimizeWorkload          *bool `json:"optimizeWorkload"`
	MaxPeriodsPerDay          int   `json:"maxPeriodsPerDay" validate:"min=0,max=16"`
	WeekNumber                int   `json:"weekNumber" validate:"omitempty,min=1,max=53"`
	Days                      []int `json:"days" validate:"omitempty,dive,min=1,max=6"`
}

// ClearExistingValue reports the effective clear-existing flag.
func (s GenerationSettings) ClearExistingValue() bool {
	return boolOr(s.ClearExisting, true)
}

// Engine converts the request into engine settings; defaultWeek applies when
// no week number was given.
func (s GenerationSettings) Engine(defaultWeek int) timetable.Settings {
	settings := timetable.DefaultSettings()
	settings.GenerateSpecialActivities = boolOr(s.GenerateSpecialActivities, settings.GenerateSpecialActivities)
	settings.RespectConstraints = boolOr(s.RespectConstraints, settings.RespectConstraints)
	settings.BalanceSubjects = boolOr(s.BalanceSubjects, settings.BalanceSubjects)
	settings.OptimizeWorkload = boolOr(s.OptimizeWorkload, settings.OptimizeWorkload)
	settings.MaxPeriodsPerDay = s.MaxPeriodsPerDay
	settings.WeekNumber = s.WeekNumber
	if settings.WeekNumber <= 0 {
		settings.WeekNumber = defaultWeek
	}
	if len(s.Days) > 0 {
		settings.Days = make([]models.DayOfWeek, 0, len(s.Days))
		for _, d := range s.Days {
			settings.Days = append(settings.Days, models.DayOfWeek(d))
		}
	}
	return settings
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// GenerationSummary mirrors the run summary.
type GenerationSummary struct {
	TotalLessons     int `json:"totalLessons"`
	ClassesScheduled int `json:"classesScheduled"`
	TeachersInvolved int `json:"teachersInvolved"`
	ShortfallLessons int `json:"shortfallLessons"`
	ReplacedEntries  int `json:"replacedEntries"`
}

// GeneratedEntry is one persisted lesson of a run.
type GeneratedEntry struct {
	ID         string `json:"id"`
	ClassID    string `json:"classId"`
	TeacherID  string `json:"teacherId"`
	SubjectID  string `json:"subjectId"`
	TimeSlotID string `json:"timeSlotId"`
	DayOfWeek  string `json:"dayOfWeek"`
	WeekNumber int    `json:"weekNumber"`
}

// CoverageItem reports required versus placed lessons for a (class, subject).
type CoverageItem struct {
	ClassID   string `json:"classId"`
	SubjectID string `json:"subjectId"`
	TeacherID string `json:"teacherId,omitempty"`
	Required  int    `json:"required"`
	Placed    int    `json:"placed"`
	Shortfall int    `json:"shortfall"`
	Reason    string `json:"reason,omitempty"`
}

// GenerateScheduleResponse is returned by a successful generation run.
type GenerateScheduleResponse struct {
	TermID     string            `json:"termId"`
	Summary    GenerationSummary `json:"summary"`
	Entries    []GeneratedEntry  `json:"entries"`
	Coverage   []CoverageItem    `json:"coverage"`
	Shortfalls []CoverageItem    `json:"shortfalls"`
	Stages     []string          `json:"stages"`
}

// CoverageResponse compares the curriculum with persisted entries.
type CoverageResponse struct {
	TermID         string         `json:"termId"`
	Items          []CoverageItem `json:"items"`
	TotalRequired  int            `json:"totalRequired"`
	TotalPlaced    int            `json:"totalPlaced"`
	TotalShortfall int            `json:"totalShortfall"`
}

// DeleteTermSchedulesResponse reports a term reset.
type DeleteTermSchedulesResponse struct {
	TermID  string `json:"termId"`
	Deleted int64  `json:"deleted"`
}

// NormalizeCurriculumResponse lists the class-specific rows of a term.
type NormalizeCurriculumResponse struct {
	TermID string                        `json:"termId"`
	Rows   int                           `json:"rows"`
	Items  []models.CurriculumAssignment `json:"items"`
}
