package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// ScheduleQuery binds list filters from the query string.
type ScheduleQuery struct {
	TermID     string `form:"termId"`
	ClassID    string `form:"classId"`
	TeacherID  string `form:"teacherId"`
	SubjectID  string `form:"subjectId"`
	DayOfWeek  string `form:"dayOfWeek"`
	WeekNumber int    `form:"weekNumber"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder"`
}

// ScheduleEntryRequest is a candidate lesson for the manual path.
type ScheduleEntryRequest struct {
	TermID     string `json:"termId" validate:"required"`
	ClassID    string `json:"classId" validate:"required"`
	TeacherID  string `json:"teacherId" validate:"required"`
	SubjectID  string `json:"subjectId" validate:"required"`
	TimeSlotID string `json:"timeSlotId" validate:"required"`
	DayOfWeek  int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	WeekNumber int    `json:"weekNumber" validate:"omitempty,min=1,max=53"`
	Room       string `json:"room" validate:"omitempty,max=64"`
	Notes      string `json:"notes" validate:"omitempty,max=500"`
}

// ToSchedule converts the request into a schedule row.
func (r ScheduleEntryRequest) ToSchedule() models.Schedule {
	week := r.WeekNumber
	if week <= 0 {
		week = 1
	}
	return models.Schedule{
		TermID:     r.TermID,
		ClassID:    r.ClassID,
		TeacherID:  r.TeacherID,
		SubjectID:  r.SubjectID,
		TimeSlotID: r.TimeSlotID,
		DayOfWeek:  models.DayOfWeek(r.DayOfWeek).Name(),
		WeekNumber: week,
		Room:       r.Room,
		Notes:      r.Notes,
		IsActive:   true,
	}
}

// CreateScheduleRequest creates a single entry. Force inserts despite conflicts.
type CreateScheduleRequest struct {
	ScheduleEntryRequest
	Force bool `json:"force"`
}

// ConflictCheckResponse carries the advisory findings for a candidate.
type ConflictCheckResponse struct {
	HasConflicts bool                      `json:"hasConflicts"`
	Messages     []string                  `json:"messages"`
	Conflicts    []models.ScheduleConflict `json:"conflicts"`
}

// CreateScheduleResponse returns the stored entry and any overridden conflicts.
type CreateScheduleResponse struct {
	Schedule models.Schedule           `json:"schedule"`
	Warnings []models.ScheduleConflict `json:"warnings,omitempty"`
}

// TimetableDay groups lessons of one weekday.
type TimetableDay struct {
	DayOfWeek string                 `json:"dayOfWeek"`
	Lessons   []models.TimetableCell `json:"lessons"`
}

// TimetableResponse is a class or teacher week view.
type TimetableResponse struct {
	TermID  string         `json:"termId"`
	OwnerID string         `json:"ownerId"`
	Kind    string         `json:"kind"`
	Days    []TimetableDay `json:"days"`
	Total   int            `json:"total"`
	Cached  bool           `json:"-"`
}
