package models

import "time"

// Schedule is one persisted lesson (a schedule entry) of a class for a term.
type Schedule struct {
	ID         string    `db:"id" json:"id"`
	TermID     string    `db:"term_id" json:"term_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	TimeSlotID string    `db:"time_slot_id" json:"time_slot_id"`
	DayOfWeek  string    `db:"day_of_week" json:"day_of_week"`
	WeekNumber int       `db:"week_number" json:"week_number"`
	Room       string    `db:"room" json:"room"`
	Notes      string    `db:"notes" json:"notes"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	TermID     string
	ClassID    string
	TeacherID  string
	SubjectID  string
	DayOfWeek  string
	WeekNumber int
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Conflict dimensions reported by the manual conflict checker.
const (
	ConflictDimensionTeacher = "TEACHER"
	ConflictDimensionClass   = "CLASS"
)

// ScheduleConflict describes an existing entry colliding with a candidate.
type ScheduleConflict struct {
	Dimension  string `json:"dimension"`
	Message    string `json:"message"`
	ScheduleID string `json:"schedule_id"`
	TermID     string `json:"term_id"`
	ClassID    string `json:"class_id"`
	SubjectID  string `json:"subject_id"`
	TeacherID  string `json:"teacher_id"`
	TimeSlotID string `json:"time_slot_id"`
	DayOfWeek  string `json:"day_of_week"`
	WeekNumber int    `json:"week_number"`
}

// ScheduleConflictError is returned when a manual insert is refused.
type ScheduleConflictError struct {
	Message   string             `json:"message"`
	Conflicts []ScheduleConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// TimetableCell is a denormalised lesson used by timetable views and exports.
type TimetableCell struct {
	ScheduleID   string `db:"id" json:"schedule_id"`
	ClassID      string `db:"class_id" json:"class_id"`
	ClassName    string `db:"class_name" json:"class_name"`
	TeacherID    string `db:"teacher_id" json:"teacher_id"`
	SubjectID    string `db:"subject_id" json:"subject_id"`
	SubjectCode  string `db:"subject_code" json:"subject_code"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
	TimeSlotID   string `db:"time_slot_id" json:"time_slot_id"`
	TimeSlotName string `db:"time_slot_name" json:"time_slot_name"`
	OrderIndex   int    `db:"order_index" json:"order_index"`
	DayOfWeek    string `db:"day_of_week" json:"day_of_week"`
	WeekNumber   int    `db:"week_number" json:"week_number"`
	Room         string `db:"room" json:"room"`
}

// ScheduleCount is the persisted lesson count of one (class, subject) pair.
type ScheduleCount struct {
	ClassID   string `db:"class_id" json:"class_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
	Count     int    `db:"lesson_count" json:"lesson_count"`
}
