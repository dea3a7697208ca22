package models

// ConstraintType enumerates hard exclusions honoured by the generator.
type ConstraintType string

const (
	ConstraintTeacherUnavailable ConstraintType = "teacher_unavailable"
	ConstraintClassUnavailable   ConstraintType = "class_unavailable"
)

// ScheduleConstraint blocks a teacher or a class from a (day, slot) pair.
type ScheduleConstraint struct {
	ID         string         `db:"id" json:"id"`
	TermID     string         `db:"term_id" json:"term_id"`
	Type       ConstraintType `db:"type" json:"type"`
	TeacherID  *string        `db:"teacher_id" json:"teacher_id,omitempty"`
	ClassID    *string        `db:"class_id" json:"class_id,omitempty"`
	DayOfWeek  int            `db:"day_of_week" json:"day_of_week"`
	TimeSlotID string         `db:"time_slot_id" json:"time_slot_id"`
	IsActive   bool           `db:"is_active" json:"is_active"`
}
