package models

import "time"

// CurriculumType separates mandatory subjects from electives.
type CurriculumType string

const (
	CurriculumMandatory CurriculumType = "mandatory"
	CurriculumElective  CurriculumType = "elective"
)

// CurriculumAssignment states how many lessons per week a subject needs.
// A row without ClassID is a template: GradeLevelID nil means school-wide,
// otherwise grade-wide. Templates are expanded into per-class rows before
// scheduling.
type CurriculumAssignment struct {
	ID            string         `db:"id" json:"id"`
	TermID        string         `db:"term_id" json:"term_id"`
	SubjectID     string         `db:"subject_id" json:"subject_id"`
	ClassID       *string        `db:"class_id" json:"class_id,omitempty"`
	GradeLevelID  *string        `db:"grade_level_id" json:"grade_level_id,omitempty"`
	WeeklyPeriods int            `db:"weekly_periods" json:"weekly_periods"`
	Type          CurriculumType `db:"type" json:"type"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// IsTemplate reports whether the row still has to be expanded per class.
func (c CurriculumAssignment) IsTemplate() bool {
	return c.ClassID == nil || *c.ClassID == ""
}

// ClassIDValue returns the class id or "" for template rows.
func (c CurriculumAssignment) ClassIDValue() string {
	if c.ClassID == nil {
		return ""
	}
	return *c.ClassID
}
