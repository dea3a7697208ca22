package models

import "time"

// Class is either a base (home) class or a combined class assembled across
// base classes for elective/specialised subjects.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	GradeLevelID string    `db:"grade_level_id" json:"grade_level_id"`
	GradeLevel   int       `db:"grade_level" json:"grade_level"`
	IsCombined   bool      `db:"is_combined" json:"is_combined"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GradeLevel is a cohort (e.g. grade 10). Template curriculum rows are scoped
// to one through grade_level_id.
type GradeLevel struct {
	ID    string `db:"id" json:"id"`
	Level int    `db:"level" json:"level"`
	Name  string `db:"name" json:"name"`
}
