package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherAssignmentRepository reads teacher/class/subject assignments.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository builds a new repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// ListActiveByTerm returns the active assignments of a term, oldest first.
func (r *TeacherAssignmentRepository) ListActiveByTerm(ctx context.Context, termID string) ([]models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_id, class_id, subject_id, term_id, is_active, created_at FROM teacher_assignments WHERE term_id = $1 AND is_active = TRUE ORDER BY created_at ASC, id ASC`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, termID); err != nil {
		return nil, fmt.Errorf("list teacher assignments by term: %w", err)
	}
	return assignments, nil
}
