package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ScheduleConstraintRepository reads teacher/class unavailability.
type ScheduleConstraintRepository struct {
	db *sqlx.DB
}

// NewScheduleConstraintRepository constructs the repository.
func NewScheduleConstraintRepository(db *sqlx.DB) *ScheduleConstraintRepository {
	return &ScheduleConstraintRepository{db: db}
}

// ListActiveByTerm returns active constraints of a term.
func (r *ScheduleConstraintRepository) ListActiveByTerm(ctx context.Context, termID string) ([]models.ScheduleConstraint, error) {
	const query = `SELECT id, term_id, type, teacher_id, class_id, day_of_week, time_slot_id, is_active FROM schedule_constraints WHERE term_id = $1 AND is_active = TRUE ORDER BY day_of_week ASC, id ASC`
	var constraints []models.ScheduleConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, termID); err != nil {
		return nil, fmt.Errorf("list schedule constraints: %w", err)
	}
	return constraints, nil
}
