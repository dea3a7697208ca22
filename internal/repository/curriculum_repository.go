package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const curriculumInsert = `INSERT INTO curriculum_assignments (id, term_id, subject_id, class_id, grade_level_id, weekly_periods, type, created_at) VALUES (:id, :term_id, :subject_id, :class_id, :grade_level_id, :weekly_periods, :type, :created_at)`

// CurriculumRepository persists curriculum distribution rows.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListByTerm returns template and class-specific rows of a term in insertion order.
func (r *CurriculumRepository) ListByTerm(ctx context.Context, termID string) ([]models.CurriculumAssignment, error) {
	const query = `SELECT id, term_id, subject_id, class_id, grade_level_id, weekly_periods, type, created_at FROM curriculum_assignments WHERE term_id = $1 ORDER BY created_at ASC, id ASC`
	var rows []models.CurriculumAssignment
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list curriculum by term: %w", err)
	}
	return rows, nil
}

// CreateBatchWithTx inserts derived rows inside the caller's transaction.
func (r *CurriculumRepository) CreateBatchWithTx(ctx context.Context, tx *sqlx.Tx, rows []models.CurriculumAssignment) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, curriculumInsert, &rows[i]); err != nil {
			return fmt.Errorf("insert curriculum row: %w", err)
		}
	}
	return nil
}
