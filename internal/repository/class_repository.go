package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ClassRepository reads school classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListByAcademicYear returns base and combined classes of a year ordered by
// grade level ordinal, then name. Classes without a grade level have an empty
// GradeLevelID and sort first.
func (r *ClassRepository) ListByAcademicYear(ctx context.Context, academicYear string) ([]models.Class, error) {
	const query = `SELECT c.id, c.name, c.academic_year, COALESCE(c.grade_level_id, '') AS grade_level_id, COALESCE(g.level, 0) AS grade_level, c.is_combined, c.created_at, c.updated_at
FROM classes c
LEFT JOIN grade_levels g ON g.id = c.grade_level_id
WHERE c.academic_year = $1
ORDER BY grade_level ASC, c.name ASC, c.id ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, academicYear); err != nil {
		return nil, fmt.Errorf("list classes by academic year: %w", err)
	}
	return classes, nil
}
