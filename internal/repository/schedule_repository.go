package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const (
	scheduleColumns = `id, term_id, class_id, teacher_id, subject_id, time_slot_id, day_of_week, week_number, room, notes, is_active, created_at, updated_at`
	scheduleInsert  = `INSERT INTO schedules (id, term_id, class_id, teacher_id, subject_id, time_slot_id, day_of_week, week_number, room, notes, is_active, created_at, updated_at) VALUES (:id, :term_id, :class_id, :teacher_id, :subject_id, :time_slot_id, :day_of_week, :week_number, :room, :notes, :is_active, :created_at, :updated_at)`

	// timetableSelect joins the names needed by timetable views and exports.
	timetableSelect = `SELECT s.id, s.class_id, c.name AS class_name, s.teacher_id, s.subject_id, sub.code AS subject_code, sub.name AS subject_name,
       s.time_slot_id, ts.name AS time_slot_name, ts.order_index, s.day_of_week, s.week_number, s.room
FROM schedules s
JOIN classes c ON c.id = s.class_id
JOIN subjects sub ON sub.id = s.subject_id
JOIN time_slots ts ON ts.id = s.time_slot_id`

	bulkInsertChunk = 200
)

// ScheduleRepository provides persistence for schedule entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.WeekNumber > 0 {
		conditions = append(conditions, fmt.Sprintf("week_number = $%d", len(args)+1))
		args = append(args, filter.WeekNumber)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_of_week": true,
		"week_number": true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", scheduleColumns, base, sortBy, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return &sched, nil
}

// FindConflicts returns entries of a term sharing (day, slot, week) with a candidate.
func (r *ScheduleRepository) FindConflicts(ctx context.Context, termID, dayOfWeek, timeSlotID string, weekNumber int) ([]models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE term_id = $1 AND day_of_week = $2 AND time_slot_id = $3 AND week_number = $4`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, termID, dayOfWeek, timeSlotID, weekNumber); err != nil {
		return nil, fmt.Errorf("find schedule conflicts: %w", err)
	}
	return schedules, nil
}

// CountByTerm returns the number of entries stored for a term.
func (r *ScheduleRepository) CountByTerm(ctx context.Context, termID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM schedules WHERE term_id = $1`, termID); err != nil {
		return 0, fmt.Errorf("count schedules by term: %w", err)
	}
	return total, nil
}

// CountByClassSubject returns persisted lesson counts per (class, subject).
func (r *ScheduleRepository) CountByClassSubject(ctx context.Context, termID string) ([]models.ScheduleCount, error) {
	const query = `SELECT class_id, subject_id, COUNT(*) AS lesson_count FROM schedules WHERE term_id = $1 GROUP BY class_id, subject_id`
	var counts []models.ScheduleCount
	if err := r.db.SelectContext(ctx, &counts, query, termID); err != nil {
		return nil, fmt.Errorf("count schedules by class subject: %w", err)
	}
	return counts, nil
}

// ListClassTimetable returns the denormalised week of a class.
func (r *ScheduleRepository) ListClassTimetable(ctx context.Context, termID, classID string) ([]models.TimetableCell, error) {
	query := timetableSelect + `
WHERE s.term_id = $1 AND s.class_id = $2
ORDER BY s.week_number ASC, ts.order_index ASC, s.day_of_week ASC`
	var cells []models.TimetableCell
	if err := r.db.SelectContext(ctx, &cells, query, termID, classID); err != nil {
		return nil, fmt.Errorf("list class timetable: %w", err)
	}
	return cells, nil
}

// ListTeacherTimetable returns the denormalised week of a teacher.
func (r *ScheduleRepository) ListTeacherTimetable(ctx context.Context, termID, teacherID string) ([]models.TimetableCell, error) {
	query := timetableSelect + `
WHERE s.term_id = $1 AND s.teacher_id = $2
ORDER BY s.week_number ASC, ts.order_index ASC, s.day_of_week ASC`
	var cells []models.TimetableCell
	if err := r.db.SelectContext(ctx, &cells, query, termID, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher timetable: %w", err)
	}
	return cells, nil
}

// Create stores a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	prepareSchedule(schedule, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, scheduleInsert, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// DeleteByTermWithTx removes every entry of a term inside the caller's transaction.
func (r *ScheduleRepository) DeleteByTermWithTx(ctx context.Context, tx *sqlx.Tx, termID string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("nil transaction provided")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE term_id = $1`, termID)
	if err != nil {
		return 0, fmt.Errorf("delete schedules by term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete schedules by term: %w", err)
	}
	return affected, nil
}

// BulkCreateWithTx inserts schedules in chunks using an existing transaction.
func (r *ScheduleRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	for i := range schedules {
		prepareSchedule(&schedules[i], now)
	}
	for start := 0; start < len(schedules); start += bulkInsertChunk {
		end := start + bulkInsertChunk
		if end > len(schedules) {
			end = len(schedules)
		}
		if _, err := tx.NamedExecContext(ctx, scheduleInsert, schedules[start:end]); err != nil {
			return fmt.Errorf("bulk insert schedules: %w", err)
		}
	}
	return nil
}

// Delete removes a schedule by id and reports whether it existed.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	return affected > 0, nil
}

func prepareSchedule(schedule *models.Schedule, now time.Time) {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.WeekNumber <= 0 {
		schedule.WeekNumber = 1
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
}
