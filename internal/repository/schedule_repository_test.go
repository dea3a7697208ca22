package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var scheduleRowColumns = []string{"id", "term_id", "class_id", "teacher_id", "subject_id", "time_slot_id", "day_of_week", "week_number", "room", "notes", "is_active", "created_at", "updated_at"}

func TestScheduleRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(scheduleRowColumns).
		AddRow("sched-1", "term-1", "class-1", "teacher-1", "math", "slot-2", "monday", 1, "", "", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE 1=1 AND term_id = $1 AND class_id = $2 AND week_number = $3 ORDER BY day_of_week DESC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs("term-1", "class-1", 1).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1 AND term_id = $1 AND class_id = $2 AND week_number = $3")).
		WithArgs("term-1", "class-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	schedules, total, err := repo.List(context.Background(), models.ScheduleFilter{
		TermID: "term-1", ClassID: "class-1", WeekNumber: 1,
		Page: 2, PageSize: 10, SortBy: "day_of_week", SortOrder: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, schedules, 1)
	assert.Equal(t, "monday", schedules[0].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindConflicts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE term_id = $1 AND day_of_week = $2 AND time_slot_id = $3 AND week_number = $4")).
		WithArgs("term-1", "tuesday", "slot-3", 1).
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns).
			AddRow("sched-1", "term-1", "class-2", "teacher-1", "math", "slot-3", "tuesday", 1, "", "", true, now, now))

	conflicts, err := repo.FindConflicts(context.Background(), "term-1", "tuesday", "slot-3", 1)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "teacher-1", conflicts[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateDefaultsWeek(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), "term-1", "class-1", "teacher-1", "math", "slot-1", "monday", 1, "R1", "", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.Schedule{TermID: "term-1", ClassID: "class-1", TeacherID: "teacher-1", SubjectID: "math", TimeSlotID: "slot-1", DayOfWeek: "monday", Room: "R1", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, 1, entry.WeekNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO schedules").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	removed, err := repo.DeleteByTermWithTx(context.Background(), tx, "term-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	entries := []models.Schedule{
		{TermID: "term-1", ClassID: "class-1", TeacherID: "teacher-1", SubjectID: "math", TimeSlotID: "slot-1", DayOfWeek: "tuesday", IsActive: true},
		{TermID: "term-1", ClassID: "class-1", TeacherID: "teacher-1", SubjectID: "math", TimeSlotID: "slot-1", DayOfWeek: "wednesday", IsActive: true},
	}
	require.NoError(t, repo.BulkCreateWithTx(context.Background(), tx, entries))
	require.NoError(t, tx.Commit())
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, 1, e.WeekNumber)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryNilTransaction(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	_, err := repo.DeleteByTermWithTx(context.Background(), nil, "term-1")
	assert.Error(t, err)
	assert.Error(t, repo.BulkCreateWithTx(context.Background(), nil, nil))
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("boom").
		WillReturnError(errors.New("db down"))

	found, err := repo.Delete(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = repo.Delete(context.Background(), "boom")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCountsAndTimetable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY class_id, subject_id")).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "subject_id", "lesson_count"}).AddRow("class-1", "math", 4))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.term_id = $1 AND s.class_id = $2")).
		WithArgs("term-1", "class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "class_name", "teacher_id", "subject_id", "subject_code", "subject_name", "time_slot_id", "time_slot_name", "order_index", "day_of_week", "week_number", "room"}).
			AddRow("sched-1", "class-1", "10A", "teacher-1", "math", "MATH", "Mathematics", "slot-2", "Period 2", 2, "monday", 1, ""))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.term_id = $1 AND s.teacher_id = $2")).
		WithArgs("term-1", "teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id"}))

	total, err := repo.CountByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	counts, err := repo.CountByClassSubject(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, []models.ScheduleCount{{ClassID: "class-1", SubjectID: "math", Count: 4}}, counts)

	cells, err := repo.ListClassTimetable(context.Background(), "term-1", "class-1")
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "MATH", cells[0].SubjectCode)
	assert.Equal(t, 2, cells[0].OrderIndex)

	cells, err = repo.ListTeacherTimetable(context.Background(), "term-1", "teacher-1")
	require.NoError(t, err)
	assert.Empty(t, cells)
	assert.NoError(t, mock.ExpectationsWereMet())
}
