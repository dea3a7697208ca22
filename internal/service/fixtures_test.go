package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

func strPtr(v string) *string { return &v }

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func testSlots(n int) []models.TimeSlot {
	slots := make([]models.TimeSlot, 0, n)
	for i := 1; i <= n; i++ {
		slots = append(slots, models.TimeSlot{ID: fmt.Sprintf("slot-%d", i), Name: fmt.Sprintf("Period %d", i), OrderIndex: i})
	}
	return slots
}

func curriculumRow(classID, subjectID string, weekly int) models.CurriculumAssignment {
	return models.CurriculumAssignment{
		ID:            classID + "-" + subjectID,
		TermID:        "term-1",
		SubjectID:     subjectID,
		ClassID:       strPtr(classID),
		WeeklyPeriods: weekly,
		Type:          models.CurriculumMandatory,
	}
}

func teacherAssignment(teacherID, classID, subjectID string) models.TeacherAssignment {
	return models.TeacherAssignment{ID: teacherID + "-" + classID, TeacherID: teacherID, ClassID: classID, SubjectID: subjectID, TermID: "term-1", IsActive: true}
}

// twoClassCatalog has two base classes sharing a math and a PE teacher.
func twoClassCatalog() *timetable.Catalog {
	return &timetable.Catalog{
		TermID: "term-1",
		Classes: []models.Class{
			{ID: "class-10a", Name: "10A", GradeLevelID: "grade-10"},
			{ID: "class-10b", Name: "10B", GradeLevelID: "grade-10"},
		},
		Subjects: map[string]models.Subject{
			"math": {ID: "math", Code: "MATH", Name: "Mathematics"},
			"pe":   {ID: "pe", Code: "PE", Name: "Physical Education"},
		},
		Curriculum: []models.CurriculumAssignment{
			curriculumRow("class-10a", "math", 4),
			curriculumRow("class-10a", "pe", 2),
			curriculumRow("class-10b", "math", 4),
			curriculumRow("class-10b", "pe", 2),
		},
		TeacherAssignments: []models.TeacherAssignment{
			teacherAssignment("teacher-math", "class-10a", "math"),
			teacherAssignment("teacher-math", "class-10b", "math"),
			teacherAssignment("teacher-pe", "class-10a", "pe"),
			teacherAssignment("teacher-pe", "class-10b", "pe"),
		},
		TimeSlots: testSlots(8),
	}
}

type catalogStub struct {
	build func() *timetable.Catalog
	err   error
}

func (s catalogStub) LoadTerm(ctx context.Context, termID string) (*models.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Term{ID: termID, AcademicYear: "2025/2026"}, nil
}

func (s catalogStub) Load(ctx context.Context, termID string) (*timetable.Catalog, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.build(), nil
}

// memoryScheduleStore keeps entries in memory and ignores the transaction.
type memoryScheduleStore struct {
	mu        sync.Mutex
	entries   []models.Schedule
	seq       int
	deleteErr error
	insertErr error
}

func (s *memoryScheduleStore) CountByTerm(ctx context.Context, termID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.entries {
		if e.TermID == termID {
			count++
		}
	}
	return count, nil
}

func (s *memoryScheduleStore) CountByClassSubject(ctx context.Context, termID string) ([]models.ScheduleCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[[2]string]int{}
	for _, e := range s.entries {
		if e.TermID == termID {
			counts[[2]string{e.ClassID, e.SubjectID}]++
		}
	}
	out := make([]models.ScheduleCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, models.ScheduleCount{ClassID: key[0], SubjectID: key[1], Count: count})
	}
	return out, nil
}

func (s *memoryScheduleStore) DeleteByTermWithTx(ctx context.Context, tx *sqlx.Tx, termID string) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	var removed int64
	for _, e := range s.entries {
		if e.TermID == termID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}

func (s *memoryScheduleStore) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range schedules {
		s.seq++
		schedules[i].ID = fmt.Sprintf("sched-%d", s.seq)
		s.entries = append(s.entries, schedules[i])
	}
	return nil
}

func (s *memoryScheduleStore) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		keys = append(keys, fmt.Sprintf("%s|%s|%s|%s|%s|%d", e.ClassID, e.TeacherID, e.SubjectID, e.DayOfWeek, e.TimeSlotID, e.WeekNumber))
	}
	sort.Strings(keys)
	return keys
}

type lockStub struct {
	held     bool
	lost     bool
	acquired int
	released int
	extended int
}

func (l *lockStub) Acquire(ctx context.Context, termID string, ttl time.Duration) (repository.Lease, bool, error) {
	if l.held {
		return nil, false, nil
	}
	l.acquired++
	return leaseStub{lock: l}, true, nil
}

type leaseStub struct {
	lock *lockStub
}

func (s leaseStub) Release(context.Context) error {
	s.lock.released++
	return nil
}

func (s leaseStub) Extend(context.Context, time.Duration) (bool, error) {
	if s.lock.lost {
		return false, nil
	}
	s.lock.extended++
	return true, nil
}

type invalidationStub struct {
	terms []string
}

func (s *invalidationStub) InvalidateTerm(ctx context.Context, termID string) error {
	s.terms = append(s.terms, termID)
	return nil
}

func scrapeMetrics(t *testing.T, m *MetricsService) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}
