package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	hit, err := svc.Get(context.Background(), "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, repo.values)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.InvalidateTerm(context.Background(), "term-1"))
}

func TestCacheServiceInvalidateTerm(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, ClassTimetableKey("term-1", "class-10a"), "a", 0))
	require.NoError(t, svc.Set(ctx, TeacherTimetableKey("term-1", "teacher-1"), "b", 0))
	require.NoError(t, svc.Set(ctx, ClassTimetableKey("term-2", "class-10a"), "c", 0))

	require.NoError(t, svc.InvalidateTerm(ctx, "term-1"))

	var out string
	hit, err := svc.Get(ctx, ClassTimetableKey("term-1", "class-10a"), &out)
	require.NoError(t, err)
	assert.False(t, hit)
	hit, err = svc.Get(ctx, ClassTimetableKey("term-2", "class-10a"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "c", out)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveCacheWrite(time.Millisecond)
		m.RecordGeneration(GenerationOutcomeSuccess, time.Second, 10, map[string]int{"no_slot_available": 1})
		m.RecordConflictCheck(true)
	})
}

func TestMetricsServiceRecordsShortfalls(t *testing.T) {
	m := NewMetricsService()
	m.RecordGeneration(GenerationOutcomeSuccess, time.Second, 10, map[string]int{"no_slot_available": 3, "teacher_unassigned": 0})

	body := scrapeMetrics(t, m)
	assert.Contains(t, body, `schedule_generation_lessons_short_total{reason="no_slot_available"} 3`)
	assert.NotContains(t, body, `reason="teacher_unassigned"`)
	assert.Contains(t, body, "schedule_generation_lessons_placed_total 10")
}
