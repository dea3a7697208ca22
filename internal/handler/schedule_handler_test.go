package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type scheduleManagerStub struct {
	query     dto.ScheduleQuery
	created   dto.CreateScheduleRequest
	createErr error
	deleteErr error
	timetable *dto.TimetableResponse
	file      *service.ExportedFile
	format    string
}

func (s *scheduleManagerStub) List(ctx context.Context, query dto.ScheduleQuery) ([]models.Schedule, *models.Pagination, error) {
	s.query = query
	return []models.Schedule{{ID: "sched-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (s *scheduleManagerStub) CheckConflicts(ctx context.Context, req dto.ScheduleEntryRequest) (*dto.ConflictCheckResponse, error) {
	return &dto.ConflictCheckResponse{
		HasConflicts: true,
		Messages:     []string{"teacher already has a class at this time", "class already has a lesson at this time"},
	}, nil
}

func (s *scheduleManagerStub) Create(ctx context.Context, req dto.CreateScheduleRequest) (*dto.CreateScheduleResponse, error) {
	s.created = req
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &dto.CreateScheduleResponse{Schedule: req.ToSchedule()}, nil
}

func (s *scheduleManagerStub) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

func (s *scheduleManagerStub) ClassTimetable(ctx context.Context, termID, classID string) (*dto.TimetableResponse, error) {
	return s.timetable, nil
}

func (s *scheduleManagerStub) TeacherTimetable(ctx context.Context, termID, teacherID string) (*dto.TimetableResponse, error) {
	return s.timetable, nil
}

func (s *scheduleManagerStub) ExportClassTimetable(ctx context.Context, termID, classID, format string) (*service.ExportedFile, error) {
	s.format = format
	return s.file, nil
}

func newScheduleRouter(stub *scheduleManagerStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewScheduleHandler(stub)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/schedules", h.List)
	r.POST("/schedules", h.Create)
	r.POST("/schedules/conflicts", h.CheckConflicts)
	r.DELETE("/schedules/:id", h.Delete)
	r.GET("/terms/:termId/classes/:classId/timetable", h.ClassTimetable)
	r.GET("/terms/:termId/classes/:classId/timetable/export", h.ExportClassTimetable)
	r.GET("/terms/:termId/teachers/:teacherId/timetable", h.TeacherTimetable)
	return r
}

const validEntry = `{"termId":"term-1","classId":"class-10a","teacherId":"teacher-1","subjectId":"math","timeSlotId":"slot-1","dayOfWeek":1}`

func TestScheduleListBindsQuery(t *testing.T) {
	stub := &scheduleManagerStub{}
	r := newScheduleRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schedules?termId=term-1&dayOfWeek=monday&weekNumber=2&page=3", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", stub.query.TermID)
	assert.Equal(t, "monday", stub.query.DayOfWeek)
	assert.Equal(t, 2, stub.query.WeekNumber)
	assert.Equal(t, 3, stub.query.Page)
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}

func TestCheckConflictsReturnsBothMessages(t *testing.T) {
	r := newScheduleRouter(&scheduleManagerStub{})
	req := httptest.NewRequest(http.MethodPost, "/schedules/conflicts", bytes.NewReader([]byte(validEntry)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "teacher already has a class at this time")
	assert.Contains(t, w.Body.String(), "class already has a lesson at this time")
}

func TestCreateScheduleConflictCarriesFindings(t *testing.T) {
	conflict := &models.ScheduleConflictError{
		Message: "teacher already has a class at this time",
		Conflicts: []models.ScheduleConflict{{
			Dimension:  models.ConflictDimensionTeacher,
			Message:    "teacher already has a class at this time",
			ScheduleID: "sched-9",
		}},
	}
	stub := &scheduleManagerStub{createErr: appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "schedule conflicts detected")}
	r := newScheduleRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/schedules", bytes.NewReader([]byte(validEntry)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]interface{})
	conflicts := data["conflicts"].([]interface{})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "sched-9", conflicts[0].(map[string]interface{})["schedule_id"])
}

func TestCreateScheduleForce(t *testing.T) {
	stub := &scheduleManagerStub{}
	r := newScheduleRouter(stub)

	payload := `{"termId":"term-1","classId":"class-10a","teacherId":"teacher-1","subjectId":"math","timeSlotId":"slot-1","dayOfWeek":2,"force":true}`
	req := httptest.NewRequest(http.MethodPost, "/schedules", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, stub.created.Force)
	assert.Equal(t, "class-10a", stub.created.ClassID)
	assert.Contains(t, w.Body.String(), `"day_of_week":"tuesday"`)
}

func TestDeleteSchedule(t *testing.T) {
	r := newScheduleRouter(&scheduleManagerStub{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/schedules/sched-1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	r = newScheduleRouter(&scheduleManagerStub{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "schedule not found")})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/schedules/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableReportsCacheHit(t *testing.T) {
	stub := &scheduleManagerStub{timetable: &dto.TimetableResponse{TermID: "term-1", OwnerID: "class-10a", Kind: "class", Cached: true}}
	r := newScheduleRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/terms/term-1/classes/class-10a/timetable", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/terms/term-1/teachers/teacher-1/timetable", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestExportClassTimetable(t *testing.T) {
	stub := &scheduleManagerStub{file: &service.ExportedFile{FileName: "timetable.csv", ContentType: "text/csv; charset=utf-8", Content: []byte("Period,Monday\n")}}
	r := newScheduleRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/terms/term-1/classes/class-10a/timetable/export?format=csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", stub.format)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable.csv")
	assert.Equal(t, "Period,Monday\n", w.Body.String())
}
