package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type scheduleManager interface {
	List(ctx context.Context, query dto.ScheduleQuery) ([]models.Schedule, *models.Pagination, error)
	CheckConflicts(ctx context.Context, req dto.ScheduleEntryRequest) (*dto.ConflictCheckResponse, error)
	Create(ctx context.Context, req dto.CreateScheduleRequest) (*dto.CreateScheduleResponse, error)
	Delete(ctx context.Context, id string) error
	ClassTimetable(ctx context.Context, termID, classID string) (*dto.TimetableResponse, error)
	TeacherTimetable(ctx context.Context, termID, teacherID string) (*dto.TimetableResponse, error)
	ExportClassTimetable(ctx context.Context, termID, classID, format string) (*service.ExportedFile, error)
}

// ScheduleHandler manages schedule entries and timetable views.
type ScheduleHandler struct {
	service scheduleManager
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleManager) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedules
// @Produce json
// @Param termId query string false "Filter by term"
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Filter by teacher"
// @Param subjectId query string false "Filter by subject"
// @Param dayOfWeek query string false "Filter by weekday name"
// @Param weekNumber query int false "Filter by week"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "day_of_week, week_number or created_at"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	schedules, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// CheckConflicts godoc
// @Summary Check a candidate entry against persisted entries
// @Description Advisory only; nothing is written.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleEntryRequest true "Candidate entry"
// @Success 200 {object} response.Envelope
// @Router /schedules/conflicts [post]
func (h *ScheduleHandler) CheckConflicts(c *gin.Context) {
	var req dto.ScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Create a schedule entry
// @Description Refused with 409 when the teacher or class is busy, unless force is set.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		var conflictErr *models.ScheduleConflictError
		if errors.As(err, &conflictErr) {
			response.ErrorWithData(c, err, conflictErr)
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Delete godoc
// @Summary Delete a schedule entry
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClassTimetable godoc
// @Summary Weekly timetable of a class
// @Tags Timetables
// @Produce json
// @Param termId path string true "Term ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/classes/{classId}/timetable [get]
func (h *ScheduleHandler) ClassTimetable(c *gin.Context) {
	result, err := h.service.ClassTimetable(c.Request.Context(), c.Param("termId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// TeacherTimetable godoc
// @Summary Weekly timetable of a teacher
// @Tags Timetables
// @Produce json
// @Param termId path string true "Term ID"
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/teachers/{teacherId}/timetable [get]
func (h *ScheduleHandler) TeacherTimetable(c *gin.Context) {
	result, err := h.service.TeacherTimetable(c.Request.Context(), c.Param("termId"), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// ExportClassTimetable godoc
// @Summary Download a class timetable
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param termId path string true "Term ID"
// @Param classId path string true "Class ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /terms/{termId}/classes/{classId}/timetable/export [get]
func (h *ScheduleHandler) ExportClassTimetable(c *gin.Context) {
	file, err := h.service.ExportClassTimetable(c.Request.Context(), c.Param("termId"), c.Param("classId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.FileName, file.ContentType, file.Content)
}
