package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, termID string, req dto.GenerationSettings) (*dto.GenerateScheduleResponse, error)
	DeleteByTerm(ctx context.Context, termID string) (*dto.DeleteTermSchedulesResponse, error)
	Coverage(ctx context.Context, termID string) (*dto.CoverageResponse, error)
}

type curriculumNormalizer interface {
	Normalize(ctx context.Context, termID string) ([]models.CurriculumAssignment, error)
}

// ScheduleGeneratorHandler exposes term-level generation endpoints.
type ScheduleGeneratorHandler struct {
	service    scheduleGenerator
	curriculum curriculumNormalizer
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc scheduleGenerator, curriculum curriculumNormalizer) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc, curriculum: curriculum}
}

// Generate godoc
// @Summary Generate the timetable of a term
// @Description Replaces every schedule entry of the term. An empty body uses default settings.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param termId path string true "Term ID"
// @Param payload body dto.GenerationSettings false "Generation settings"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /terms/{termId}/schedules/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerationSettings
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), c.Param("termId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteByTerm godoc
// @Summary Delete all schedule entries of a term
// @Tags Scheduler
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/{termId}/schedules [delete]
func (h *ScheduleGeneratorHandler) DeleteByTerm(c *gin.Context) {
	result, err := h.service.DeleteByTerm(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Coverage godoc
// @Summary Compare required weekly periods with persisted lessons
// @Tags Scheduler
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/schedules/coverage [get]
func (h *ScheduleGeneratorHandler) Coverage(c *gin.Context) {
	result, err := h.service.Coverage(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// NormalizeCurriculum godoc
// @Summary Expand grade-level curriculum templates into class rows
// @Tags Scheduler
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /terms/{termId}/curriculum/normalize [post]
func (h *ScheduleGeneratorHandler) NormalizeCurriculum(c *gin.Context) {
	termID := c.Param("termId")
	rows, err := h.curriculum.Normalize(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.CurriculumAssignment{}
	}
	response.JSON(c, http.StatusOK, dto.NormalizeCurriculumResponse{TermID: termID, Rows: len(rows), Items: rows}, nil)
}
