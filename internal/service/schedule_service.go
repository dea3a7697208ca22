package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

const (
	teacherConflictMessage = "teacher already has a class at this time"
	classConflictMessage   = "class already has a lesson at this time"

	timetableKindClass   = "class"
	timetableKindTeacher = "teacher"
)

type scheduleStore interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindConflicts(ctx context.Context, termID, dayOfWeek, timeSlotID string, weekNumber int) ([]models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ListClassTimetable(ctx context.Context, termID, classID string) ([]models.TimetableCell, error)
	ListTeacherTimetable(ctx context.Context, termID, teacherID string) ([]models.TimetableCell, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateTerm(ctx context.Context, termID string) error
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportedFile is a rendered timetable ready to be streamed.
type ExportedFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ScheduleService serves the manual entry path and timetable views.
type ScheduleService struct {
	repo      scheduleStore
	cache     timetableCache
	metrics   *MetricsService
	csv       datasetRenderer
	pdf       datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleStore, cache timetableCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.Schedule, *models.Pagination, error) {
	filter := models.ScheduleFilter{
		TermID:     query.TermID,
		ClassID:    query.ClassID,
		TeacherID:  query.TeacherID,
		SubjectID:  query.SubjectID,
		DayOfWeek:  query.DayOfWeek,
		WeekNumber: query.WeekNumber,
		Page:       query.Page,
		PageSize:   query.PageSize,
		SortBy:     query.SortBy,
		SortOrder:  query.SortOrder,
	}
	if filter.DayOfWeek != "" {
		day := models.ParseDayOfWeek(filter.DayOfWeek)
		if !day.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid dayOfWeek")
		}
		filter.DayOfWeek = day.Name()
	}

	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return schedules, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// CheckConflicts reports persisted entries colliding with the candidate. The
// teacher and class checks both run; findings are advisory.
func (s *ScheduleService) CheckConflicts(ctx context.Context, req dto.ScheduleEntryRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule entry")
	}
	candidate := req.ToSchedule()
	conflicts, err := s.findConflicts(ctx, candidate)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordConflictCheck(len(conflicts) > 0)
	return buildConflictResponse(conflicts), nil
}

func (s *ScheduleService) findConflicts(ctx context.Context, candidate models.Schedule) ([]models.ScheduleConflict, error) {
	existing, err := s.repo.FindConflicts(ctx, candidate.TermID, candidate.DayOfWeek, candidate.TimeSlotID, candidate.WeekNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}

	var teacherHits, classHits []models.ScheduleConflict
	for _, entry := range existing {
		if entry.TeacherID == candidate.TeacherID {
			teacherHits = append(teacherHits, toConflict(entry, models.ConflictDimensionTeacher, teacherConflictMessage))
		}
		if entry.ClassID == candidate.ClassID {
			classHits = append(classHits, toConflict(entry, models.ConflictDimensionClass, classConflictMessage))
		}
	}
	return append(teacherHits, classHits...), nil
}

func toConflict(entry models.Schedule, dimension, message string) models.ScheduleConflict {
	return models.ScheduleConflict{
		Dimension:  dimension,
		Message:    message,
		ScheduleID: entry.ID,
		TermID:     entry.TermID,
		ClassID:    entry.ClassID,
		SubjectID:  entry.SubjectID,
		TeacherID:  entry.TeacherID,
		TimeSlotID: entry.TimeSlotID,
		DayOfWeek:  entry.DayOfWeek,
		WeekNumber: entry.WeekNumber,
	}
}

func buildConflictResponse(conflicts []models.ScheduleConflict) *dto.ConflictCheckResponse {
	resp := &dto.ConflictCheckResponse{
		HasConflicts: len(conflicts) > 0,
		Messages:     []string{},
		Conflicts:    []models.ScheduleConflict{},
	}
	seen := map[string]struct{}{}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, c)
		if _, ok := seen[c.Message]; ok {
			continue
		}
		seen[c.Message] = struct{}{}
		resp.Messages = append(resp.Messages, c.Message)
	}
	return resp
}

// Create inserts a single entry. Conflicting entries are refused unless Force
// is set, in which case the findings come back as warnings.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*dto.CreateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule := req.ToSchedule()
	conflicts, err := s.findConflicts(ctx, schedule)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordConflictCheck(len(conflicts) > 0)
	if len(conflicts) > 0 && !req.Force {
		check := buildConflictResponse(conflicts)
		domainErr := &models.ScheduleConflictError{Message: check.Messages[0], Conflicts: check.Conflicts}
		return nil, appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "schedule conflicts detected")
	}

	if err := s.repo.Create(ctx, &schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	if len(conflicts) > 0 {
		s.logger.Warn("schedule created despite conflicts",
			zap.String("schedule_id", schedule.ID),
			zap.String("term_id", schedule.TermID),
			zap.Int("conflicts", len(conflicts)),
		)
	}
	s.invalidate(ctx, schedule.TermID)
	return &dto.CreateScheduleResponse{Schedule: schedule, Warnings: conflicts}, nil
}

// Delete removes a schedule entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	s.invalidate(ctx, existing.TermID)
	return nil
}

// ClassTimetable returns the week of a class, served from cache when enabled.
func (s *ScheduleService) ClassTimetable(ctx context.Context, termID, classID string) (*dto.TimetableResponse, error) {
	return s.timetable(ctx, ClassTimetableKey(termID, classID), timetableKindClass, termID, classID, s.repo.ListClassTimetable)
}

// TeacherTimetable returns the week of a teacher, served from cache when enabled.
func (s *ScheduleService) TeacherTimetable(ctx context.Context, termID, teacherID string) (*dto.TimetableResponse, error) {
	return s.timetable(ctx, TeacherTimetableKey(termID, teacherID), timetableKindTeacher, termID, teacherID, s.repo.ListTeacherTimetable)
}

func (s *ScheduleService) timetable(
	ctx context.Context,
	key, kind, termID, ownerID string,
	load func(ctx context.Context, termID, ownerID string) ([]models.TimetableCell, error),
) (*dto.TimetableResponse, error) {
	if s.cache != nil {
		var cached dto.TimetableResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	cells, err := load(ctx, termID, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s timetable", kind))
	}
	resp := groupTimetable(termID, ownerID, kind, cells)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, resp, 0)
	}
	return resp, nil
}

func groupTimetable(termID, ownerID, kind string, cells []models.TimetableCell) *dto.TimetableResponse {
	byDay := make(map[models.DayOfWeek][]models.TimetableCell)
	for _, cell := range cells {
		day := models.ParseDayOfWeek(cell.DayOfWeek)
		byDay[day] = append(byDay[day], cell)
	}
	resp := &dto.TimetableResponse{TermID: termID, OwnerID: ownerID, Kind: kind, Days: []dto.TimetableDay{}, Total: len(cells)}
	for day := models.Monday; day <= models.Sunday; day++ {
		lessons, ok := byDay[day]
		if !ok && day == models.Sunday {
			continue
		}
		if lessons == nil {
			lessons = []models.TimetableCell{}
		}
		resp.Days = append(resp.Days, dto.TimetableDay{DayOfWeek: day.Name(), Lessons: lessons})
	}
	return resp
}

// ExportClassTimetable renders a class timetable grid as CSV or PDF.
func (s *ScheduleService) ExportClassTimetable(ctx context.Context, termID, classID, format string) (*ExportedFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	cells, err := s.repo.ListClassTimetable(ctx, termID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class timetable")
	}

	title := "Timetable"
	if len(cells) > 0 {
		title = "Timetable " + cells[0].ClassName
	}
	dataset := export.TimetableDataset(title, cells, export.ClassCellLabel)

	renderer := s.csv
	if f == export.FormatPDF {
		renderer = s.pdf
	}
	content, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &ExportedFile{
		FileName:    fmt.Sprintf("timetable-%s-%s.%s", termID, classID, f),
		ContentType: f.ContentType(),
		Content:     content,
	}, nil
}

func (s *ScheduleService) invalidate(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTerm(ctx, termID); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("term_id", termID), zap.Error(err))
	}
}
