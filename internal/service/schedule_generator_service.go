package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Generation stages, in the order a successful run passes them.
const (
	StageStart             = "start"
	StageValidate          = "validate"
	StageReserveActivities = "reserve_special_activities"
	StageScheduleBase      = "schedule_base_classes"
	StageScheduleCombined  = "schedule_combined_classes"
	StagePersist           = "persist"
	StageDone              = "done"
	StageFailed            = "failed"
)

const (
	generatorTracerName = "github.com/noah-isme/sma-timetable-api/schedule-generator"
	// defaultGenerationLockTTL bounds the load and scheduling phases of a run.
	// The lease is extended once before persist; a run that outlives it fails
	// without writing.
	defaultGenerationLockTTL = 2 * time.Minute
)

type generationCatalogLoader interface {
	LoadTerm(ctx context.Context, termID string) (*models.Term, error)
	Load(ctx context.Context, termID string) (*timetable.Catalog, error)
}

type curriculumNormalizer interface {
	EnsureClassSpecific(ctx context.Context, termID string, classes []models.Class, rows []models.CurriculumAssignment) ([]models.CurriculumAssignment, error)
}

type generatedScheduleStore interface {
	CountByTerm(ctx context.Context, termID string) (int, error)
	CountByClassSubject(ctx context.Context, termID string) ([]models.ScheduleCount, error)
	DeleteByTermWithTx(ctx context.Context, tx *sqlx.Tx, termID string) (int64, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error
}

type termLocker interface {
	Acquire(ctx context.Context, termID string, ttl time.Duration) (repository.Lease, bool, error)
}

type timetableCacheInvalidator interface {
	InvalidateTerm(ctx context.Context, termID string) error
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	CoreSubjects      []string
	PracticalSubjects []string
	MorningCutoff     int
	LockTTL           time.Duration
	DefaultWeek       int
}

// ScheduleGeneratorService runs timetable generation for a term and owns the
// term's schedule entries while it does.
type ScheduleGeneratorService struct {
	catalog    generationCatalogLoader
	curriculum curriculumNormalizer
	schedules  generatedScheduleStore
	locker     termLocker
	cache      timetableCacheInvalidator
	tx         txProvider
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	tracer     trace.Tracer
	classifier timetable.SubjectClassifier
	cfg        ScheduleGeneratorConfig
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	catalog generationCatalogLoader,
	curriculum curriculumNormalizer,
	schedules generatedScheduleStore,
	locker termLocker,
	cache timetableCacheInvalidator,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultGenerationLockTTL
	}
	if cfg.DefaultWeek <= 0 {
		cfg.DefaultWeek = 1
	}
	if locker == nil {
		locker = repository.NewTermLockRepository(nil, logger)
	}
	return &ScheduleGeneratorService{
		catalog:    catalog,
		curriculum: curriculum,
		schedules:  schedules,
		locker:     locker,
		cache:      cache,
		tx:         tx,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		tracer:     otel.Tracer(generatorTracerName),
		classifier: timetable.NewSubjectClassifier(cfg.CoreSubjects, cfg.PracticalSubjects, cfg.MorningCutoff),
		cfg:        cfg,
	}
}

// Generate rebuilds every schedule entry of a term. Runs for the same term are
// serialised; a concurrent request gets GENERATION_IN_PROGRESS.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, termID string, req dto.GenerationSettings) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation settings")
	}

	started := time.Now()
	stages := []string{StageStart}
	ctx, span := s.tracer.Start(ctx, "schedule.generate", trace.WithAttributes(attribute.String("term.id", termID)))
	defer span.End()

	lease, acquired, err := s.locker.Acquire(ctx, termID, s.cfg.LockTTL)
	if err != nil {
		s.finishFailed(span, stages, started, GenerationOutcomeFailed, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
	}
	if !acquired {
		s.metrics.RecordGeneration(GenerationOutcomeContention, time.Since(started), 0, nil)
		span.SetStatus(codes.Error, "generation in progress")
		return nil, appErrors.Clone(appErrors.ErrGenerationInProgress, "")
	}
	defer func() {
		if relErr := lease.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logger.Warn("failed to release generation lock", zap.String("term_id", termID), zap.Error(relErr))
		}
	}()

	catalog, err := s.catalog.Load(ctx, termID)
	if err != nil {
		s.finishFailed(span, stages, started, GenerationOutcomeFailed, err)
		return nil, err
	}

	stages = append(stages, StageValidate)
	if err := s.prepare(ctx, catalog, req); err != nil {
		stages = append(stages, StageFailed)
		s.finishFailed(span, stages, started, GenerationOutcomeInvalid, err)
		return nil, err
	}

	run := timetable.NewGenerationRun(catalog, s.classifier, req.Engine(s.cfg.DefaultWeek), s.logger)
	stages = append(stages, StageReserveActivities)
	run.ReserveSpecialActivities()
	stages = append(stages, StageScheduleBase)
	phaseOne := run.ScheduleBaseClasses()
	stages = append(stages, StageScheduleCombined)
	phaseTwo := run.ScheduleCombinedClasses(phaseOne)
	result := run.Result(phaseOne, phaseTwo)

	stages = append(stages, StagePersist)
	if err := s.extendLease(ctx, lease, termID); err != nil {
		stages = append(stages, StageFailed)
		s.finishFailed(span, stages, started, GenerationOutcomeFailed, err)
		return nil, err
	}
	entries := make([]models.Schedule, 0, len(result.Lessons))
	for _, lesson := range result.Lessons {
		entries = append(entries, lesson.ToSchedule(termID))
	}
	replaced, err := s.replaceTermSchedules(ctx, termID, entries)
	if err != nil {
		stages = append(stages, StageFailed)
		s.finishFailed(span, stages, started, GenerationOutcomeFailed, err)
		return nil, err
	}
	stages = append(stages, StageDone)

	s.invalidateCache(ctx, termID)

	shortfalls := make(map[string]int)
	for _, c := range result.Shortfalls() {
		shortfalls[string(c.Reason)] += c.Shortfall
	}
	s.metrics.RecordGeneration(GenerationOutcomeSuccess, time.Since(started), result.Summary.TotalLessons, shortfalls)
	span.SetAttributes(
		attribute.Int("schedule.lessons", result.Summary.TotalLessons),
		attribute.Int("schedule.shortfall", result.Summary.ShortfallLessons),
		attribute.Int("schedule.replaced", int(replaced)),
	)
	span.SetStatus(codes.Ok, "")

	s.logger.Info("schedule generated",
		zap.String("term_id", termID),
		zap.Int("lessons", result.Summary.TotalLessons),
		zap.Int("classes", result.Summary.ClassesScheduled),
		zap.Int("teachers", result.Summary.TeachersInvolved),
		zap.Int("shortfall", result.Summary.ShortfallLessons),
		zap.Int64("replaced", replaced),
		zap.Duration("elapsed", time.Since(started)),
	)

	return buildGenerateResponse(termID, result, entries, replaced, stages), nil
}

// prepare normalises the curriculum and checks the run prerequisites.
func (s *ScheduleGeneratorService) prepare(ctx context.Context, catalog *timetable.Catalog, req dto.GenerationSettings) error {
	rows, err := s.curriculum.EnsureClassSpecific(ctx, catalog.TermID, catalog.Classes, catalog.Curriculum)
	if err != nil {
		return err
	}
	catalog.Curriculum = rows
	if err := catalog.Validate(); err != nil {
		return err
	}

	if !req.ClearExistingValue() {
		existing, err := s.schedules.CountByTerm(ctx, catalog.TermID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count existing schedules")
		}
		if existing > 0 {
			return appErrors.Clone(appErrors.ErrConflict, "term already has schedule entries; generation always replaces them, set clearExisting to true")
		}
	}
	return nil
}

// replaceTermSchedules deletes and inserts in one transaction, so a failed
// insert leaves the previous timetable in place.
func (s *ScheduleGeneratorService) replaceTermSchedules(ctx context.Context, termID string, entries []models.Schedule) (replaced int64, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrPersistFailed.Code, appErrors.ErrPersistFailed.Status, appErrors.ErrPersistFailed.Message)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	replaced, err = s.schedules.DeleteByTermWithTx(ctx, tx, termID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrPersistFailed.Code, appErrors.ErrPersistFailed.Status, appErrors.ErrPersistFailed.Message)
	}
	if len(entries) > 0 {
		if err = s.schedules.BulkCreateWithTx(ctx, tx, entries); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrPersistFailed.Code, appErrors.ErrPersistFailed.Status, appErrors.ErrPersistFailed.Message)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrPersistFailed.Code, appErrors.ErrPersistFailed.Status, appErrors.ErrPersistFailed.Message)
	}
	return replaced, nil
}

// DeleteByTerm removes every schedule entry of a term.
func (s *ScheduleGeneratorService) DeleteByTerm(ctx context.Context, termID string) (*dto.DeleteTermSchedulesResponse, error) {
	if _, err := s.catalog.LoadTerm(ctx, termID); err != nil {
		return nil, err
	}

	lease, acquired, err := s.locker.Acquire(ctx, termID, s.cfg.LockTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrGenerationInProgress, "")
	}
	defer func() {
		if relErr := lease.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logger.Warn("failed to release generation lock", zap.String("term_id", termID), zap.Error(relErr))
		}
	}()

	deleted, err := s.deleteTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, termID)
	s.logger.Info("term schedules deleted", zap.String("term_id", termID), zap.Int64("deleted", deleted))
	return &dto.DeleteTermSchedulesResponse{TermID: termID, Deleted: deleted}, nil
}

// extendLease renews the term lock ahead of the write.
func (s *ScheduleGeneratorService) extendLease(ctx context.Context, lease repository.Lease, termID string) error {
	ok, err := lease.Extend(ctx, s.cfg.LockTTL)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to extend generation lock")
	}
	if !ok {
		s.logger.Warn("generation lock lost before persist", zap.String("term_id", termID))
		return appErrors.Clone(appErrors.ErrGenerationInProgress, "generation lock expired before persist; retry the run")
	}
	return nil
}

func (s *ScheduleGeneratorService) deleteTerm(ctx context.Context, termID string) (deleted int64, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if deleted, err = s.schedules.DeleteByTermWithTx(ctx, tx, termID); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedules")
	}
	if err = tx.Commit(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule deletion")
	}
	return deleted, nil
}

// Coverage compares the class-specific curriculum with persisted entry counts.
func (s *ScheduleGeneratorService) Coverage(ctx context.Context, termID string) (*dto.CoverageResponse, error) {
	catalog, err := s.catalog.Load(ctx, termID)
	if err != nil {
		return nil, err
	}
	counts, err := s.schedules.CountByClassSubject(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count schedules")
	}

	placed := make(map[[2]string]int, len(counts))
	for _, c := range counts {
		placed[[2]string{c.ClassID, c.SubjectID}] = c.Count
	}

	resp := &dto.CoverageResponse{TermID: termID, Items: []dto.CoverageItem{}}
	for _, row := range catalog.SchedulableRows() {
		classID := row.ClassIDValue()
		teacherID, hasTeacher := catalog.TeacherFor(classID, row.SubjectID)
		item := dto.CoverageItem{
			ClassID:   classID,
			SubjectID: row.SubjectID,
			TeacherID: teacherID,
			Required:  row.WeeklyPeriods,
			Placed:    placed[[2]string{classID, row.SubjectID}],
		}
		if item.Placed < item.Required {
			item.Shortfall = item.Required - item.Placed
			item.Reason = string(timetable.ReasonNoSlotAvailable)
			if !hasTeacher {
				item.Reason = string(timetable.ReasonTeacherUnassigned)
			}
		}
		resp.TotalRequired += item.Required
		resp.TotalPlaced += item.Placed
		resp.TotalShortfall += item.Shortfall
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

func (s *ScheduleGeneratorService) invalidateCache(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTerm(ctx, termID); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("term_id", termID), zap.Error(err))
	}
}

func (s *ScheduleGeneratorService) finishFailed(span trace.Span, stages []string, started time.Time, outcome string, err error) {
	s.metrics.RecordGeneration(outcome, time.Since(started), 0, nil)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.StringSlice("schedule.stages", stages))
	if appErr := appErrors.FromError(err); appErr != nil && appErr.Status < 500 {
		s.logger.Warn("schedule generation rejected", zap.Strings("stages", stages), zap.String("code", appErr.Code), zap.String("reason", appErr.Message))
		return
	}
	s.logger.Error("schedule generation failed", zap.Strings("stages", stages), zap.Error(err))
}

func buildGenerateResponse(termID string, result timetable.Result, entries []models.Schedule, replaced int64, stages []string) *dto.GenerateScheduleResponse {
	resp := &dto.GenerateScheduleResponse{
		TermID: termID,
		Summary: dto.GenerationSummary{
			TotalLessons:     result.Summary.TotalLessons,
			ClassesScheduled: result.Summary.ClassesScheduled,
			TeachersInvolved: result.Summary.TeachersInvolved,
			ShortfallLessons: result.Summary.ShortfallLessons,
			ReplacedEntries:  int(replaced),
		},
		Entries:    make([]dto.GeneratedEntry, 0, len(entries)),
		Coverage:   make([]dto.CoverageItem, 0, len(result.Coverage)),
		Shortfalls: []dto.CoverageItem{},
		Stages:     stages,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.GeneratedEntry{
			ID:         e.ID,
			ClassID:    e.ClassID,
			TeacherID:  e.TeacherID,
			SubjectID:  e.SubjectID,
			TimeSlotID: e.TimeSlotID,
			DayOfWeek:  e.DayOfWeek,
			WeekNumber: e.WeekNumber,
		})
	}
	for _, c := range result.Coverage {
		item := dto.CoverageItem{
			ClassID:   c.ClassID,
			SubjectID: c.SubjectID,
			TeacherID: c.TeacherID,
			Required:  c.Required,
			Placed:    c.Placed,
			Shortfall: c.Shortfall,
			Reason:    string(c.Reason),
		}
		resp.Coverage = append(resp.Coverage, item)
		if item.Shortfall > 0 {
			resp.Shortfalls = append(resp.Shortfalls, item)
		}
	}
	return resp
}
