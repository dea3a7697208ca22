package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type classLister interface {
	ListByAcademicYear(ctx context.Context, academicYear string) ([]models.Class, error)
}

type subjectLister interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type curriculumReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.CurriculumAssignment, error)
}

type teacherAssignmentLister interface {
	ListActiveByTerm(ctx context.Context, termID string) ([]models.TeacherAssignment, error)
}

type timeSlotLister interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
}

type constraintLister interface {
	ListActiveByTerm(ctx context.Context, termID string) ([]models.ScheduleConstraint, error)
}

// CatalogRepositories groups the read sources of a generation run.
type CatalogRepositories struct {
	Terms              termReader
	Classes            classLister
	Subjects           subjectLister
	Curriculum         curriculumReader
	TeacherAssignments teacherAssignmentLister
	TimeSlots          timeSlotLister
	Constraints        constraintLister
}

// CatalogLoader reads everything a generation run needs. It applies no
// scheduling logic.
type CatalogLoader struct {
	repos  CatalogRepositories
	logger *zap.Logger
}

// NewCatalogLoader constructs the loader.
func NewCatalogLoader(repos CatalogRepositories, logger *zap.Logger) *CatalogLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogLoader{repos: repos, logger: logger}
}

// LoadTerm resolves a term or returns NOT_FOUND.
func (l *CatalogLoader) LoadTerm(ctx context.Context, termID string) (*models.Term, error) {
	return loadTerm(ctx, l.repos.Terms, termID)
}

func loadTerm(ctx context.Context, terms termReader, termID string) (*models.Term, error) {
	term, err := terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// Load reads the catalog of a term. The curriculum is returned as stored
// (templates included); normalisation is the caller's concern. Any failed
// read fails the load.
func (l *CatalogLoader) Load(ctx context.Context, termID string) (*timetable.Catalog, error) {
	term, err := l.LoadTerm(ctx, termID)
	if err != nil {
		return nil, err
	}

	catalog := &timetable.Catalog{TermID: term.ID}
	var subjects []models.Subject

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog.Classes, err = l.repos.Classes.ListByAcademicYear(gctx, term.AcademicYear)
		if err != nil {
			l.logger.Warn("failed to load classes for term", zap.String("term_id", termID), zap.Error(err))
		}
		return err
	})
	g.Go(func() error {
		var err error
		subjects, err = l.repos.Subjects.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		catalog.Curriculum, err = l.repos.Curriculum.ListByTerm(gctx, termID)
		return err
	})
	g.Go(func() error {
		var err error
		catalog.TeacherAssignments, err = l.repos.TeacherAssignments.ListActiveByTerm(gctx, termID)
		return err
	})
	g.Go(func() error {
		var err error
		catalog.TimeSlots, err = l.repos.TimeSlots.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		catalog.Constraints, err = l.repos.Constraints.ListActiveByTerm(gctx, termID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling catalog")
	}

	catalog.Subjects = make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		catalog.Subjects[subject.ID] = subject
	}

	l.logger.Debug("scheduling catalog loaded",
		zap.String("term_id", termID),
		zap.Int("classes", len(catalog.Classes)),
		zap.Int("curriculum_rows", len(catalog.Curriculum)),
		zap.Int("teacher_assignments", len(catalog.TeacherAssignments)),
		zap.Int("time_slots", len(catalog.TimeSlots)),
		zap.Int("constraints", len(catalog.Constraints)),
	)
	return catalog, nil
}
