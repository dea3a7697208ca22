package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type curriculumWriter interface {
	curriculumReader
	CreateBatchWithTx(ctx context.Context, tx *sqlx.Tx, rows []models.CurriculumAssignment) error
}

// CurriculumService turns curriculum templates into class-specific rows.
type CurriculumService struct {
	terms      termReader
	classes    classLister
	curriculum curriculumWriter
	tx         txProvider
	locker     termLocker
	lockTTL    time.Duration
	logger     *zap.Logger
}

// CurriculumServiceOption configures the service.
type CurriculumServiceOption func(*CurriculumService)

// WithTermLocker shares the generation lock so normalisation never interleaves
// with a run or a delete on the same term.
func WithTermLocker(locker termLocker, ttl time.Duration) CurriculumServiceOption {
	return func(s *CurriculumService) {
		if locker != nil {
			s.locker = locker
		}
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// NewCurriculumService constructs the service.
func NewCurriculumService(terms termReader, classes classLister, curriculum curriculumWriter, tx txProvider, logger *zap.Logger, opts ...CurriculumServiceOption) *CurriculumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CurriculumService{
		terms:      terms,
		classes:    classes,
		curriculum: curriculum,
		tx:         tx,
		lockTTL:    defaultGenerationLockTTL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.locker == nil {
		svc.locker = repository.NewTermLockRepository(nil, logger)
	}
	return svc
}

// Normalize returns the class-specific curriculum of a term, deriving and
// persisting it from templates when none exists yet. Running it again is a
// no-op because the persisted rows satisfy the guard. It holds the term's
// generation lock; EnsureClassSpecific expects the caller to hold it.
func (s *CurriculumService) Normalize(ctx context.Context, termID string) ([]models.CurriculumAssignment, error) {
	term, err := loadTerm(ctx, s.terms, termID)
	if err != nil {
		return nil, err
	}

	lease, acquired, err := s.locker.Acquire(ctx, termID, s.lockTTL)
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

	rows, err := s.curriculum.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	if specific := classSpecific(rows); len(specific) > 0 {
		return specific, nil
	}

	classes, err := s.classes.ListByAcademicYear(ctx, term.AcademicYear)
	if err != nil {
		s.logger.Warn("failed to load classes, nothing to normalise", zap.String("term_id", termID), zap.Error(err))
		return []models.CurriculumAssignment{}, nil
	}
	return s.EnsureClassSpecific(ctx, termID, classes, rows)
}

// EnsureClassSpecific applies the idempotence guard to already loaded rows and
// expands templates when needed.
func (s *CurriculumService) EnsureClassSpecific(ctx context.Context, termID string, classes []models.Class, rows []models.CurriculumAssignment) ([]models.CurriculumAssignment, error) {
	if specific := classSpecific(rows); len(specific) > 0 {
		return specific, nil
	}

	derived := timetable.ExpandTemplates(termID, classes, rows)
	if len(derived) == 0 {
		return []models.CurriculumAssignment{}, nil
	}

	if err := s.persist(ctx, derived); err != nil {
		return nil, err
	}
	s.logger.Info("curriculum normalised from templates",
		zap.String("term_id", termID),
		zap.Int("classes", len(classes)),
		zap.Int("rows", len(derived)),
	)
	return derived, nil
}

func (s *CurriculumService) persist(ctx context.Context, rows []models.CurriculumAssignment) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.curriculum.CreateBatchWithTx(ctx, tx, rows); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store normalised curriculum")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit normalised curriculum")
	}
	return nil
}

func classSpecific(rows []models.CurriculumAssignment) []models.CurriculumAssignment {
	var out []models.CurriculumAssignment
	for _, row := range rows {
		if !row.IsTemplate() {
			out = append(out, row)
		}
	}
	return out
}
