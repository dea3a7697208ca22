package timetable

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ShortfallReason explains why a (class, subject) pair is under-filled.
type ShortfallReason string

const (
	ReasonNone              ShortfallReason = ""
	ReasonTeacherUnassigned ShortfallReason = "teacher_unassigned"
	ReasonNoSlotAvailable   ShortfallReason = "no_slot_available"
)

// Coverage compares required and placed lessons for one (class, subject).
type Coverage struct {
	ClassID     string          `json:"class_id"`
	SubjectID   string          `json:"subject_id"`
	SubjectCode string          `json:"subject_code,omitempty"`
	TeacherID   string          `json:"teacher_id,omitempty"`
	Required    int             `json:"required"`
	Placed      int             `json:"placed"`
	Shortfall   int             `json:"shortfall"`
	Reason      ShortfallReason `json:"reason,omitempty"`
}

// Summary aggregates a run's output.
type Summary struct {
	TotalLessons     int `json:"total_lessons"`
	ClassesScheduled int `json:"classes_scheduled"`
	TeachersInvolved int `json:"teachers_involved"`
	ShortfallLessons int `json:"shortfall_lessons"`
}

// PhaseOneResult is what base-class scheduling hands to the combined phase.
type PhaseOneResult struct {
	Lessons  []Lesson
	Coverage []Coverage
	// ElectivePools holds, per grade level, the cells reserved in its base classes.
	ElectivePools map[string][]DaySlot
	Reservations  []Reservation
}

// PhaseTwoResult is the output of combined-class scheduling.
type PhaseTwoResult struct {
	Lessons  []Lesson
	Coverage []Coverage
}

// Result is the complete output of a generation run.
type Result struct {
	Lessons      []Lesson      `json:"lessons"`
	Reservations []Reservation `json:"reservations"`
	Coverage     []Coverage    `json:"coverage"`
	Summary      Summary       `json:"summary"`
}

// Shortfalls returns the coverage rows that did not reach their weekly periods.
func (r Result) Shortfalls() []Coverage {
	var out []Coverage
	for _, c := range r.Coverage {
		if c.Shortfall > 0 {
			out = append(out, c)
		}
	}
	return out
}

type classSubjectKey struct {
	classID   string
	subjectID string
}

// GenerationRun owns the conflict matrix of exactly one generation.
type GenerationRun struct {
	catalog    *Catalog
	classifier SubjectClassifier
	settings   Settings
	logger     *zap.Logger

	matrix       *ConflictMatrix
	selector     *SlotSelector
	teachers     map[classSubjectKey]string
	reservations []Reservation
}

// NewGenerationRun prepares a run over a validated catalog.
func NewGenerationRun(catalog *Catalog, classifier SubjectClassifier, settings Settings, logger *zap.Logger) *GenerationRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = settings.normalised()
	run := &GenerationRun{
		catalog:    catalog,
		classifier: classifier,
		settings:   settings,
		logger:     logger,
		matrix:     NewConflictMatrix(),
		selector:   NewSlotSelector(catalog.TimeSlots, catalog.Constraints, classifier, settings),
	}
	run.teachers = run.indexTeachers()
	return run
}

// Matrix exposes the run's occupancy index.
func (r *GenerationRun) Matrix() *ConflictMatrix {
	return r.matrix
}

func (r *GenerationRun) indexTeachers() map[classSubjectKey]string {
	index := make(map[classSubjectKey]string, len(r.catalog.TeacherAssignments))
	for _, ta := range r.catalog.TeacherAssignments {
		key := classSubjectKey{classID: ta.ClassID, subjectID: ta.SubjectID}
		if existing, ok := index[key]; ok {
			if existing != ta.TeacherID {
				r.logger.Warn("multiple active teacher assignments, keeping first",
					zap.String("class_id", ta.ClassID),
					zap.String("subject_id", ta.SubjectID),
					zap.String("kept_teacher_id", existing),
					zap.String("ignored_teacher_id", ta.TeacherID),
				)
			}
			continue
		}
		index[key] = ta.TeacherID
	}
	return index
}

// ReserveSpecialActivities blocks the fixed activity cells of every class.
func (r *GenerationRun) ReserveSpecialActivities() []Reservation {
	if !r.settings.GenerateSpecialActivities {
		return nil
	}
	reserved := ReserveSpecialActivities(r.matrix, r.catalog.Classes, r.catalog.TimeSlots)
	r.reservations = append(r.reservations, reserved...)
	return reserved
}

// ScheduleBaseClasses places mandatory subjects of base classes, then reserves
// the elective pool in each of them.
func (r *GenerationRun) ScheduleBaseClasses() PhaseOneResult {
	result := PhaseOneResult{ElectivePools: make(map[string][]DaySlot)}
	pool := ElectivePool(r.catalog.TimeSlots)
	poolSeen := make(map[string]map[DaySlot]struct{})

	for _, class := range r.catalog.Classes {
		if class.IsCombined {
			continue
		}
		rows := r.rowsFor(class.ID, func(row models.CurriculumAssignment) bool {
			return row.Type != models.CurriculumElective
		})
		r.sortByPriority(rows)
		for _, row := range rows {
			lessons, coverage := r.scheduleRow(class.ID, row, nil)
			result.Lessons = append(result.Lessons, lessons...)
			result.Coverage = append(result.Coverage, coverage)
		}

		reserved := reserveElectivePool(r.matrix, class.ID, pool)
		for _, cell := range reserved {
			result.Reservations = append(result.Reservations, Reservation{
				ClassID:    class.ID,
				Day:        cell.Day,
				TimeSlotID: cell.TimeSlotID,
				Kind:       "elective_reservation",
			})
			seen, ok := poolSeen[class.GradeLevelID]
			if !ok {
				seen = make(map[DaySlot]struct{})
				poolSeen[class.GradeLevelID] = seen
			}
			if _, dup := seen[cell]; dup {
				continue
			}
			seen[cell] = struct{}{}
			result.ElectivePools[class.GradeLevelID] = append(result.ElectivePools[class.GradeLevelID], cell)
		}
	}

	for grade, cells := range result.ElectivePools {
		sortDaySlots(cells, r.catalog.TimeSlots)
		result.ElectivePools[grade] = cells
	}
	r.reservations = append(r.reservations, result.Reservations...)
	return result
}

// ScheduleCombinedClasses places every row of combined classes. Phase one must
// have run: its elective pools are offered first.
func (r *GenerationRun) ScheduleCombinedClasses(phaseOne PhaseOneResult) PhaseTwoResult {
	var result PhaseTwoResult
	for _, class := range r.catalog.Classes {
		if !class.IsCombined {
			continue
		}
		rows := r.rowsFor(class.ID, func(models.CurriculumAssignment) bool { return true })
		r.sortByPriority(rows)
		preferred := phaseOne.ElectivePools[class.GradeLevelID]
		for _, row := range rows {
			lessons, coverage := r.scheduleRow(class.ID, row, preferred)
			result.Lessons = append(result.Lessons, lessons...)
			result.Coverage = append(result.Coverage, coverage)
		}
	}
	return result
}

// Result merges both phases into the final output.
func (r *GenerationRun) Result(phaseOne PhaseOneResult, phaseTwo PhaseTwoResult) Result {
	lessons := make([]Lesson, 0, len(phaseOne.Lessons)+len(phaseTwo.Lessons))
	lessons = append(lessons, phaseOne.Lessons...)
	lessons = append(lessons, phaseTwo.Lessons...)

	coverage := make([]Coverage, 0, len(phaseOne.Coverage)+len(phaseTwo.Coverage))
	coverage = append(coverage, phaseOne.Coverage...)
	coverage = append(coverage, phaseTwo.Coverage...)

	return Result{
		Lessons:      lessons,
		Reservations: append([]Reservation(nil), r.reservations...),
		Coverage:     coverage,
		Summary:      summarise(lessons, coverage),
	}
}

// Generate runs every phase in order over a fresh matrix.
func Generate(catalog *Catalog, classifier SubjectClassifier, settings Settings, logger *zap.Logger) (Result, error) {
	if err := catalog.Validate(); err != nil {
		return Result{}, err
	}
	run := NewGenerationRun(catalog, classifier, settings, logger)
	run.ReserveSpecialActivities()
	phaseOne := run.ScheduleBaseClasses()
	phaseTwo := run.ScheduleCombinedClasses(phaseOne)
	return run.Result(phaseOne, phaseTwo), nil
}

// rowsFor returns the class's rows in catalog order, first row per subject.
func (r *GenerationRun) rowsFor(classID string, keep func(models.CurriculumAssignment) bool) []models.CurriculumAssignment {
	var rows []models.CurriculumAssignment
	seen := make(map[string]struct{})
	for _, row := range r.catalog.Curriculum {
		if row.ClassIDValue() != classID || !keep(row) {
			continue
		}
		if _, dup := seen[row.SubjectID]; dup {
			r.logger.Warn("duplicate curriculum row ignored",
				zap.String("class_id", classID),
				zap.String("subject_id", row.SubjectID),
				zap.String("curriculum_id", row.ID),
			)
			continue
		}
		seen[row.SubjectID] = struct{}{}
		rows = append(rows, row)
	}
	return rows
}

// sortByPriority orders core subjects first, then by weekly periods descending.
func (r *GenerationRun) sortByPriority(rows []models.CurriculumAssignment) {
	sort.SliceStable(rows, func(i, j int) bool {
		ci := r.classifier.IsCore(r.subjectCode(rows[i].SubjectID))
		cj := r.classifier.IsCore(r.subjectCode(rows[j].SubjectID))
		if ci != cj {
			return ci
		}
		return rows[i].WeeklyPeriods > rows[j].WeeklyPeriods
	})
}

func (r *GenerationRun) subjectCode(subjectID string) string {
	if subject, ok := r.catalog.Subjects[subjectID]; ok {
		return subject.Code
	}
	return ""
}

func (r *GenerationRun) scheduleRow(classID string, row models.CurriculumAssignment, preferred []DaySlot) ([]Lesson, Coverage) {
	code := r.subjectCode(row.SubjectID)
	coverage := Coverage{
		ClassID:     classID,
		SubjectID:   row.SubjectID,
		SubjectCode: code,
		Required:    row.WeeklyPeriods,
	}

	teacherID, ok := r.teachers[classSubjectKey{classID: classID, subjectID: row.SubjectID}]
	if !ok {
		coverage.Shortfall = row.WeeklyPeriods
		if coverage.Shortfall > 0 {
			coverage.Reason = ReasonTeacherUnassigned
		}
		r.logger.Warn("no teacher assigned, subject skipped",
			zap.String("class_id", classID),
			zap.String("subject_id", row.SubjectID),
			zap.String("subject_code", code),
		)
		return nil, coverage
	}
	coverage.TeacherID = teacherID

	req := SlotRequest{
		ClassID:       classID,
		TeacherID:     teacherID,
		SubjectID:     row.SubjectID,
		SubjectCode:   code,
		WeeklyPeriods: row.WeeklyPeriods,
		Preferred:     preferred,
	}
	lessons := make([]Lesson, 0, row.WeeklyPeriods)
	for unit := 0; unit < row.WeeklyPeriods; unit++ {
		cell, found := r.selector.Select(r.matrix, req)
		if !found {
			break
		}
		lesson := Lesson{
			ClassID:    classID,
			TeacherID:  teacherID,
			SubjectID:  row.SubjectID,
			TimeSlotID: cell.TimeSlotID,
			Day:        cell.Day,
			WeekNumber: r.settings.WeekNumber,
		}
		r.matrix.Place(lesson)
		lessons = append(lessons, lesson)
	}

	coverage.Placed = len(lessons)
	coverage.Shortfall = row.WeeklyPeriods - len(lessons)
	if coverage.Shortfall > 0 {
		coverage.Reason = ReasonNoSlotAvailable
		r.logger.Warn("lessons left unscheduled",
			zap.String("class_id", classID),
			zap.String("subject_id", row.SubjectID),
			zap.String("teacher_id", teacherID),
			zap.Int("required", row.WeeklyPeriods),
			zap.Int("placed", len(lessons)),
		)
	}
	return lessons, coverage
}

func summarise(lessons []Lesson, coverage []Coverage) Summary {
	classes := make(map[string]struct{})
	teachers := make(map[string]struct{})
	for _, l := range lessons {
		classes[l.ClassID] = struct{}{}
		teachers[l.TeacherID] = struct{}{}
	}
	shortfall := 0
	for _, c := range coverage {
		shortfall += c.Shortfall
	}
	return Summary{
		TotalLessons:     len(lessons),
		ClassesScheduled: len(classes),
		TeachersInvolved: len(teachers),
		ShortfallLessons: shortfall,
	}
}

func sortDaySlots(cells []DaySlot, slots []models.TimeSlot) {
	order := make(map[string]int, len(slots))
	for _, slot := range slots {
		order[slot.ID] = slot.OrderIndex
	}
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].Day != cells[j].Day {
			return cells[i].Day < cells[j].Day
		}
		return order[cells[i].TimeSlotID] < order[cells[j].TimeSlotID]
	})
}
