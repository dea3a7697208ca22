package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// SlotRequest describes one lesson unit to place.
type SlotRequest struct {
	ClassID       string
	TeacherID     string
	SubjectID     string
	SubjectCode   string
	WeeklyPeriods int
	// Preferred cells are tried before the regular day/slot order.
	Preferred []DaySlot
}

type constraintKey struct {
	kind   entityKind
	id     string
	day    models.DayOfWeek
	slotID string
}

// SlotSelector is the first-fit search over days and preference-ordered slots.
// Placement is greedy: the first acceptable cell wins and is never revisited.
type SlotSelector struct {
	classifier  SubjectClassifier
	settings    Settings
	slots       []models.TimeSlot
	lessonSlot  map[string]struct{}
	constraints map[constraintKey]struct{}
}

// NewSlotSelector prepares the selector for one run.
func NewSlotSelector(slots []models.TimeSlot, constraints []models.ScheduleConstraint, classifier SubjectClassifier, settings Settings) *SlotSelector {
	ordered := lessonSlots(slots)
	index := make(map[string]struct{}, len(ordered))
	for _, slot := range ordered {
		index[slot.ID] = struct{}{}
	}
	return &SlotSelector{
		classifier:  classifier,
		settings:    settings.normalised(),
		slots:       ordered,
		lessonSlot:  index,
		constraints: indexConstraints(constraints),
	}
}

func indexConstraints(constraints []models.ScheduleConstraint) map[constraintKey]struct{} {
	index := make(map[constraintKey]struct{}, len(constraints))
	for _, c := range constraints {
		if !c.IsActive {
			continue
		}
		key := constraintKey{day: models.DayOfWeek(c.DayOfWeek), slotID: c.TimeSlotID}
		switch c.Type {
		case models.ConstraintTeacherUnavailable:
			if c.TeacherID == nil {
				continue
			}
			key.kind, key.id = entityTeacher, *c.TeacherID
		case models.ConstraintClassUnavailable:
			if c.ClassID == nil {
				continue
			}
			key.kind, key.id = entityClass, *c.ClassID
		default:
			continue
		}
		index[key] = struct{}{}
	}
	return index
}

// OrderedSlots returns the non-break slots in the search order for a subject
// code: morning first for core subjects, afternoon first for practical ones,
// natural order otherwise.
func (s *SlotSelector) OrderedSlots(subjectCode string) []models.TimeSlot {
	pref := s.classifier.Classify(subjectCode)
	if pref == PreferNeutral {
		return append([]models.TimeSlot(nil), s.slots...)
	}
	morning := make([]models.TimeSlot, 0, len(s.slots))
	afternoon := make([]models.TimeSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		if s.classifier.IsMorning(slot.OrderIndex) {
			morning = append(morning, slot)
		} else {
			afternoon = append(afternoon, slot)
		}
	}
	if pref == PreferMorning {
		return append(morning, afternoon...)
	}
	return append(afternoon, morning...)
}

// Select returns the first acceptable (day, slot) for the request, or false
// when every candidate is taken or excluded.
func (s *SlotSelector) Select(m *ConflictMatrix, req SlotRequest) (DaySlot, bool) {
	for _, candidate := range req.Preferred {
		if s.Accepts(m, req, candidate.Day, candidate.TimeSlotID) {
			return candidate, true
		}
	}

	ordered := s.OrderedSlots(req.SubjectCode)
	for _, day := range s.dayOrder(m, req.TeacherID) {
		for _, slot := range ordered {
			if s.Accepts(m, req, day, slot.ID) {
				return DaySlot{Day: day, TimeSlotID: slot.ID}, true
			}
		}
	}
	return DaySlot{}, false
}

// Accepts applies every feasibility rule to one cell.
func (s *SlotSelector) Accepts(m *ConflictMatrix, req SlotRequest, day models.DayOfWeek, slotID string) bool {
	if _, ok := s.lessonSlot[slotID]; !ok {
		return false
	}
	if !s.dayAllowed(day) {
		return false
	}
	if !m.IsClassFree(req.ClassID, day, slotID) || !m.IsTeacherFree(req.TeacherID, day, slotID) {
		return false
	}
	if s.settings.RespectConstraints && s.constrained(req, day, slotID) {
		return false
	}
	if s.settings.MaxPeriodsPerDay > 0 && m.ClassDayLoad(req.ClassID, day) >= s.settings.MaxPeriodsPerDay {
		return false
	}
	if s.settings.BalanceSubjects && m.SubjectDayCount(req.ClassID, req.SubjectID, day) >= s.dailySubjectCap(req.WeeklyPeriods) {
		return false
	}
	return true
}

func (s *SlotSelector) constrained(req SlotRequest, day models.DayOfWeek, slotID string) bool {
	if _, ok := s.constraints[constraintKey{kind: entityClass, id: req.ClassID, day: day, slotID: slotID}]; ok {
		return true
	}
	_, ok := s.constraints[constraintKey{kind: entityTeacher, id: req.TeacherID, day: day, slotID: slotID}]
	return ok
}

func (s *SlotSelector) dayAllowed(day models.DayOfWeek) bool {
	for _, d := range s.settings.Days {
		if d == day {
			return true
		}
	}
	return false
}

// dailySubjectCap spreads weekly periods evenly: ceil(weekly / days), at least 1.
func (s *SlotSelector) dailySubjectCap(weekly int) int {
	days := len(s.settings.Days)
	if weekly <= 0 || days == 0 {
		return 1
	}
	return (weekly + days - 1) / days
}

func (s *SlotSelector) dayOrder(m *ConflictMatrix, teacherID string) []models.DayOfWeek {
	days := append([]models.DayOfWeek(nil), s.settings.Days...)
	if !s.settings.OptimizeWorkload {
		return days
	}
	sort.SliceStable(days, func(i, j int) bool {
		return m.TeacherDayLoad(teacherID, days[i]) < m.TeacherDayLoad(teacherID, days[j])
	})
	return days
}
