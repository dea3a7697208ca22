package timetable

import "github.com/noah-isme/sma-timetable-api/internal/models"

type entityKind uint8

const (
	entityClass entityKind = iota + 1
	entityTeacher
)

type cellKey struct {
	kind   entityKind
	id     string
	day    models.DayOfWeek
	slotID string
}

type dayKey struct {
	kind entityKind
	id   string
	day  models.DayOfWeek
}

type subjectDayKey struct {
	classID   string
	subjectID string
	day       models.DayOfWeek
}

// ConflictMatrix is the occupancy index of one generation run. Class and
// teacher cells live in separate namespaces, so equal ids never collide.
type ConflictMatrix struct {
	cells      map[cellKey]Occupant
	lessons    map[dayKey]int
	subjectDay map[subjectDayKey]int
}

// NewConflictMatrix returns an empty matrix.
func NewConflictMatrix() *ConflictMatrix {
	return &ConflictMatrix{
		cells:      make(map[cellKey]Occupant),
		lessons:    make(map[dayKey]int),
		subjectDay: make(map[subjectDayKey]int),
	}
}

// IsClassFree reports whether nothing occupies the class at (day, slot).
func (m *ConflictMatrix) IsClassFree(classID string, day models.DayOfWeek, slotID string) bool {
	_, taken := m.cells[cellKey{kind: entityClass, id: classID, day: day, slotID: slotID}]
	return !taken
}

// IsTeacherFree reports whether the teacher has no lesson at (day, slot).
func (m *ConflictMatrix) IsTeacherFree(teacherID string, day models.DayOfWeek, slotID string) bool {
	_, taken := m.cells[cellKey{kind: entityTeacher, id: teacherID, day: day, slotID: slotID}]
	return !taken
}

// MarkOccupied records the occupant for the class and, for real lessons, the teacher.
func (m *ConflictMatrix) MarkOccupied(classID string, occupant Occupant, day models.DayOfWeek, slotID string) {
	m.cells[cellKey{kind: entityClass, id: classID, day: day, slotID: slotID}] = occupant
	if !occupant.BlocksTeacher() {
		return
	}
	m.cells[cellKey{kind: entityTeacher, id: occupant.TeacherID, day: day, slotID: slotID}] = occupant
	m.lessons[dayKey{kind: entityClass, id: classID, day: day}]++
	m.lessons[dayKey{kind: entityTeacher, id: occupant.TeacherID, day: day}]++
}

// Place marks a lesson and tracks its subject for per-day balancing.
func (m *ConflictMatrix) Place(lesson Lesson) {
	m.MarkOccupied(lesson.ClassID, RealTeacher(lesson.TeacherID), lesson.Day, lesson.TimeSlotID)
	m.subjectDay[subjectDayKey{classID: lesson.ClassID, subjectID: lesson.SubjectID, day: lesson.Day}]++
}

// OccupantAt returns the class occupant at (day, slot), if any.
func (m *ConflictMatrix) OccupantAt(classID string, day models.DayOfWeek, slotID string) (Occupant, bool) {
	occ, ok := m.cells[cellKey{kind: entityClass, id: classID, day: day, slotID: slotID}]
	return occ, ok
}

// ClassDayLoad counts real lessons of a class on a day.
func (m *ConflictMatrix) ClassDayLoad(classID string, day models.DayOfWeek) int {
	return m.lessons[dayKey{kind: entityClass, id: classID, day: day}]
}

// TeacherDayLoad counts lessons a teacher delivers on a day.
func (m *ConflictMatrix) TeacherDayLoad(teacherID string, day models.DayOfWeek) int {
	return m.lessons[dayKey{kind: entityTeacher, id: teacherID, day: day}]
}

// SubjectDayCount counts lessons of a subject for a class on a day.
func (m *ConflictMatrix) SubjectDayCount(classID, subjectID string, day models.DayOfWeek) int {
	return m.subjectDay[subjectDayKey{classID: classID, subjectID: subjectID, day: day}]
}
