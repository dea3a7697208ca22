package timetable

import "fmt"

// OccupantKind tells a real lesson apart from a class-only reservation.
type OccupantKind uint8

const (
	OccupantTeacher OccupantKind = iota + 1
	OccupantSpecialActivity
	OccupantElectiveReservation
)

// ActivityKind names a fixed non-subject period.
type ActivityKind string

const (
	ActivityFlagCeremony  ActivityKind = "flag_ceremony"
	ActivityClassActivity ActivityKind = "class_activity"
)

// Occupant is what holds a (class, day, slot) cell. Only teacher occupants
// also hold the teacher's cell; reservations block the class alone.
type Occupant struct {
	Kind      OccupantKind
	TeacherID string
	Activity  ActivityKind
}

// RealTeacher is a lesson delivered by teacherID.
func RealTeacher(teacherID string) Occupant {
	return Occupant{Kind: OccupantTeacher, TeacherID: teacherID}
}

// SpecialActivity reserves a slot for a fixed activity.
func SpecialActivity(kind ActivityKind) Occupant {
	return Occupant{Kind: OccupantSpecialActivity, Activity: kind}
}

// ElectiveReservation keeps a base-class slot open for combined-class electives.
func ElectiveReservation() Occupant {
	return Occupant{Kind: OccupantElectiveReservation}
}

// BlocksTeacher reports whether marking this occupant also marks a teacher busy.
func (o Occupant) BlocksTeacher() bool {
	return o.Kind == OccupantTeacher && o.TeacherID != ""
}

func (o Occupant) String() string {
	switch o.Kind {
	case OccupantTeacher:
		return "teacher:" + o.TeacherID
	case OccupantSpecialActivity:
		return "activity:" + string(o.Activity)
	case OccupantElectiveReservation:
		return "elective_reservation"
	default:
		return fmt.Sprintf("occupant(%d)", o.Kind)
	}
}
