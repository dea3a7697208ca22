package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Reservation is a class cell held without a schedule entry.
type Reservation struct {
	ClassID    string           `json:"class_id"`
	Day        models.DayOfWeek `json:"day_of_week"`
	TimeSlotID string           `json:"time_slot_id"`
	Kind       string           `json:"kind"`
}

// electivePoolPattern lists, per weekday, the order_index values kept free in
// base classes for combined-class electives.
var electivePoolPattern = map[models.DayOfWeek][]int{
	models.Tuesday:   {6, 7},
	models.Wednesday: {6, 7},
	models.Thursday:  {8, 9},
	models.Friday:    {8, 9},
	models.Saturday:  {6, 7},
}

// SpecialActivityCells returns the flag ceremony cell (first lesson slot on
// Monday) and the class activity cell (last lesson slot on Saturday).
func SpecialActivityCells(slots []models.TimeSlot) map[ActivityKind]DaySlot {
	ordered := lessonSlots(slots)
	if len(ordered) == 0 {
		return nil
	}
	return map[ActivityKind]DaySlot{
		ActivityFlagCeremony:  {Day: models.Monday, TimeSlotID: ordered[0].ID},
		ActivityClassActivity: {Day: models.Saturday, TimeSlotID: ordered[len(ordered)-1].ID},
	}
}

// ReserveSpecialActivities blocks the fixed activity cells for every class.
func ReserveSpecialActivities(m *ConflictMatrix, classes []models.Class, slots []models.TimeSlot) []Reservation {
	cells := SpecialActivityCells(slots)
	if len(cells) == 0 {
		return nil
	}
	kinds := []ActivityKind{ActivityFlagCeremony, ActivityClassActivity}
	reservations := make([]Reservation, 0, len(classes)*len(kinds))
	for _, class := range classes {
		for _, kind := range kinds {
			cell := cells[kind]
			if !m.IsClassFree(class.ID, cell.Day, cell.TimeSlotID) {
				continue
			}
			m.MarkOccupied(class.ID, SpecialActivity(kind), cell.Day, cell.TimeSlotID)
			reservations = append(reservations, Reservation{
				ClassID:    class.ID,
				Day:        cell.Day,
				TimeSlotID: cell.TimeSlotID,
				Kind:       string(kind),
			})
		}
	}
	return reservations
}

// ElectivePool resolves the elective pattern against the loaded slots. Pattern
// entries with no matching non-break slot are dropped.
func ElectivePool(slots []models.TimeSlot) []DaySlot {
	byOrder := make(map[int]string)
	for _, slot := range lessonSlots(slots) {
		if _, exists := byOrder[slot.OrderIndex]; !exists {
			byOrder[slot.OrderIndex] = slot.ID
		}
	}

	days := make([]models.DayOfWeek, 0, len(electivePoolPattern))
	for day := range electivePoolPattern {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	var pool []DaySlot
	for _, day := range days {
		for _, order := range electivePoolPattern[day] {
			if id, ok := byOrder[order]; ok {
				pool = append(pool, DaySlot{Day: day, TimeSlotID: id})
			}
		}
	}
	return pool
}

// reserveElectivePool holds the free pool cells of a base class and returns the
// cells it actually reserved.
func reserveElectivePool(m *ConflictMatrix, classID string, pool []DaySlot) []DaySlot {
	reserved := make([]DaySlot, 0, len(pool))
	for _, cell := range pool {
		if !m.IsClassFree(classID, cell.Day, cell.TimeSlotID) {
			continue
		}
		m.MarkOccupied(classID, ElectiveReservation(), cell.Day, cell.TimeSlotID)
		reserved = append(reserved, cell)
	}
	return reserved
}
