package models

import "strings"

// DayOfWeek is 1 (Monday) through 7 (Sunday).
type DayOfWeek int

const (
	Monday DayOfWeek = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Valid reports whether d is within 1–7.
func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Name returns the lowercase English weekday persisted in schedules.day_of_week.
func (d DayOfWeek) Name() string {
	if !d.Valid() {
		return ""
	}
	return dayNames[d]
}

// ParseDayOfWeek maps a weekday name (any case) back to its number; 0 when unknown.
func ParseDayOfWeek(name string) DayOfWeek {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := 1; i < len(dayNames); i++ {
		if dayNames[i] == name {
			return DayOfWeek(i)
		}
	}
	return 0
}

// SchoolDays are the days lessons may be generated on (no Sunday lessons).
func SchoolDays() []DayOfWeek {
	return []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}
