package timetable

import "strings"

// Preference is the part of the day a subject is placed in first.
type Preference int

const (
	PreferNeutral Preference = iota
	PreferMorning
	PreferAfternoon
)

func (p Preference) String() string {
	switch p {
	case PreferMorning:
		return "morning"
	case PreferAfternoon:
		return "afternoon"
	default:
		return "neutral"
	}
}

// Default subject code sets, matched case-insensitively.
var (
	DefaultCoreSubjects      = []string{"MATH", "LIT", "ENG", "PHYS", "CHEM", "BIO", "TOAN", "VAN", "ANH", "LY", "HOA", "SINH"}
	DefaultPracticalSubjects = []string{"PE", "ART", "MUSIC", "TECH", "IT", "HIST", "GEO", "CIVIC", "TD", "MT", "AN", "CN", "TIN", "SU", "DIA", "GDCD"}
)

// SubjectClassifier maps subject codes to a placement preference.
type SubjectClassifier struct {
	core          map[string]struct{}
	practical     map[string]struct{}
	morningCutoff int
}

// NewSubjectClassifier builds a classifier; empty sets fall back to the defaults
// and a non-positive cutoff falls back to 5.
func NewSubjectClassifier(core, practical []string, morningCutoff int) SubjectClassifier {
	if len(core) == 0 {
		core = DefaultCoreSubjects
	}
	if len(practical) == 0 {
		practical = DefaultPracticalSubjects
	}
	if morningCutoff <= 0 {
		morningCutoff = 5
	}
	return SubjectClassifier{
		core:          toCodeSet(core),
		practical:     toCodeSet(practical),
		morningCutoff: morningCutoff,
	}
}

func toCodeSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = normaliseCode(code)
		if code != "" {
			set[code] = struct{}{}
		}
	}
	return set
}

func normaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCore reports whether the code is a core (morning) subject.
func (c SubjectClassifier) IsCore(code string) bool {
	_, ok := c.core[normaliseCode(code)]
	return ok
}

// Classify returns the placement preference of a subject code.
func (c SubjectClassifier) Classify(code string) Preference {
	code = normaliseCode(code)
	if _, ok := c.core[code]; ok {
		return PreferMorning
	}
	if _, ok := c.practical[code]; ok {
		return PreferAfternoon
	}
	return PreferNeutral
}

// IsMorning reports whether an order index falls in the morning session.
func (c SubjectClassifier) IsMorning(orderIndex int) bool {
	cutoff := c.morningCutoff
	if cutoff <= 0 {
		cutoff = 5
	}
	return orderIndex <= cutoff
}
