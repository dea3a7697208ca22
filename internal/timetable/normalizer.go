package timetable

import "github.com/noah-isme/sma-timetable-api/internal/models"

// ExpandTemplates derives class-specific curriculum rows from template rows.
// A template applies to a class when it is school-wide or targets the class's
// grade level. When both kinds name the same subject for a class, the
// grade-level row wins; otherwise the first template wins.
func ExpandTemplates(termID string, classes []models.Class, templates []models.CurriculumAssignment) []models.CurriculumAssignment {
	var derived []models.CurriculumAssignment
	for _, class := range classes {
		bySubject := make(map[string]int)
		gradeSpecific := make(map[string]bool)
		for _, tpl := range templates {
			if !tpl.IsTemplate() {
				continue
			}
			specific := tpl.GradeLevelID != nil && *tpl.GradeLevelID != ""
			if specific && *tpl.GradeLevelID != class.GradeLevelID {
				continue
			}

			classID := class.ID
			row := models.CurriculumAssignment{
				TermID:        termID,
				SubjectID:     tpl.SubjectID,
				ClassID:       &classID,
				WeeklyPeriods: tpl.WeeklyPeriods,
				Type:          tpl.Type,
			}

			idx, exists := bySubject[tpl.SubjectID]
			if !exists {
				bySubject[tpl.SubjectID] = len(derived)
				gradeSpecific[tpl.SubjectID] = specific
				derived = append(derived, row)
				continue
			}
			if specific && !gradeSpecific[tpl.SubjectID] {
				derived[idx] = row
				gradeSpecific[tpl.SubjectID] = true
			}
		}
	}
	return derived
}
