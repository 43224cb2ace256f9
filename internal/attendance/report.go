package attendance

import (
	"context"
)

// SubjectSummary is one subject's attendance figures for a student.
type SubjectSummary struct {
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	SubjectCode string  `json:"subject_code"`
	Expected    int64   `json:"expected"`
	Attended    int64   `json:"attended"`
	Percentage  float64 `json:"percentage"`
}

// StudentSummary is the per-subject and overall attendance report of one
// student.
type StudentSummary struct {
	StudentID         string           `json:"student_id"`
	RollNumber        string           `json:"roll_number"`
	DepartmentID      string           `json:"department_id"`
	BatchYear         int              `json:"batch_year"`
	Section           string           `json:"section,omitempty"`
	Cohort            string           `json:"cohort"`
	Subjects          []SubjectSummary `json:"subjects"`
	OverallPercentage float64          `json:"overall_percentage"`
}

// StudentSummary computes attendance percentages for every subject in the
// student's department, using lectures scheduled for the student's cohort up
// to today as the denominator. A subject with no scheduled lectures reports
// 0.0, never an error.
func (s *Service) StudentSummary(ctx context.Context, studentID string) (StudentSummary, error) {
	student, err := s.dir.StudentByID(ctx, studentID)
	if err != nil {
		return StudentSummary{}, err
	}
	subjects, err := s.dir.SubjectsByDepartment(ctx, student.DepartmentID)
	if err != nil {
		return StudentSummary{}, err
	}

	cohort := student.CohortLabel()
	asOf := s.now().UTC()

	summary := StudentSummary{
		StudentID:    student.ID,
		RollNumber:   student.RollNumber,
		DepartmentID: student.DepartmentID,
		BatchYear:    student.BatchYear,
		Section:      student.Section,
		Cohort:       cohort,
		Subjects:     make([]SubjectSummary, 0, len(subjects)),
	}

	var totalExpected, totalAttended int64
	for _, subj := range subjects {
		attended, err := s.ledger.CountPresent(ctx, student.ID, subj.ID)
		if err != nil {
			return StudentSummary{}, err
		}
		expected, err := s.ledger.CountExpectedLectures(ctx, subj.ID, cohort, asOf)
		if err != nil {
			return StudentSummary{}, err
		}
		summary.Subjects = append(summary.Subjects, SubjectSummary{
			SubjectID:   subj.ID,
			SubjectName: subj.Name,
			SubjectCode: subj.Code,
			Expected:    expected,
			Attended:    attended,
			Percentage:  percentage(attended, expected),
		})
		totalExpected += expected
		totalAttended += attended
	}
	summary.OverallPercentage = percentage(totalAttended, totalExpected)
	return summary, nil
}

// percentage guards the zero denominator so an empty schedule yields 0.0
// rather than NaN.
func percentage(attended, expected int64) float64 {
	if expected <= 0 {
		return 0.0
	}
	return float64(attended) / float64(expected) * 100
}
