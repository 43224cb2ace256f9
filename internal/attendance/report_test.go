package attendance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/apperr"
	"classattend/internal/model"
)

// addLectures schedules n past lectures for a subject and cohort, one per day
// counting back from the clock, and returns their ids.
func addLectures(f *fakeStore, subjectID, cohort string, n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := subjectID + "-lec-" + string(rune('a'+i))
		f.lectures[id] = model.Lecture{
			ID: id, SubjectID: subjectID, TeacherID: "tea-1",
			Date: model.DateOnly(fixedNow.AddDate(0, 0, -(i + 1))), StartTime: "09:00", EndTime: "10:00", Cohort: cohort,
		}
		ids = append(ids, id)
	}
	return ids
}

func TestStudentSummaryPercentages(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	lectures := addLectures(f, "sub-1", "2022 A", 10)
	for i, id := range lectures {
		status := model.StatusPresent
		if i >= 7 {
			status = model.StatusAbsent
		}
		_, err := svc.MarkBulk(context.Background(), id, []MarkEntry{{StudentID: "stu-1", Status: status}}, "tea-1")
		require.NoError(t, err)
	}

	summary, err := svc.StudentSummary(context.Background(), "stu-1")
	require.NoError(t, err)

	require.Len(t, summary.Subjects, 1)
	subj := summary.Subjects[0]
	assert.Equal(t, "sub-1", subj.SubjectID)
	assert.Equal(t, "CS301", subj.SubjectCode)
	assert.Equal(t, int64(10), subj.Expected)
	assert.Equal(t, int64(7), subj.Attended)
	assert.InDelta(t, 70.0, subj.Percentage, 1e-9)
	assert.InDelta(t, 70.0, summary.OverallPercentage, 1e-9)
	assert.Equal(t, "2022 A", summary.Cohort)
}

func TestStudentSummaryZeroLecturesIsZeroPercent(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	summary, err := svc.StudentSummary(context.Background(), "stu-1")
	require.NoError(t, err)

	require.Len(t, summary.Subjects, 1)
	assert.Equal(t, int64(0), summary.Subjects[0].Expected)
	assert.Equal(t, 0.0, summary.Subjects[0].Percentage)
	assert.Equal(t, 0.0, summary.OverallPercentage)
}

func TestStudentSummaryExcludesFutureLectures(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	past := addLectures(f, "sub-1", "2022 A", 2)
	f.lectures["lec-future"] = model.Lecture{
		ID: "lec-future", SubjectID: "sub-1", TeacherID: "tea-1",
		Date: model.DateOnly(fixedNow.AddDate(0, 0, 5)), StartTime: "09:00", EndTime: "10:00", Cohort: "2022 A",
	}
	_, err := svc.MarkBulk(context.Background(), past[0], []MarkEntry{{StudentID: "stu-1", Status: model.StatusPresent}}, "tea-1")
	require.NoError(t, err)

	summary, err := svc.StudentSummary(context.Background(), "stu-1")
	require.NoError(t, err)

	require.Len(t, summary.Subjects, 1)
	assert.Equal(t, int64(2), summary.Subjects[0].Expected)
	assert.Equal(t, int64(1), summary.Subjects[0].Attended)
	assert.InDelta(t, 50.0, summary.Subjects[0].Percentage, 1e-9)
}

func TestStudentSummaryExcludesOtherCohorts(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	addLectures(f, "sub-1", "2022 A", 3)
	// Same subject taught to a different cohort must not inflate the denominator.
	f.lectures["lec-other"] = model.Lecture{
		ID: "lec-other", SubjectID: "sub-1", TeacherID: "tea-1",
		Date: model.DateOnly(fixedNow.AddDate(0, 0, -1)), StartTime: "11:00", EndTime: "12:00", Cohort: "2023 B",
	}

	summary, err := svc.StudentSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, summary.Subjects, 1)
	assert.Equal(t, int64(3), summary.Subjects[0].Expected)
}

func TestStudentSummaryAggregatesAcrossSubjects(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	f.subjects["sub-2"] = model.Subject{ID: "sub-2", Name: "Databases", Code: "CS302", DepartmentID: "dep-1"}
	svc := NewService(f, f, WithClock(fixedClock))

	osLectures := addLectures(f, "sub-1", "2022 A", 4)
	dbLectures := addLectures(f, "sub-2", "2022 A", 6)
	for _, id := range osLectures {
		_, err := svc.MarkBulk(context.Background(), id, []MarkEntry{{StudentID: "stu-1", Status: model.StatusPresent}}, "tea-1")
		require.NoError(t, err)
	}
	for i, id := range dbLectures {
		status := model.StatusPresent
		if i >= 2 {
			status = model.StatusLeave
		}
		_, err := svc.MarkBulk(context.Background(), id, []MarkEntry{{StudentID: "stu-1", Status: status}}, "tea-1")
		require.NoError(t, err)
	}

	summary, err := svc.StudentSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, summary.Subjects, 2)

	// 4 of 4 in one subject, 2 of 6 in the other: 6 of 10 overall.
	assert.InDelta(t, 60.0, summary.OverallPercentage, 1e-9)
}

func TestStudentSummaryCohortWithoutSection(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	f.students["stu-3"] = model.Student{ID: "stu-3", UserID: "usr-s3", RollNumber: "21CS009", DepartmentID: "dep-1", BatchYear: 2021}
	svc := NewService(f, f, WithClock(fixedClock))

	addLectures(f, "sub-1", "2021", 2)

	summary, err := svc.StudentSummary(context.Background(), "stu-3")
	require.NoError(t, err)
	assert.Equal(t, "2021", summary.Cohort)
	require.Len(t, summary.Subjects, 1)
	assert.Equal(t, int64(2), summary.Subjects[0].Expected)
}

func TestStudentSummaryUnknownStudent(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, f, WithClock(fixedClock))

	_, err := svc.StudentSummary(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestPercentageGuardsZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, percentage(0, 0))
	assert.Equal(t, 0.0, percentage(5, 0))
	assert.InDelta(t, 100.0, percentage(3, 3), 1e-9)
}

// Leave and absent both count against the percentage; only PRESENT attends.
func TestStudentSummaryLeaveDoesNotCountAsAttended(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	lectures := addLectures(f, "sub-1", "2022 A", 2)
	_, err := svc.MarkBulk(context.Background(), lectures[0], []MarkEntry{{StudentID: "stu-1", Status: model.StatusLeave}}, "tea-1")
	require.NoError(t, err)
	_, err = svc.MarkBulk(context.Background(), lectures[1], []MarkEntry{{StudentID: "stu-1", Status: model.StatusPresent}}, "tea-1")
	require.NoError(t, err)

	summary, err := svc.StudentSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Subjects[0].Attended)
	assert.InDelta(t, 50.0, summary.Subjects[0].Percentage, 1e-9)
}
