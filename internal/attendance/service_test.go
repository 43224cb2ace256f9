package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/apperr"
	"classattend/internal/model"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// seedBasics populates one department, subject, teacher, and two students,
// plus a lecture on the given date. Returns the lecture id.
func seedBasics(f *fakeStore, lectureDate time.Time) string {
	f.subjects["sub-1"] = model.Subject{ID: "sub-1", Name: "Operating Systems", Code: "CS301", DepartmentID: "dep-1"}
	f.teachers["tea-1"] = model.Teacher{ID: "tea-1", UserID: "usr-t1", EmployeeCode: "EMP01", DepartmentID: "dep-1"}
	f.students["stu-1"] = model.Student{ID: "stu-1", UserID: "usr-s1", RollNumber: "22CS001", DepartmentID: "dep-1", BatchYear: 2022, Section: "A"}
	f.students["stu-2"] = model.Student{ID: "stu-2", UserID: "usr-s2", RollNumber: "22CS002", DepartmentID: "dep-1", BatchYear: 2022, Section: "A"}
	f.lectures["lec-1"] = model.Lecture{
		ID: "lec-1", SubjectID: "sub-1", TeacherID: "tea-1",
		Date: model.DateOnly(lectureDate), StartTime: "09:00", EndTime: "10:00", Cohort: "2022 A",
	}
	return "lec-1"
}

func TestMarkBulkCreatesRecordsInInputOrder(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	records, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-2", Status: model.StatusAbsent},
		{StudentID: "stu-1", Status: model.StatusPresent},
	}, "tea-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "stu-2", records[0].StudentID)
	assert.Equal(t, model.StatusAbsent, records[0].Status)
	assert.Equal(t, "stu-1", records[1].StudentID)
	assert.Equal(t, model.StatusPresent, records[1].Status)
	for _, rec := range records {
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, "tea-1", rec.MarkedBy)
		assert.Equal(t, fixedNow, rec.MarkedAt)
	}
}

func TestMarkBulkRemarkOverwritesInsteadOfDuplicating(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	now := fixedNow
	svc := NewService(f, f, WithClock(func() time.Time { return now }))

	first, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusAbsent},
	}, "tea-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	second, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusPresent},
	}, "tea-1")
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID, "re-marking must update the existing record")
	assert.Len(t, f.records, 1)

	stored, err := f.FindByLectureAndStudent(context.Background(), lectureID, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, stored.Status)
	assert.Equal(t, now, stored.MarkedAt)
}

func TestMarkBulkRejectsFutureLecture(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow.AddDate(0, 0, 1))
	svc := NewService(f, f, WithClock(fixedClock))

	_, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusPresent},
	}, "tea-1")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidOperation(err))
	assert.Empty(t, f.records, "a rejected mark must persist nothing")
}

func TestMarkBulkAllowsLectureScheduledToday(t *testing.T) {
	f := newFakeStore()
	// Lecture later today; only the date matters.
	lectureID := seedBasics(f, fixedNow)
	f.lectures[lectureID] = func() model.Lecture {
		l := f.lectures[lectureID]
		l.StartTime = "23:00"
		l.EndTime = "23:45"
		return l
	}()
	svc := NewService(f, f, WithClock(fixedClock))

	records, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusPresent},
	}, "tea-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMarkBulkUnknownStudentAbortsWholeBatch(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	_, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusPresent},
		{StudentID: "nope", Status: model.StatusPresent},
	}, "tea-1")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, f.records, "valid entries before the bad one must not be written")
}

func TestMarkBulkUnknownLectureOrTeacher(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))
	entries := []MarkEntry{{StudentID: "stu-1", Status: model.StatusPresent}}

	_, err := svc.MarkBulk(context.Background(), "missing", entries, "tea-1")
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.MarkBulk(context.Background(), lectureID, entries, "missing")
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, f.records)
}

func TestMarkBulkRejectsUnknownStatus(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	_, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.Status("SLEEPING")},
	}, "tea-1")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidOperation(err))
	assert.Empty(t, f.records)
}

func TestMarkBulkPublishesMarkedEvent(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	pub := &capturingPublisher{}
	svc := NewService(f, f, WithClock(fixedClock), WithPublisher(pub))

	_, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusPresent},
		{StudentID: "stu-2", Status: model.StatusLeave},
	}, "tea-1")
	require.NoError(t, err)

	require.Len(t, pub.calls, 1)
	assert.Equal(t, lectureID, pub.calls[0].LectureID)
	assert.Equal(t, []string{"stu-1", "stu-2"}, pub.calls[0].StudentIDs)
}

func TestUpdateSingleChangesStatusAndActor(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	f.teachers["tea-2"] = model.Teacher{ID: "tea-2", UserID: "usr-t2", EmployeeCode: "EMP02", DepartmentID: "dep-1"}
	now := fixedNow
	svc := NewService(f, f, WithClock(func() time.Time { return now }))

	created, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusAbsent},
	}, "tea-1")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	updated, err := svc.UpdateSingle(context.Background(), created[0].ID, model.StatusLeave, "tea-2")
	require.NoError(t, err)

	assert.Equal(t, created[0].ID, updated.ID)
	assert.Equal(t, model.StatusLeave, updated.Status)
	assert.Equal(t, "tea-2", updated.MarkedBy)
	assert.Equal(t, now, updated.MarkedAt)
	assert.Len(t, f.records, 1)
}

func TestUpdateSingleUnknownRecord(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	_, err := svc.UpdateSingle(context.Background(), "missing", model.StatusPresent, "tea-1")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateSingleRejectsUnknownStatus(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	created, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusPresent},
	}, "tea-1")
	require.NoError(t, err)

	_, err = svc.UpdateSingle(context.Background(), created[0].ID, model.Status("MAYBE"), "tea-1")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidOperation(err))

	stored, err := f.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, stored.Status)
}

func TestListByLectureUnknownLecture(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, f, WithClock(fixedClock))

	_, err := svc.ListByLecture(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestListByStudentDateRangeIsInclusive(t *testing.T) {
	f := newFakeStore()
	seedBasics(f, fixedNow)
	// Four lectures across four days, one record each.
	days := []time.Time{
		fixedNow.AddDate(0, 0, -3),
		fixedNow.AddDate(0, 0, -2),
		fixedNow.AddDate(0, 0, -1),
		fixedNow,
	}
	svc := NewService(f, f, WithClock(fixedClock))
	for i, day := range days {
		id := "lec-r" + string(rune('a'+i))
		f.lectures[id] = model.Lecture{
			ID: id, SubjectID: "sub-1", TeacherID: "tea-1",
			Date: model.DateOnly(day), StartTime: "09:00", EndTime: "10:00", Cohort: "2022 A",
		}
		_, err := svc.MarkBulk(context.Background(), id, []MarkEntry{
			{StudentID: "stu-1", Status: model.StatusPresent},
		}, "tea-1")
		require.NoError(t, err)
	}

	// [day-2, day-1] must include both boundary days and nothing else.
	start := days[1]
	end := days[2]
	records, err := svc.ListByStudent(context.Background(), "stu-1", &start, &end)
	require.NoError(t, err)
	require.Len(t, records, 2)

	got := map[string]bool{}
	for _, rec := range records {
		got[rec.LectureID] = true
	}
	assert.True(t, got["lec-rb"])
	assert.True(t, got["lec-rc"])
}

func TestListByStudentIgnoresHalfOpenRange(t *testing.T) {
	f := newFakeStore()
	lectureID := seedBasics(f, fixedNow)
	svc := NewService(f, f, WithClock(fixedClock))

	_, err := svc.MarkBulk(context.Background(), lectureID, []MarkEntry{
		{StudentID: "stu-1", Status: model.StatusPresent},
	}, "tea-1")
	require.NoError(t, err)

	// Only a start date: the range filter does not apply.
	start := fixedNow.AddDate(0, 0, 10)
	records, err := svc.ListByStudent(context.Background(), "stu-1", &start, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListByStudentUnknownStudent(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, f, WithClock(fixedClock))

	_, err := svc.ListByStudent(context.Background(), "missing", nil, nil)
	assert.True(t, apperr.IsNotFound(err))
}
