package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/model"
)

// fakeStore is an in-memory Ledger plus Directory used by the service tests.
// It mirrors the Postgres repo semantics: one record per (lecture, student)
// pair, date-range queries inclusive on both ends against the lecture date.
type fakeStore struct {
	mu       sync.Mutex
	lectures map[string]model.Lecture
	students map[string]model.Student
	teachers map[string]model.Teacher
	subjects map[string]model.Subject
	records  map[string]model.AttendanceRecord
	byPair   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lectures: map[string]model.Lecture{},
		students: map[string]model.Student{},
		teachers: map[string]model.Teacher{},
		subjects: map[string]model.Subject{},
		records:  map[string]model.AttendanceRecord{},
		byPair:   map[string]string{},
	}
}

func pairKey(lectureID, studentID string) string { return lectureID + "|" + studentID }

// Directory

func (f *fakeStore) LectureByID(_ context.Context, id string) (model.Lecture, error) {
	if l, ok := f.lectures[id]; ok {
		return l, nil
	}
	return model.Lecture{}, apperr.NotFoundf("lecture not found with id %s", id)
}

func (f *fakeStore) StudentByID(_ context.Context, id string) (model.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return model.Student{}, apperr.NotFoundf("student not found with id %s", id)
}

func (f *fakeStore) TeacherByID(_ context.Context, id string) (model.Teacher, error) {
	if t, ok := f.teachers[id]; ok {
		return t, nil
	}
	return model.Teacher{}, apperr.NotFoundf("teacher not found with id %s", id)
}

func (f *fakeStore) SubjectsByDepartment(_ context.Context, departmentID string) ([]model.Subject, error) {
	var out []model.Subject
	for _, s := range f.subjects {
		if s.DepartmentID == departmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

// Ledger

func (f *fakeStore) Upsert(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upsertLocked(rec), nil
}

func (f *fakeStore) UpsertBatch(_ context.Context, recs []model.AttendanceRecord) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AttendanceRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, f.upsertLocked(rec))
	}
	return out, nil
}

func (f *fakeStore) upsertLocked(rec model.AttendanceRecord) model.AttendanceRecord {
	key := pairKey(rec.LectureID, rec.StudentID)
	if id, ok := f.byPair[key]; ok {
		existing := f.records[id]
		existing.Status = rec.Status
		existing.MarkedBy = rec.MarkedBy
		existing.MarkedAt = rec.MarkedAt
		f.records[id] = existing
		return existing
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	f.records[rec.ID] = rec
	f.byPair[key] = rec.ID
	return rec
}

func (f *fakeStore) GetByID(_ context.Context, id string) (model.AttendanceRecord, error) {
	if rec, ok := f.records[id]; ok {
		return rec, nil
	}
	return model.AttendanceRecord{}, apperr.NotFoundf("attendance record not found with id %s", id)
}

func (f *fakeStore) FindByLectureAndStudent(_ context.Context, lectureID, studentID string) (model.AttendanceRecord, error) {
	if id, ok := f.byPair[pairKey(lectureID, studentID)]; ok {
		return f.records[id], nil
	}
	return model.AttendanceRecord{}, apperr.NotFoundf("attendance record not found for lecture %s and student %s", lectureID, studentID)
}

func (f *fakeStore) FindByLecture(_ context.Context, lectureID string) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, rec := range f.records {
		if rec.LectureID == lectureID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByStudent(_ context.Context, studentID string) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, rec := range f.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByStudentInDateRange(_ context.Context, studentID string, start, end time.Time) ([]model.AttendanceRecord, error) {
	startDay := model.DateOnly(start)
	endDay := model.DateOnly(end)
	var out []model.AttendanceRecord
	for _, rec := range f.records {
		if rec.StudentID != studentID {
			continue
		}
		day := f.lectures[rec.LectureID].Date
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status model.Status, teacherID string, at time.Time) (model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return model.AttendanceRecord{}, apperr.NotFoundf("attendance record not found with id %s", id)
	}
	rec.Status = status
	rec.MarkedBy = teacherID
	rec.MarkedAt = at
	f.records[id] = rec
	return rec, nil
}

func (f *fakeStore) CountPresent(_ context.Context, studentID, subjectID string) (int64, error) {
	var n int64
	for _, rec := range f.records {
		if rec.StudentID != studentID || rec.Status != model.StatusPresent {
			continue
		}
		if f.lectures[rec.LectureID].SubjectID == subjectID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountExpectedLectures(_ context.Context, subjectID, cohort string, upTo time.Time) (int64, error) {
	limit := model.DateOnly(upTo)
	var n int64
	for _, l := range f.lectures {
		if l.SubjectID == subjectID && l.Cohort == cohort && !l.Date.After(limit) {
			n++
		}
	}
	return n, nil
}

// capturingPublisher records published events.
type capturingPublisher struct {
	calls []struct {
		LectureID  string
		StudentIDs []string
	}
}

func (p *capturingPublisher) AttendanceMarked(_ context.Context, lectureID string, studentIDs []string) {
	p.calls = append(p.calls, struct {
		LectureID  string
		StudentIDs []string
	}{lectureID, studentIDs})
}
