package attendance

import (
	"context"
	"time"

	"classattend/internal/apperr"
	"classattend/internal/model"
)

// Ledger is the persistence contract for attendance records.
type Ledger interface {
	Upsert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	UpsertBatch(ctx context.Context, recs []model.AttendanceRecord) ([]model.AttendanceRecord, error)
	GetByID(ctx context.Context, id string) (model.AttendanceRecord, error)
	FindByLectureAndStudent(ctx context.Context, lectureID, studentID string) (model.AttendanceRecord, error)
	FindByLecture(ctx context.Context, lectureID string) ([]model.AttendanceRecord, error)
	FindByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)
	FindByStudentInDateRange(ctx context.Context, studentID string, start, end time.Time) ([]model.AttendanceRecord, error)
	UpdateStatus(ctx context.Context, id string, status model.Status, teacherID string, at time.Time) (model.AttendanceRecord, error)
	CountPresent(ctx context.Context, studentID, subjectID string) (int64, error)
	CountExpectedLectures(ctx context.Context, subjectID, cohort string, upTo time.Time) (int64, error)
}

// Directory resolves entities owned by the reference-data layer.
type Directory interface {
	LectureByID(ctx context.Context, id string) (model.Lecture, error)
	StudentByID(ctx context.Context, id string) (model.Student, error)
	TeacherByID(ctx context.Context, id string) (model.Teacher, error)
	SubjectsByDepartment(ctx context.Context, departmentID string) ([]model.Subject, error)
}

// Publisher announces committed marking operations so downstream consumers
// (cache invalidation, exports) can react. Implementations must not fail the
// marking operation.
type Publisher interface {
	AttendanceMarked(ctx context.Context, lectureID string, studentIDs []string)
}

// MarkEntry is one (student, status) pair of a bulk marking request.
type MarkEntry struct {
	StudentID string       `json:"student_id"`
	Status    model.Status `json:"status"`
}

// Service coordinates marking and reporting on the attendance ledger.
type Service struct {
	ledger Ledger
	dir    Directory
	events Publisher
	now    func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher wires an event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service backed by a ledger and a directory.
func NewService(ledger Ledger, dir Directory, opts ...Option) *Service {
	s := &Service{ledger: ledger, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkBulk marks attendance for a set of students against one lecture.
//
// The batch is all-or-nothing: every student is resolved before anything is
// written, and the upserts run in one transaction, so a single bad entry
// leaves the ledger untouched. Results come back in input order. Marking is
// rejected for lectures dated after today; today is derived from the clock's
// date, so a lecture becomes markable from its scheduled date onward
// regardless of time-of-day.
func (s *Service) MarkBulk(ctx context.Context, lectureID string, entries []MarkEntry, teacherID string) ([]model.AttendanceRecord, error) {
	lecture, err := s.dir.LectureByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if lecture.Date.After(model.DateOnly(now)) {
		return nil, apperr.InvalidOperationf("cannot mark attendance for a future lecture")
	}
	teacher, err := s.dir.TeacherByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	recs := make([]model.AttendanceRecord, 0, len(entries))
	for _, e := range entries {
		student, err := s.dir.StudentByID(ctx, e.StudentID)
		if err != nil {
			return nil, err
		}
		status, err := model.ParseStatus(string(e.Status))
		if err != nil {
			return nil, err
		}
		recs = append(recs, model.AttendanceRecord{
			LectureID: lecture.ID,
			StudentID: student.ID,
			Status:    status,
			MarkedBy:  teacher.ID,
			MarkedAt:  now,
		})
	}

	saved, err := s.ledger.UpsertBatch(ctx, recs)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		ids := make([]string, len(saved))
		for i, rec := range saved {
			ids[i] = rec.StudentID
		}
		s.events.AttendanceMarked(ctx, lecture.ID, ids)
	}
	return saved, nil
}

// UpdateSingle corrects one existing record. The lecture already occurred,
// so no future-date check applies; edits are not limited by a grace period.
func (s *Service) UpdateSingle(ctx context.Context, recordID string, status model.Status, teacherID string) (model.AttendanceRecord, error) {
	if _, err := s.ledger.GetByID(ctx, recordID); err != nil {
		return model.AttendanceRecord{}, err
	}
	teacher, err := s.dir.TeacherByID(ctx, teacherID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	parsed, err := model.ParseStatus(string(status))
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	rec, err := s.ledger.UpdateStatus(ctx, recordID, parsed, teacher.ID, s.now().UTC())
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if s.events != nil {
		s.events.AttendanceMarked(ctx, rec.LectureID, []string{rec.StudentID})
	}
	return rec, nil
}

// ListByLecture returns all records for one lecture.
func (s *Service) ListByLecture(ctx context.Context, lectureID string) ([]model.AttendanceRecord, error) {
	if _, err := s.dir.LectureByID(ctx, lectureID); err != nil {
		return nil, err
	}
	return s.ledger.FindByLecture(ctx, lectureID)
}

// ListByStudent returns a student's records, constrained to [start, end]
// (inclusive on both ends, against the lecture date) when both are given.
func (s *Service) ListByStudent(ctx context.Context, studentID string, start, end *time.Time) ([]model.AttendanceRecord, error) {
	if _, err := s.dir.StudentByID(ctx, studentID); err != nil {
		return nil, err
	}
	if start != nil && end != nil {
		return s.ledger.FindByStudentInDateRange(ctx, studentID, *start, *end)
	}
	return s.ledger.FindByStudent(ctx, studentID)
}
