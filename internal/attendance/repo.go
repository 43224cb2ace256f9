package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/model"
)

// Repository persists attendance records in Postgres. The unique index on
// (lecture_id, student_id) backs the upsert, so concurrent marking of the
// same pair can never produce two records.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const upsertSQL = `
	INSERT INTO attendance_records (id, lecture_id, student_id, status, marked_by_teacher_id, marked_at)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (lecture_id, student_id) DO UPDATE SET
		status = EXCLUDED.status,
		marked_by_teacher_id = EXCLUDED.marked_by_teacher_id,
		marked_at = EXCLUDED.marked_at
	RETURNING id`

// Upsert inserts a record for the (lecture, student) pair or overwrites the
// existing one in a single atomic statement.
func (r *Repository) Upsert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	return upsertOne(ctx, r.db, rec)
}

// UpsertBatch applies all upserts inside one transaction. Any failure rolls
// the whole batch back.
func (r *Repository) UpsertBatch(ctx context.Context, recs []model.AttendanceRecord) ([]model.AttendanceRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := make([]model.AttendanceRecord, 0, len(recs))
	for _, rec := range recs {
		saved, err := upsertOne(ctx, tx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertOne(ctx context.Context, q execer, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := q.QueryRowContext(ctx, upsertSQL,
		rec.ID, rec.LectureID, rec.StudentID, string(rec.Status), rec.MarkedBy, rec.MarkedAt)
	// On conflict the row keeps its original id.
	if err := row.Scan(&rec.ID); err != nil {
		return model.AttendanceRecord{}, err
	}
	return rec, nil
}

// GetByID returns a single record by id.
func (r *Repository) GetByID(ctx context.Context, id string) (model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lecture_id, student_id, status, marked_by_teacher_id, marked_at
		FROM attendance_records WHERE id = $1
	`, id)
	return scanRecord(row, "id "+id)
}

// FindByLectureAndStudent returns the record for one (lecture, student) pair.
func (r *Repository) FindByLectureAndStudent(ctx context.Context, lectureID, studentID string) (model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lecture_id, student_id, status, marked_by_teacher_id, marked_at
		FROM attendance_records WHERE lecture_id = $1 AND student_id = $2
	`, lectureID, studentID)
	return scanRecord(row, "lecture "+lectureID+" and student "+studentID)
}

// FindByLecture returns all records for one lecture.
func (r *Repository) FindByLecture(ctx context.Context, lectureID string) ([]model.AttendanceRecord, error) {
	return r.query(ctx, `
		SELECT id, lecture_id, student_id, status, marked_by_teacher_id, marked_at
		FROM attendance_records WHERE lecture_id = $1
		ORDER BY marked_at
	`, lectureID)
}

// FindByStudent returns all records for one student.
func (r *Repository) FindByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	return r.query(ctx, `
		SELECT id, lecture_id, student_id, status, marked_by_teacher_id, marked_at
		FROM attendance_records WHERE student_id = $1
		ORDER BY marked_at
	`, studentID)
}

// FindByStudentInDateRange returns a student's records whose lecture date
// falls within [start, end], both ends inclusive. The range is applied to the
// lecture date, not the marking timestamp.
func (r *Repository) FindByStudentInDateRange(ctx context.Context, studentID string, start, end time.Time) ([]model.AttendanceRecord, error) {
	return r.query(ctx, `
		SELECT ar.id, ar.lecture_id, ar.student_id, ar.status, ar.marked_by_teacher_id, ar.marked_at
		FROM attendance_records ar
		JOIN lectures l ON l.id = ar.lecture_id
		WHERE ar.student_id = $1 AND l.lecture_date BETWEEN $2 AND $3
		ORDER BY l.lecture_date, l.start_time
	`, studentID, model.DateOnly(start), model.DateOnly(end))
}

// UpdateStatus overwrites status, acting teacher, and marking timestamp of an
// existing record.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status model.Status, teacherID string, at time.Time) (model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET status = $2, marked_by_teacher_id = $3, marked_at = $4
		WHERE id = $1
		RETURNING id, lecture_id, student_id, status, marked_by_teacher_id, marked_at
	`, id, string(status), teacherID, at)
	return scanRecord(row, "id "+id)
}

// CountPresent counts PRESENT records of a student whose lecture belongs to
// the given subject.
func (r *Repository) CountPresent(ctx context.Context, studentID, subjectID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM attendance_records ar
		JOIN lectures l ON l.id = ar.lecture_id
		WHERE ar.student_id = $1 AND l.subject_id = $2 AND ar.status = $3
	`, studentID, subjectID, string(model.StatusPresent)).Scan(&n)
	return n, err
}

// CountExpectedLectures counts the lectures of a subject scheduled for a
// cohort with date <= upTo. This is the percentage denominator; it is a
// cohort-label approximation, not an enrollment check.
func (r *Repository) CountExpectedLectures(ctx context.Context, subjectID, cohort string, upTo time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM lectures
		WHERE subject_id = $1 AND cohort = $2 AND lecture_date <= $3
	`, subjectID, cohort, model.DateOnly(upTo)).Scan(&n)
	return n, err
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.LectureID, &rec.StudentID, &status, &rec.MarkedBy, &rec.MarkedAt); err != nil {
			return nil, err
		}
		rec.Status = model.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row *sql.Row, desc string) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	var status string
	if err := row.Scan(&rec.ID, &rec.LectureID, &rec.StudentID, &status, &rec.MarkedBy, &rec.MarkedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AttendanceRecord{}, apperr.NotFoundf("attendance record not found with %s", desc)
		}
		return model.AttendanceRecord{}, err
	}
	rec.Status = model.Status(status)
	return rec, nil
}
