package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist yet. The unique index on
// attendance_records(lecture_id, student_id) is what makes the ledger upsert
// safe under concurrent marking.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []struct {
		name string
		ddl  string
	}{
		{"users", `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`},
		{"departments", `
CREATE TABLE IF NOT EXISTS departments (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    code TEXT NOT NULL UNIQUE
);`},
		{"subjects", `
CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE,
    department_id UUID NOT NULL REFERENCES departments(id)
);`},
		{"teachers", `
CREATE TABLE IF NOT EXISTS teachers (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL UNIQUE REFERENCES users(id),
    employee_code TEXT NOT NULL UNIQUE,
    department_id UUID NOT NULL REFERENCES departments(id)
);`},
		{"students", `
CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL UNIQUE REFERENCES users(id),
    roll_number TEXT NOT NULL UNIQUE,
    department_id UUID NOT NULL REFERENCES departments(id),
    batch_year INT NOT NULL,
    section TEXT NOT NULL DEFAULT ''
);`},
		{"lectures", `
CREATE TABLE IF NOT EXISTS lectures (
    id UUID PRIMARY KEY,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    teacher_id UUID NOT NULL REFERENCES teachers(id),
    lecture_date DATE NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    cohort TEXT NOT NULL,
    room TEXT NOT NULL DEFAULT ''
);`},
		{"lectures_cohort_idx", `
CREATE INDEX IF NOT EXISTS lectures_subject_cohort_date_idx
    ON lectures (subject_id, cohort, lecture_date);`},
		{"attendance_records", `
CREATE TABLE IF NOT EXISTS attendance_records (
    id UUID PRIMARY KEY,
    lecture_id UUID NOT NULL REFERENCES lectures(id) ON DELETE CASCADE,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    status TEXT NOT NULL,
    marked_by_teacher_id UUID NOT NULL REFERENCES teachers(id),
    marked_at TIMESTAMPTZ NOT NULL,
    UNIQUE (lecture_id, student_id)
);`},
		{"attendance_student_idx", `
CREATE INDEX IF NOT EXISTS attendance_records_student_idx
    ON attendance_records (student_id);`},
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("migrate %s: %w", s.name, err)
		}
	}
	return nil
}
