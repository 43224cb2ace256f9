// Package directory owns the reference data of the system: departments,
// subjects, teachers, students, and scheduled lectures. The attendance
// service resolves ids through it but never owns these entities.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/model"
	"classattend/internal/store"
)

// Repository persists reference data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Departments

// InsertDepartment writes a new department.
func (r *Repository) InsertDepartment(ctx context.Context, d model.Department) (model.Department, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO departments (id, name, code) VALUES ($1,$2,$3)
	`, d.ID, d.Name, d.Code)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.Department{}, apperr.DuplicateEntryf("department with name %q or code %q already exists", d.Name, d.Code)
		}
		return model.Department{}, err
	}
	return d, nil
}

// DepartmentByID returns one department.
func (r *Repository) DepartmentByID(ctx context.Context, id string) (model.Department, error) {
	var d model.Department
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, code FROM departments WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Department{}, apperr.NotFoundf("department not found with id %s", id)
	}
	return d, err
}

// ListDepartments returns all departments ordered by name.
func (r *Repository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, code FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Code); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDepartment overwrites name and code.
func (r *Repository) UpdateDepartment(ctx context.Context, d model.Department) (model.Department, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE departments SET name = $2, code = $3 WHERE id = $1
	`, d.ID, d.Name, d.Code)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.Department{}, apperr.DuplicateEntryf("department with name %q or code %q already exists", d.Name, d.Code)
		}
		return model.Department{}, err
	}
	return d, requireRow(res, "department", d.ID)
}

// DeleteDepartment removes a department.
func (r *Repository) DeleteDepartment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "department", id)
}

// Subjects

// InsertSubject writes a new subject.
func (r *Repository) InsertSubject(ctx context.Context, s model.Subject) (model.Subject, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subjects (id, name, code, department_id) VALUES ($1,$2,$3,$4)
	`, s.ID, s.Name, s.Code, s.DepartmentID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.Subject{}, apperr.DuplicateEntryf("subject with code %q already exists", s.Code)
		}
		return model.Subject{}, err
	}
	return s, nil
}

// SubjectByID returns one subject.
func (r *Repository) SubjectByID(ctx context.Context, id string) (model.Subject, error) {
	var s model.Subject
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, department_id FROM subjects WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Code, &s.DepartmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subject{}, apperr.NotFoundf("subject not found with id %s", id)
	}
	return s, err
}

// SubjectsByDepartment returns the subjects belonging to a department.
func (r *Repository) SubjectsByDepartment(ctx context.Context, departmentID string) ([]model.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code, department_id FROM subjects WHERE department_id = $1 ORDER BY code
	`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.DepartmentID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSubject overwrites name, code, and department.
func (r *Repository) UpdateSubject(ctx context.Context, s model.Subject) (model.Subject, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subjects SET name = $2, code = $3, department_id = $4 WHERE id = $1
	`, s.ID, s.Name, s.Code, s.DepartmentID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.Subject{}, apperr.DuplicateEntryf("subject with code %q already exists", s.Code)
		}
		return model.Subject{}, err
	}
	return s, requireRow(res, "subject", s.ID)
}

// DeleteSubject removes a subject.
func (r *Repository) DeleteSubject(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "subject", id)
}

// Teachers

// InsertTeacher writes a new teacher.
func (r *Repository) InsertTeacher(ctx context.Context, t model.Teacher) (model.Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teachers (id, user_id, employee_code, department_id) VALUES ($1,$2,$3,$4)
	`, t.ID, t.UserID, t.EmployeeCode, t.DepartmentID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.Teacher{}, apperr.DuplicateEntryf("teacher with employee code %q already exists", t.EmployeeCode)
		}
		return model.Teacher{}, err
	}
	return t, nil
}

// TeacherByID returns one teacher.
func (r *Repository) TeacherByID(ctx context.Context, id string) (model.Teacher, error) {
	var t model.Teacher
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, employee_code, department_id FROM teachers WHERE id = $1
	`, id).Scan(&t.ID, &t.UserID, &t.EmployeeCode, &t.DepartmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Teacher{}, apperr.NotFoundf("teacher not found with id %s", id)
	}
	return t, err
}

// TeacherByUserID returns the teacher linked to a user account.
func (r *Repository) TeacherByUserID(ctx context.Context, userID string) (model.Teacher, error) {
	var t model.Teacher
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, employee_code, department_id FROM teachers WHERE user_id = $1
	`, userID).Scan(&t.ID, &t.UserID, &t.EmployeeCode, &t.DepartmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Teacher{}, apperr.NotFoundf("teacher not found with user id %s", userID)
	}
	return t, err
}

// ListTeachers returns all teachers ordered by employee code.
func (r *Repository) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, employee_code, department_id FROM teachers ORDER BY employee_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Teacher
	for rows.Next() {
		var t model.Teacher
		if err := rows.Scan(&t.ID, &t.UserID, &t.EmployeeCode, &t.DepartmentID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTeacher removes a teacher.
func (r *Repository) DeleteTeacher(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "teacher", id)
}

// Students

// InsertStudent writes a new student.
func (r *Repository) InsertStudent(ctx context.Context, s model.Student) (model.Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, user_id, roll_number, department_id, batch_year, section)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, s.ID, s.UserID, s.RollNumber, s.DepartmentID, s.BatchYear, s.Section)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.Student{}, apperr.DuplicateEntryf("student with roll number %q already exists", s.RollNumber)
		}
		return model.Student{}, err
	}
	return s, nil
}

// StudentByID returns one student.
func (r *Repository) StudentByID(ctx context.Context, id string) (model.Student, error) {
	var s model.Student
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, roll_number, department_id, batch_year, section FROM students WHERE id = $1
	`, id).Scan(&s.ID, &s.UserID, &s.RollNumber, &s.DepartmentID, &s.BatchYear, &s.Section)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Student{}, apperr.NotFoundf("student not found with id %s", id)
	}
	return s, err
}

// ListStudents returns students with optional filters.
func (r *Repository) ListStudents(ctx context.Context, departmentID string, batchYear int, section string) ([]model.Student, error) {
	query := `SELECT id, user_id, roll_number, department_id, batch_year, section FROM students`
	args := []any{}
	clauses := []string{}
	if departmentID != "" {
		args = append(args, departmentID)
		clauses = append(clauses, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if batchYear > 0 {
		args = append(args, batchYear)
		clauses = append(clauses, fmt.Sprintf("batch_year = $%d", len(args)))
	}
	if section != "" {
		args = append(args, section)
		clauses = append(clauses, fmt.Sprintf("section = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY roll_number"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.UserID, &s.RollNumber, &s.DepartmentID, &s.BatchYear, &s.Section); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateStudent overwrites roll number, department, batch year, and section.
func (r *Repository) UpdateStudent(ctx context.Context, s model.Student) (model.Student, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET roll_number = $2, department_id = $3, batch_year = $4, section = $5 WHERE id = $1
	`, s.ID, s.RollNumber, s.DepartmentID, s.BatchYear, s.Section)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.Student{}, apperr.DuplicateEntryf("student with roll number %q already exists", s.RollNumber)
		}
		return model.Student{}, err
	}
	return s, requireRow(res, "student", s.ID)
}

// DeleteStudent removes a student and, via cascade, their attendance records.
func (r *Repository) DeleteStudent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "student", id)
}

// Lectures

// InsertLecture writes a new lecture session.
func (r *Repository) InsertLecture(ctx context.Context, l model.Lecture) (model.Lecture, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lectures (id, subject_id, teacher_id, lecture_date, start_time, end_time, cohort, room)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, l.ID, l.SubjectID, l.TeacherID, l.Date, l.StartTime, l.EndTime, l.Cohort, l.Room)
	if err != nil {
		return model.Lecture{}, err
	}
	return l, nil
}

// LectureByID returns one lecture.
func (r *Repository) LectureByID(ctx context.Context, id string) (model.Lecture, error) {
	var l model.Lecture
	err := r.db.QueryRowContext(ctx, `
		SELECT id, subject_id, teacher_id, lecture_date, start_time, end_time, cohort, room
		FROM lectures WHERE id = $1
	`, id).Scan(&l.ID, &l.SubjectID, &l.TeacherID, &l.Date, &l.StartTime, &l.EndTime, &l.Cohort, &l.Room)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lecture{}, apperr.NotFoundf("lecture not found with id %s", id)
	}
	l.Date = model.DateOnly(l.Date)
	return l, err
}

// ListLectures returns lectures with optional teacher, cohort, and date filters.
func (r *Repository) ListLectures(ctx context.Context, teacherID, cohort string, date *time.Time) ([]model.Lecture, error) {
	query := `SELECT id, subject_id, teacher_id, lecture_date, start_time, end_time, cohort, room FROM lectures`
	args := []any{}
	clauses := []string{}
	if teacherID != "" {
		args = append(args, teacherID)
		clauses = append(clauses, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if cohort != "" {
		args = append(args, cohort)
		clauses = append(clauses, fmt.Sprintf("cohort = $%d", len(args)))
	}
	if date != nil {
		args = append(args, model.DateOnly(*date))
		clauses = append(clauses, fmt.Sprintf("lecture_date = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY lecture_date, start_time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Lecture
	for rows.Next() {
		var l model.Lecture
		if err := rows.Scan(&l.ID, &l.SubjectID, &l.TeacherID, &l.Date, &l.StartTime, &l.EndTime, &l.Cohort, &l.Room); err != nil {
			return nil, err
		}
		l.Date = model.DateOnly(l.Date)
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateLecture overwrites the schedulable fields.
func (r *Repository) UpdateLecture(ctx context.Context, l model.Lecture) (model.Lecture, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lectures
		SET subject_id = $2, teacher_id = $3, lecture_date = $4, start_time = $5, end_time = $6, cohort = $7, room = $8
		WHERE id = $1
	`, l.ID, l.SubjectID, l.TeacherID, l.Date, l.StartTime, l.EndTime, l.Cohort, l.Room)
	if err != nil {
		return model.Lecture{}, err
	}
	return l, requireRow(res, "lecture", l.ID)
}

// DeleteLecture removes a lecture and, via cascade, its attendance records.
func (r *Repository) DeleteLecture(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "lecture", id)
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFoundf("%s not found with id %s", entity, id)
	}
	return nil
}
