// Package model holds the domain entities of the attendance system.
// Entities reference each other by id only; lookups go through the
// directory package.
package model

import (
	"fmt"
	"time"

	"classattend/internal/apperr"
)

// Role is the authority level of a user account.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return Role(s), nil
	}
	return "", apperr.InvalidOperationf("unknown role %q", s)
}

// Status is a student's attendance status for one lecture.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLeave   Status = "LEAVE"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPresent, StatusAbsent, StatusLeave:
		return Status(s), nil
	}
	return "", apperr.InvalidOperationf("unknown attendance status %q", s)
}

// User is a login account. Password holds the bcrypt hash.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Department groups subjects, teachers, and students.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Subject is the unit attendance percentages are grouped by.
type Subject struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	DepartmentID string `json:"department_id"`
}

// Teacher conducts lectures and marks attendance.
type Teacher struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	EmployeeCode string `json:"employee_code"`
	DepartmentID string `json:"department_id"`
}

// Student attends lectures. BatchYear and Section form the cohort label
// used to bound the expected-lectures denominator.
type Student struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	RollNumber   string `json:"roll_number"`
	DepartmentID string `json:"department_id"`
	BatchYear    int    `json:"batch_year"`
	Section      string `json:"section,omitempty"`
}

// CohortLabel is the batch year plus the section when present, e.g. "2022 A".
func (s Student) CohortLabel() string {
	if s.Section == "" {
		return fmt.Sprintf("%d", s.BatchYear)
	}
	return fmt.Sprintf("%d %s", s.BatchYear, s.Section)
}

// Lecture is one scheduled class occurrence. Date carries the calendar day
// at midnight UTC; StartTime and EndTime are "HH:MM" strings.
type Lecture struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	TeacherID string    `json:"teacher_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Cohort    string    `json:"cohort"`
	Room      string    `json:"room,omitempty"`
}

// ValidateTimes checks that the end time is after the start time.
func (l Lecture) ValidateTimes() error {
	start, err := time.Parse("15:04", l.StartTime)
	if err != nil {
		return apperr.InvalidOperationf("invalid start time %q", l.StartTime)
	}
	end, err := time.Parse("15:04", l.EndTime)
	if err != nil {
		return apperr.InvalidOperationf("invalid end time %q", l.EndTime)
	}
	if !end.After(start) {
		return apperr.InvalidOperationf("lecture end time must be after start time")
	}
	return nil
}

// AttendanceRecord is one student's status for one lecture. Exactly zero or
// one record exists per (lecture, student) pair.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	LectureID string    `json:"lecture_id"`
	StudentID string    `json:"student_id"`
	Status    Status    `json:"status"`
	MarkedBy  string    `json:"marked_by_teacher_id"`
	MarkedAt  time.Time `json:"marked_at"`
}

// DateOnly truncates t to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
