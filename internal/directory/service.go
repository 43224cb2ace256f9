package directory

import (
	"context"

	"classattend/internal/apperr"
	"classattend/internal/auth"
	"classattend/internal/model"
)

// Service validates reference-data writes. Reads go straight to the
// Repository.
type Service struct {
	repo     *Repository
	accounts *auth.Service
}

// NewService creates a service.
func NewService(repo *Repository, accounts *auth.Service) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// CreateDepartment adds a department. Name and code must be unique.
func (s *Service) CreateDepartment(ctx context.Context, d model.Department) (model.Department, error) {
	if d.Name == "" || d.Code == "" {
		return model.Department{}, apperr.InvalidOperationf("department name and code are required")
	}
	return s.repo.InsertDepartment(ctx, d)
}

// UpdateDepartment renames a department.
func (s *Service) UpdateDepartment(ctx context.Context, d model.Department) (model.Department, error) {
	if d.Name == "" || d.Code == "" {
		return model.Department{}, apperr.InvalidOperationf("department name and code are required")
	}
	return s.repo.UpdateDepartment(ctx, d)
}

// CreateSubject adds a subject to an existing department.
func (s *Service) CreateSubject(ctx context.Context, subj model.Subject) (model.Subject, error) {
	if subj.Name == "" || subj.Code == "" {
		return model.Subject{}, apperr.InvalidOperationf("subject name and code are required")
	}
	if _, err := s.repo.DepartmentByID(ctx, subj.DepartmentID); err != nil {
		return model.Subject{}, err
	}
	return s.repo.InsertSubject(ctx, subj)
}

// UpdateSubject moves or renames a subject.
func (s *Service) UpdateSubject(ctx context.Context, subj model.Subject) (model.Subject, error) {
	if _, err := s.repo.DepartmentByID(ctx, subj.DepartmentID); err != nil {
		return model.Subject{}, err
	}
	return s.repo.UpdateSubject(ctx, subj)
}

// NewTeacher bundles the account and teacher fields needed to onboard a
// teacher.
type NewTeacher struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	EmployeeCode string
	DepartmentID string
}

// CreateTeacher registers the login account and the teacher entry.
func (s *Service) CreateTeacher(ctx context.Context, in NewTeacher) (model.Teacher, error) {
	if _, err := s.repo.DepartmentByID(ctx, in.DepartmentID); err != nil {
		return model.Teacher{}, err
	}
	user, err := s.accounts.Register(ctx, in.Email, in.Password, in.FirstName, in.LastName, model.RoleTeacher)
	if err != nil {
		return model.Teacher{}, err
	}
	return s.repo.InsertTeacher(ctx, model.Teacher{
		UserID:       user.ID,
		EmployeeCode: in.EmployeeCode,
		DepartmentID: in.DepartmentID,
	})
}

// NewStudent bundles the account and student fields needed to enroll a
// student.
type NewStudent struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	RollNumber   string
	DepartmentID string
	BatchYear    int
	Section      string
}

// CreateStudent registers the login account and the student entry.
func (s *Service) CreateStudent(ctx context.Context, in NewStudent) (model.Student, error) {
	if _, err := s.repo.DepartmentByID(ctx, in.DepartmentID); err != nil {
		return model.Student{}, err
	}
	if in.BatchYear <= 0 {
		return model.Student{}, apperr.InvalidOperationf("batch year is required")
	}
	user, err := s.accounts.Register(ctx, in.Email, in.Password, in.FirstName, in.LastName, model.RoleStudent)
	if err != nil {
		return model.Student{}, err
	}
	return s.repo.InsertStudent(ctx, model.Student{
		UserID:       user.ID,
		RollNumber:   in.RollNumber,
		DepartmentID: in.DepartmentID,
		BatchYear:    in.BatchYear,
		Section:      in.Section,
	})
}

// UpdateStudent rewrites a student's reference fields.
func (s *Service) UpdateStudent(ctx context.Context, st model.Student) (model.Student, error) {
	if _, err := s.repo.DepartmentByID(ctx, st.DepartmentID); err != nil {
		return model.Student{}, err
	}
	return s.repo.UpdateStudent(ctx, st)
}

// ScheduleLecture validates and stores a new lecture session.
func (s *Service) ScheduleLecture(ctx context.Context, l model.Lecture) (model.Lecture, error) {
	if _, err := s.repo.SubjectByID(ctx, l.SubjectID); err != nil {
		return model.Lecture{}, err
	}
	if _, err := s.repo.TeacherByID(ctx, l.TeacherID); err != nil {
		return model.Lecture{}, err
	}
	if err := l.ValidateTimes(); err != nil {
		return model.Lecture{}, err
	}
	if l.Cohort == "" {
		return model.Lecture{}, apperr.InvalidOperationf("lecture cohort is required")
	}
	l.Date = model.DateOnly(l.Date)
	return s.repo.InsertLecture(ctx, l)
}

// UpdateLecture revalidates and stores a rescheduled lecture.
func (s *Service) UpdateLecture(ctx context.Context, l model.Lecture) (model.Lecture, error) {
	if _, err := s.repo.SubjectByID(ctx, l.SubjectID); err != nil {
		return model.Lecture{}, err
	}
	if _, err := s.repo.TeacherByID(ctx, l.TeacherID); err != nil {
		return model.Lecture{}, err
	}
	if err := l.ValidateTimes(); err != nil {
		return model.Lecture{}, err
	}
	l.Date = model.DateOnly(l.Date)
	return s.repo.UpdateLecture(ctx, l)
}
