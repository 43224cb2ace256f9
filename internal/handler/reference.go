package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"classattend/internal/directory"
	"classattend/internal/model"
)

// Departments

func (h *Handler) createDepartment(c *gin.Context) {
	var req model.Department
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = ""
	dep, err := h.dirSvc.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dep)
}

func (h *Handler) listDepartments(c *gin.Context) {
	deps, err := h.dir.ListDepartments(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": deps})
}

func (h *Handler) getDepartment(c *gin.Context) {
	dep, err := h.dir.DepartmentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dep)
}

func (h *Handler) updateDepartment(c *gin.Context) {
	var req model.Department
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = c.Param("id")
	dep, err := h.dirSvc.UpdateDepartment(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dep)
}

func (h *Handler) deleteDepartment(c *gin.Context) {
	if err := h.dir.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subjects

func (h *Handler) createSubject(c *gin.Context) {
	var req model.Subject
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = ""
	subj, err := h.dirSvc.CreateSubject(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subj)
}

func (h *Handler) listSubjects(c *gin.Context) {
	departmentID := c.Query("department_id")
	if departmentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "department_id query parameter required"})
		return
	}
	subjects, err := h.dir.SubjectsByDepartment(c.Request.Context(), departmentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

func (h *Handler) getSubject(c *gin.Context) {
	subj, err := h.dir.SubjectByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subj)
}

func (h *Handler) updateSubject(c *gin.Context) {
	var req model.Subject
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = c.Param("id")
	subj, err := h.dirSvc.UpdateSubject(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subj)
}

func (h *Handler) deleteSubject(c *gin.Context) {
	if err := h.dir.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Teachers

type createTeacherRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	EmployeeCode string `json:"employee_code" binding:"required"`
	DepartmentID string `json:"department_id" binding:"required"`
}

func (h *Handler) createTeacher(c *gin.Context) {
	var req createTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	teacher, err := h.dirSvc.CreateTeacher(c.Request.Context(), directory.NewTeacher{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		EmployeeCode: req.EmployeeCode,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, teacher)
}

func (h *Handler) listTeachers(c *gin.Context) {
	teachers, err := h.dir.ListTeachers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teachers": teachers})
}

func (h *Handler) getTeacher(c *gin.Context) {
	teacher, err := h.dir.TeacherByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, teacher)
}

func (h *Handler) deleteTeacher(c *gin.Context) {
	if err := h.dir.DeleteTeacher(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Students

type createStudentRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	RollNumber   string `json:"roll_number" binding:"required"`
	DepartmentID string `json:"department_id" binding:"required"`
	BatchYear    int    `json:"batch_year" binding:"required"`
	Section      string `json:"section"`
}

func (h *Handler) createStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	student, err := h.dirSvc.CreateStudent(c.Request.Context(), directory.NewStudent{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		RollNumber:   req.RollNumber,
		DepartmentID: req.DepartmentID,
		BatchYear:    req.BatchYear,
		Section:      req.Section,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *Handler) listStudents(c *gin.Context) {
	batchYear := 0
	if v := c.Query("batch_year"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			batchYear = parsed
		}
	}
	students, err := h.dir.ListStudents(c.Request.Context(), c.Query("department_id"), batchYear, c.Query("section"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Handler) getStudent(c *gin.Context) {
	id := c.Param("id")
	if !h.canAccessStudent(c, id) {
		forbid(c)
		return
	}
	student, err := h.dir.StudentByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

type updateStudentRequest struct {
	RollNumber   string `json:"roll_number" binding:"required"`
	DepartmentID string `json:"department_id" binding:"required"`
	BatchYear    int    `json:"batch_year" binding:"required"`
	Section      string `json:"section"`
}

func (h *Handler) updateStudent(c *gin.Context) {
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	student, err := h.dirSvc.UpdateStudent(c.Request.Context(), model.Student{
		ID:           c.Param("id"),
		RollNumber:   req.RollNumber,
		DepartmentID: req.DepartmentID,
		BatchYear:    req.BatchYear,
		Section:      req.Section,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *Handler) deleteStudent(c *gin.Context) {
	if err := h.dir.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Lectures

type lectureRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
	TeacherID string `json:"teacher_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Cohort    string `json:"cohort" binding:"required"`
	Room      string `json:"room"`
}

func (r lectureRequest) toModel(id string) (model.Lecture, bool) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return model.Lecture{}, false
	}
	return model.Lecture{
		ID:        id,
		SubjectID: r.SubjectID,
		TeacherID: r.TeacherID,
		Date:      date.UTC(),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Cohort:    r.Cohort,
		Room:      r.Room,
	}, true
}

func (h *Handler) scheduleLecture(c *gin.Context) {
	var req lectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lecture, ok := req.toModel("")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	saved, err := h.dirSvc.ScheduleLecture(c.Request.Context(), lecture)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) listLectures(c *gin.Context) {
	var date *time.Time
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = &parsed
	}
	lectures, err := h.dir.ListLectures(c.Request.Context(), c.Query("teacher_id"), c.Query("cohort"), date)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lectures": lectures})
}

func (h *Handler) getLecture(c *gin.Context) {
	lecture, err := h.dir.LectureByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lecture)
}

func (h *Handler) updateLecture(c *gin.Context) {
	var req lectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lecture, ok := req.toModel(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	saved, err := h.dirSvc.UpdateLecture(c.Request.Context(), lecture)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) deleteLecture(c *gin.Context) {
	if err := h.dir.DeleteLecture(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
