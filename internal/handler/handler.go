// Package handler wires the HTTP API: auth, reference-data CRUD, and the
// attendance endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"classattend/internal/apperr"
	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/cache"
	"classattend/internal/directory"
	"classattend/internal/model"
)

var markedRecords = promauto.NewCounter(prometheus.CounterOpts{
	Name: "classattend_marked_records_total",
	Help: "Attendance records created or overwritten by marking operations.",
})

// Handler holds the services behind the HTTP API.
type Handler struct {
	log       *zap.SugaredLogger
	accounts  *auth.Service
	users     *auth.UserRepository
	dir       *directory.Repository
	dirSvc    *directory.Service
	att       *attendance.Service
	summaries *cache.SummaryCache

	signingKey string
	issuer     string
}

// New creates a handler. summaries may be nil to disable caching.
func New(log *zap.SugaredLogger, accounts *auth.Service, users *auth.UserRepository, dir *directory.Repository,
	dirSvc *directory.Service, att *attendance.Service, summaries *cache.SummaryCache, signingKey, issuer string) *Handler {
	return &Handler{
		log:        log,
		accounts:   accounts,
		users:      users,
		dir:        dir,
		dirSvc:     dirSvc,
		att:        att,
		summaries:  summaries,
		signingKey: signingKey,
		issuer:     issuer,
	}
}

// Register mounts all routes under /api/v1.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.POST("/auth/register", h.registerUser)
	api.POST("/auth/login", h.login)

	authed := api.Group("", auth.RequireAuth(h.signingKey, h.issuer))
	admin := authed.Group("", auth.RequireRoles(model.RoleAdmin))
	staff := authed.Group("", auth.RequireRoles(model.RoleAdmin, model.RoleTeacher))

	admin.POST("/departments", h.createDepartment)
	admin.GET("/departments", h.listDepartments)
	admin.GET("/departments/:id", h.getDepartment)
	admin.PUT("/departments/:id", h.updateDepartment)
	admin.DELETE("/departments/:id", h.deleteDepartment)

	admin.POST("/subjects", h.createSubject)
	authed.GET("/subjects", h.listSubjects)
	authed.GET("/subjects/:id", h.getSubject)
	admin.PUT("/subjects/:id", h.updateSubject)
	admin.DELETE("/subjects/:id", h.deleteSubject)

	admin.POST("/teachers", h.createTeacher)
	admin.GET("/teachers", h.listTeachers)
	authed.GET("/teachers/:id", h.getTeacher)
	admin.DELETE("/teachers/:id", h.deleteTeacher)

	admin.POST("/students", h.createStudent)
	admin.GET("/students", h.listStudents)
	authed.GET("/students/:id", h.getStudent)
	admin.PUT("/students/:id", h.updateStudent)
	admin.DELETE("/students/:id", h.deleteStudent)

	admin.POST("/lectures", h.scheduleLecture)
	authed.GET("/lectures", h.listLectures)
	authed.GET("/lectures/:id", h.getLecture)
	admin.PUT("/lectures/:id", h.updateLecture)
	admin.DELETE("/lectures/:id", h.deleteLecture)

	staff.POST("/attendance/mark", h.markBulk)
	staff.PUT("/attendance/:recordId", h.updateRecord)
	staff.GET("/attendance/lecture/:lectureId", h.listByLecture)
	staff.GET("/attendance/lecture/:lectureId/export", h.exportRegister)
	authed.GET("/attendance/student/:studentId", h.listByStudent)
	authed.GET("/attendance/student/:studentId/summary", h.studentSummary)
}

// writeError maps business error kinds onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsInvalidOperation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.IsDuplicateEntry(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		h.log.Errorw("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// canAccessStudent enforces the self-access rule: ADMIN sees everyone, a
// STUDENT only their own data, TEACHER callers are denied on student routes.
func (h *Handler) canAccessStudent(c *gin.Context, studentID string) bool {
	claims, ok := auth.FromContext(c)
	if !ok {
		return false
	}
	switch claims.Role {
	case model.RoleAdmin:
		return true
	case model.RoleStudent:
		student, err := h.dir.StudentByID(c.Request.Context(), studentID)
		if err != nil {
			// Let the handler surface NotFound instead of a 403.
			return true
		}
		return student.UserID == claims.Subject
	default:
		return false
	}
}

func forbid(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
}
