package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/cache"
	"classattend/internal/export"
	"classattend/internal/model"
)

type markBulkRequest struct {
	LectureID string                 `json:"lecture_id" binding:"required"`
	TeacherID string                 `json:"teacher_id"`
	Entries   []attendance.MarkEntry `json:"entries" binding:"required,min=1"`
}

func (h *Handler) markBulk(c *gin.Context) {
	var req markBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	teacherID, ok := h.resolveActingTeacher(c, req.TeacherID)
	if !ok {
		return
	}
	records, err := h.att.MarkBulk(c.Request.Context(), req.LectureID, req.Entries, teacherID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	markedRecords.Add(float64(len(records)))
	c.JSON(http.StatusOK, gin.H{"records": records})
}

type updateRecordRequest struct {
	Status    string `json:"status" binding:"required"`
	TeacherID string `json:"teacher_id"`
}

func (h *Handler) updateRecord(c *gin.Context) {
	var req updateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	teacherID, ok := h.resolveActingTeacher(c, req.TeacherID)
	if !ok {
		return
	}
	rec, err := h.att.UpdateSingle(c.Request.Context(), c.Param("recordId"), model.Status(req.Status), teacherID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	markedRecords.Inc()
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) listByLecture(c *gin.Context) {
	records, err := h.att.ListByLecture(c.Request.Context(), c.Param("lectureId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *Handler) listByStudent(c *gin.Context) {
	studentID := c.Param("studentId")
	if !h.canAccessStudent(c, studentID) {
		forbid(c)
		return
	}
	var start, end *time.Time
	if v := c.Query("start_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		start = &parsed
	}
	if v := c.Query("end_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		end = &parsed
	}
	records, err := h.att.ListByStudent(c.Request.Context(), studentID, start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *Handler) studentSummary(c *gin.Context) {
	studentID := c.Param("studentId")
	if !h.canAccessStudent(c, studentID) {
		forbid(c)
		return
	}
	ctx := c.Request.Context()
	if h.summaries != nil {
		if cached, err := h.summaries.Get(ctx, studentID); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		} else if err != cache.ErrMiss {
			h.log.Warnw("summary cache read failed", "student_id", studentID, "err", err)
		}
	}
	summary, err := h.att.StudentSummary(ctx, studentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if h.summaries != nil {
		if err := h.summaries.Set(ctx, summary); err != nil {
			h.log.Warnw("summary cache write failed", "student_id", studentID, "err", err)
		}
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) exportRegister(c *gin.Context) {
	ctx := c.Request.Context()
	lectureID := c.Param("lectureId")
	lecture, err := h.dir.LectureByID(ctx, lectureID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	subject, err := h.dir.SubjectByID(ctx, lecture.SubjectID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	records, err := h.att.ListByLecture(ctx, lectureID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	rows := make([]export.RegisterRow, 0, len(records))
	for _, rec := range records {
		row := export.RegisterRow{Status: rec.Status, MarkedAt: rec.MarkedAt}
		student, err := h.dir.StudentByID(ctx, rec.StudentID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		row.RollNumber = student.RollNumber
		if user, err := h.users.GetByID(ctx, student.UserID); err == nil {
			row.Student = user.FirstName + " " + user.LastName
		}
		rows = append(rows, row)
	}

	f, err := export.BuildRegister(lecture, subject.Code, rows)
	if err != nil {
		h.writeError(c, err)
		return
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		h.writeError(c, err)
		return
	}
	filename := fmt.Sprintf("register_%s_%s.xlsx", subject.Code, lecture.Date.Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// resolveActingTeacher decides who the marking teacher is. TEACHER callers
// always act as themselves; ADMIN callers must name a teacher explicitly.
func (h *Handler) resolveActingTeacher(c *gin.Context, requested string) (string, bool) {
	claims, ok := auth.FromContext(c)
	if !ok {
		forbid(c)
		return "", false
	}
	switch claims.Role {
	case model.RoleTeacher:
		teacher, err := h.dir.TeacherByUserID(c.Request.Context(), claims.Subject)
		if err != nil {
			h.writeError(c, err)
			return "", false
		}
		if requested != "" && requested != teacher.ID {
			forbid(c)
			return "", false
		}
		return teacher.ID, true
	case model.RoleAdmin:
		if requested == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "teacher_id required"})
			return "", false
		}
		return requested, true
	default:
		forbid(c)
		return "", false
	}
}
