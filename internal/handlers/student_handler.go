package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/learning-service/internal/progress"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
)

// StudentHandler serves the learner side: enrollments, course progress and
// lesson progress.
type StudentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
	studentService    services.StudentService
}

func NewStudentHandler(
	enrollmentService services.EnrollmentService,
	studentService services.StudentService,
	logger utils.Logger,
) *StudentHandler {
	return &StudentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
		studentService:    studentService,
	}
}

// Enroll enrolls the caller in a free published course
// @Summary Enroll in course
// @Description Paid courses answer with requiresPayment and create nothing
// @Tags enrollments
// @Accept json
// @Produce json
// @Param body body services.EnrollRequest true "Course to enroll in"
// @Success 201 {object} services.EnrollResponse
// @Success 200 {object} services.EnrollResponse "Payment required"
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	h.LogRequest(c, "Enrolling in course")

	var req services.EnrollRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.enrollmentService.Enroll(c.Request.Context(), &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if resp.RequiresPayment {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListEnrollments lists the caller's enrollments
// @Summary List own enrollments
// @Tags enrollments
// @Produce json
// @Success 200 {array} models.Enrollment
// @Router /enrollments [get]
func (h *StudentHandler) ListEnrollments(c *gin.Context) {
	enrollments, err := h.enrollmentService.ListByUser(c.Request.Context(), h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollments)
}

// ListCourses lists enrolled courses with aggregated progress
// @Summary List enrolled courses with progress
// @Tags student
// @Produce json
// @Param status query string false "completed, in-progress or not-started"
// @Param sort query string false "recent (default), title or progress"
// @Success 200 {array} progress.CourseProgress
// @Failure 400 {object} ErrorResponse
// @Router /student/courses [get]
func (h *StudentHandler) ListCourses(c *gin.Context) {
	var status progress.Status
	if raw := c.Query("status"); raw != "" {
		parsed, ok := progress.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid status",
				Details: "must be one of: completed, in-progress, not-started",
			})
			return
		}
		status = parsed
	}

	rows, err := h.studentService.ListCourses(c.Request.Context(), h.getUserID(c), status, progress.ParseSortKey(c.Query("sort")))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// MarkLessonProgress records that a lesson was started or completed
// @Summary Update lesson progress
// @Tags student
// @Accept json
// @Produce json
// @Param courseId path uint true "Course ID"
// @Param lessonId path uint true "Lesson ID"
// @Param body body services.LessonProgressRequest false "Progress flags"
// @Success 200 {object} services.LessonProgressResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /student/courses/{courseId}/lessons/{lessonId}/progress [post]
func (h *StudentHandler) MarkLessonProgress(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "courseId", "lessonId")
	if !ok {
		return
	}

	var req services.LessonProgressRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating lesson progress", "course_id", ids[0], "lesson_id", ids[1])

	resp, err := h.studentService.MarkLessonProgress(c.Request.Context(), h.getUserID(c), ids[0], ids[1], &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
