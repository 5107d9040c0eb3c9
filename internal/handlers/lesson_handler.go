package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

type LessonHandler struct {
	BaseHandler
	lessonService services.LessonService
	quizService   services.QuizService
	validator     *validator.Validator
}

func NewLessonHandler(
	lessonService services.LessonService,
	quizService services.QuizService,
	validator *validator.Validator,
	logger utils.Logger,
) *LessonHandler {
	return &LessonHandler{
		BaseHandler:   NewBaseHandler(logger),
		lessonService: lessonService,
		quizService:   quizService,
		validator:     validator,
	}
}

// ListLessons lists the lessons of a unit in order
// @Summary List lessons
// @Tags lessons
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Success 200 {array} models.Lesson
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons [get]
func (h *LessonHandler) ListLessons(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId")
	if !ok {
		return
	}

	lessons, err := h.lessonService.List(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lessons)
}

// CreateLesson adds a lesson, shifting siblings when the order is taken
// @Summary Create lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Param lesson body services.CreateLessonRequest true "Lesson data"
// @Success 201 {object} models.Lesson
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons [post]
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId")
	if !ok {
		return
	}

	h.LogRequest(c, "Creating lesson", "course_id", ids[0], "unit_id", ids[1])

	var req services.CreateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.lessonService.Create(c.Request.Context(), ids[0], ids[1], &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

// GetLesson returns a lesson with its quizzes
// @Summary Get lesson
// @Tags lessons
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Param lessonId path uint true "Lesson ID"
// @Success 200 {object} models.Lesson
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons/{lessonId} [get]
func (h *LessonHandler) GetLesson(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "lessonId")
	if !ok {
		return
	}

	lesson, err := h.lessonService.Get(c.Request.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// UpdateLesson updates a lesson
// @Summary Update lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Param lessonId path uint true "Lesson ID"
// @Param lesson body services.UpdateLessonRequest true "Lesson data"
// @Success 200 {object} models.Lesson
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons/{lessonId} [put]
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "lessonId")
	if !ok {
		return
	}

	h.LogRequest(c, "Updating lesson", "lesson_id", ids[2])

	var req services.UpdateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.lessonService.Update(c.Request.Context(), ids[0], ids[1], ids[2], &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// DeleteLesson deletes a lesson and its quizzes
// @Summary Delete lesson
// @Tags lessons
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Param lessonId path uint true "Lesson ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons/{lessonId} [delete]
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "lessonId")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting lesson", "lesson_id", ids[2])

	if err := h.lessonService.Delete(c.Request.Context(), ids[0], ids[1], ids[2], h.getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishLesson sets or toggles the published flag
// @Summary Publish lesson
// @Description Without isPublished the flag is toggled
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Param lessonId path uint true "Lesson ID"
// @Param body body validator.LessonPublishRequest false "Publish flag"
// @Success 200 {object} models.Lesson
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons/{lessonId}/publish [patch]
func (h *LessonHandler) PublishLesson(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "lessonId")
	if !ok {
		return
	}

	var req validator.LessonPublishRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Publishing lesson", "lesson_id", ids[2])

	lesson, err := h.lessonService.SetPublished(c.Request.Context(), ids[0], ids[1], ids[2], req.IsPublished, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// ReorderLessons assigns new orders to lessons of a unit
// @Summary Reorder lessons
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Param body body validator.LessonReorderRequest true "New orders"
// @Success 200 {array} models.Lesson
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons/reorder [put]
func (h *LessonHandler) ReorderLessons(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId")
	if !ok {
		return
	}

	var req validator.LessonReorderRequest
	if !h.bindJSON(c, &req) || !h.validate(c, h.validator, &req) {
		return
	}

	h.LogRequest(c, "Reordering lessons", "unit_id", ids[1], "count", len(req.LessonOrder))

	lessons, err := h.lessonService.Reorder(c.Request.Context(), ids[0], ids[1], req.LessonOrder, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lessons)
}

// ===== QUIZZES =====

// ListQuizzes lists the quizzes of a lesson
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Param lessonId path uint true "Lesson ID"
// @Success 200 {array} models.LessonQuiz
// @Router /courses/{id}/units/{unitId}/lessons/{lessonId}/quizzes [get]
func (h *LessonHandler) ListQuizzes(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "lessonId")
	if !ok {
		return
	}

	quizzes, err := h.quizService.List(c.Request.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

// CreateQuiz adds a quiz to a lesson
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.CreateQuizRequest true "Quiz data"
// @Success 201 {object} models.LessonQuiz
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons/{lessonId}/quizzes [post]
func (h *LessonHandler) CreateQuiz(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "lessonId")
	if !ok {
		return
	}

	h.LogRequest(c, "Creating quiz", "lesson_id", ids[2])

	var req services.CreateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), ids[0], ids[1], ids[2], &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

// UpdateQuiz updates a quiz
// @Summary Update quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.UpdateQuizRequest true "Quiz data"
// @Success 200 {object} models.LessonQuiz
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons/{lessonId}/quizzes/{quizId} [put]
func (h *LessonHandler) UpdateQuiz(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "lessonId", "quizId")
	if !ok {
		return
	}

	h.LogRequest(c, "Updating quiz", "quiz_id", ids[3])

	var req services.UpdateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), ids[0], ids[1], ids[2], ids[3], &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz deletes a quiz
// @Summary Delete quiz
// @Tags quizzes
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/lessons/{lessonId}/quizzes/{quizId} [delete]
func (h *LessonHandler) DeleteQuiz(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "lessonId", "quizId")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", ids[3])

	if err := h.quizService.Delete(c.Request.Context(), ids[0], ids[1], ids[2], ids[3], h.getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
