package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
	validator   *validator.Validator
}

func NewExamHandler(examService services.ExamService, validator *validator.Validator, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
		validator:   validator,
	}
}

// ListExams lists the exams of a unit
// @Summary List exams
// @Tags exams
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Success 200 {array} models.UnitExam
// @Router /courses/{id}/units/{unitId}/exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId")
	if !ok {
		return
	}

	exams, err := h.examService.List(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exams)
}

// CreateExam adds an exam to a unit
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.CreateExamRequest true "Exam data"
// @Success 201 {object} models.UnitExam
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId")
	if !ok {
		return
	}

	h.LogRequest(c, "Creating exam", "unit_id", ids[1])

	var req services.CreateExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), ids[0], ids[1], &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

// GetExam returns an exam
// @Summary Get exam
// @Tags exams
// @Produce json
// @Success 200 {object} models.UnitExam
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/exams/{examId} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "examId")
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// UpdateExam updates an exam
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.UpdateExamRequest true "Exam data"
// @Success 200 {object} models.UnitExam
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/exams/{examId} [put]
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "examId")
	if !ok {
		return
	}

	h.LogRequest(c, "Updating exam", "exam_id", ids[2])

	var req services.UpdateExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), ids[0], ids[1], ids[2], &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// DeleteExam deletes an exam and its attempts
// @Summary Delete exam
// @Tags exams
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/exams/{examId} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "examId")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting exam", "exam_id", ids[2])

	if err := h.examService.Delete(c.Request.Context(), ids[0], ids[1], ids[2], h.getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishExam sets the published flag
// @Summary Publish exam
// @Tags exams
// @Accept json
// @Produce json
// @Param body body validator.ExamPublishRequest true "Publish flag"
// @Success 200 {object} models.UnitExam
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId}/exams/{examId}/publish [patch]
func (h *ExamHandler) PublishExam(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "id", "unitId", "examId")
	if !ok {
		return
	}

	var req validator.ExamPublishRequest
	if !h.bindJSON(c, &req) || !h.validate(c, h.validator, &req) {
		return
	}

	h.LogRequest(c, "Publishing exam", "exam_id", ids[2], "published", *req.IsPublished)

	exam, err := h.examService.SetPublished(c.Request.Context(), ids[0], ids[1], ids[2], *req.IsPublished, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}
