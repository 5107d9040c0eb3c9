package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt starts a new exam attempt
// @Summary Start exam attempt
// @Description Fails with the in-progress attempt id when one exists
// @Tags attempts
// @Produce json
// @Param examId path uint true "Exam ID"
// @Success 201 {object} services.StartAttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /student/exams/{examId}/attempt [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	examID := h.parseIDParam(c, "examId")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Starting exam attempt", "exam_id", examID)

	attempt, err := h.attemptService.Start(c.Request.Context(), examID, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// ListAttempts lists the caller's attempts at an exam, newest first
// @Summary List own attempts
// @Tags attempts
// @Produce json
// @Param examId path uint true "Exam ID"
// @Success 200 {object} services.AttemptListResponse
// @Failure 404 {object} ErrorResponse
// @Router /student/exams/{examId}/attempt [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	examID := h.parseIDParam(c, "examId")
	if examID == 0 {
		return
	}

	attempts, err := h.attemptService.List(c.Request.Context(), examID, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// SaveAttempt stores answers and the cursor of an in-progress attempt
// @Summary Save attempt progress
// @Tags attempts
// @Accept json
// @Produce json
// @Param examId path uint true "Exam ID"
// @Param attemptId path uint true "Attempt ID"
// @Param body body services.SaveAttemptRequest true "Answers and cursor"
// @Success 200 {object} models.ExamAttempt
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /student/exams/{examId}/attempt/{attemptId} [put]
func (h *AttemptHandler) SaveAttempt(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "examId", "attemptId")
	if !ok {
		return
	}

	var req services.SaveAttemptRequest
	if !h.bindJSON(c, &req) {
		return
	}

	attempt, err := h.attemptService.Save(c.Request.Context(), ids[0], ids[1], &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SubmitAttempt grades and completes an attempt
// @Summary Submit attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param examId path uint true "Exam ID"
// @Param attemptId path uint true "Attempt ID"
// @Param body body services.SubmitAttemptRequest false "Final answers"
// @Success 200 {object} models.ExamAttempt
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /student/exams/{examId}/attempt/{attemptId}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	ids, ok := h.parseIDParams(c, "examId", "attemptId")
	if !ok {
		return
	}

	var req services.SubmitAttemptRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Submitting exam attempt", "exam_id", ids[0], "attempt_id", ids[1])

	attempt, err := h.attemptService.Submit(c.Request.Context(), ids[0], ids[1], &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}
