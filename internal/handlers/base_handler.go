package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs through the request scoped logger.
func (h *BaseHandler) LogRequest(c *gin.Context, message string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	if userID := h.getUserID(c); userID != "" {
		args = append(args, "user_id", userID)
	}
	utils.GetLogger(c, h.logger).Debug(message, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, args ...any) {
	args = append(args, "error", err, "method", c.Request.Method, "path", c.FullPath())
	utils.GetLogger(c, h.logger).Error(message, args...)
}

// Helper methods

func (h *BaseHandler) getUserID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}

// parseIDParam writes a 400 and returns 0 when the path parameter is not a
// positive integer.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

// parseIDParams parses each named path parameter, stopping at the first bad one.
func (h *BaseHandler) parseIDParams(c *gin.Context, params ...string) ([]uint, bool) {
	ids := make([]uint, len(params))
	for i, param := range params {
		if ids[i] = h.parseIDParam(c, param); ids[i] == 0 {
			return nil, false
		}
	}
	return ids, true
}

// bindJSON decodes the body into req and writes a 400 on failure.
func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// validate runs struct tags on requests the services take apart before use.
func (h *BaseHandler) validate(c *gin.Context, v *validator.Validator, req interface{}) bool {
	if err := v.Validate(req); err != nil {
		h.handleServiceError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors.Fields(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidationFailed), errors.Is(err, services.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.LogError(c, err, "Unexpected service error")
		c.JSON(status, ErrorResponse{Message: "internal server error"})
		return
	}

	resp := ErrorResponse{Message: err.Error()}
	var serviceErr *services.ServiceError
	if errors.As(err, &serviceErr) {
		resp.Message = serviceErr.Message
		if len(serviceErr.Details) > 0 {
			resp.Details = serviceErr.Details
		}
	}
	c.JSON(status, resp)
}
