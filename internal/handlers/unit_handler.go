package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

type UnitHandler struct {
	BaseHandler
	unitService services.UnitService
	validator   *validator.Validator
}

func NewUnitHandler(unitService services.UnitService, validator *validator.Validator, logger utils.Logger) *UnitHandler {
	return &UnitHandler{
		BaseHandler: NewBaseHandler(logger),
		unitService: unitService,
		validator:   validator,
	}
}

// ListUnits lists the units of a course in order
// @Summary List units
// @Tags units
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {array} models.Unit
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units [get]
func (h *UnitHandler) ListUnits(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	units, err := h.unitService.List(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

// CreateUnit adds a unit, shifting siblings when the order is taken
// @Summary Create unit
// @Tags units
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param unit body services.CreateUnitRequest true "Unit data"
// @Success 201 {object} models.Unit
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units [post]
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	h.LogRequest(c, "Creating unit", "course_id", courseID)

	var req services.CreateUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}

	unit, err := h.unitService.Create(c.Request.Context(), courseID, &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// GetUnit returns a unit with its lessons and exams
// @Summary Get unit
// @Tags units
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Success 200 {object} models.Unit
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId} [get]
func (h *UnitHandler) GetUnit(c *gin.Context) {
	courseID, unitID, ok := h.unitParams(c)
	if !ok {
		return
	}

	unit, err := h.unitService.Get(c.Request.Context(), courseID, unitID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// UpdateUnit updates a unit
// @Summary Update unit
// @Tags units
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Param unit body services.UpdateUnitRequest true "Unit data"
// @Success 200 {object} models.Unit
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId} [put]
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	courseID, unitID, ok := h.unitParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Updating unit", "course_id", courseID, "unit_id", unitID)

	var req services.UpdateUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}

	unit, err := h.unitService.Update(c.Request.Context(), courseID, unitID, &req, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// DeleteUnit deletes a unit and its content
// @Summary Delete unit
// @Tags units
// @Param id path uint true "Course ID"
// @Param unitId path uint true "Unit ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/units/{unitId} [delete]
func (h *UnitHandler) DeleteUnit(c *gin.Context) {
	courseID, unitID, ok := h.unitParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting unit", "course_id", courseID, "unit_id", unitID)

	if err := h.unitService.Delete(c.Request.Context(), courseID, unitID, h.getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderUnits assigns new orders to units of a course
// @Summary Reorder units
// @Tags units
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param body body validator.UnitReorderRequest true "New orders"
// @Success 200 {array} models.Unit
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id}/units/reorder [put]
func (h *UnitHandler) ReorderUnits(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	var req validator.UnitReorderRequest
	if !h.bindJSON(c, &req) || !h.validate(c, h.validator, &req) {
		return
	}

	h.LogRequest(c, "Reordering units", "course_id", courseID, "count", len(req.UnitOrder))

	units, err := h.unitService.Reorder(c.Request.Context(), courseID, req.UnitOrder, h.getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

func (h *UnitHandler) unitParams(c *gin.Context) (courseID, unitID uint, ok bool) {
	ids, ok := h.parseIDParams(c, "id", "unitId")
	if !ok {
		return 0, 0, false
	}
	return ids[0], ids[1], true
}
