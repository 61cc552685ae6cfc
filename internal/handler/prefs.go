package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetview/internal/mapsync"
	"fleetview/internal/service"
)

// PrefsHandler manages per-operator display preferences. Updates take effect
// on the rendered map immediately via the sync engine.
type PrefsHandler struct {
	prefs  *service.PrefsService
	engine *mapsync.Engine
}

// NewPrefsHandler creates a preferences handler.
func NewPrefsHandler(prefs *service.PrefsService, engine *mapsync.Engine) *PrefsHandler {
	return &PrefsHandler{prefs: prefs, engine: engine}
}

// Get returns an operator's display preferences
// @Summary Get display preferences
// @Description Returns the operator's preferences, creating defaults on first access
// @Tags Preferences
// @Produce json
// @Param operator path string true "Operator name"
// @Success 200 {object} model.DisplayPreferences
// @Failure 500 {object} map[string]string
// @Router /preferences/{operator} [get]
func (h *PrefsHandler) Get(c *gin.Context) {
	prefs, err := h.prefs.Get(c.Request.Context(), c.Param("operator"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

type updatePrefsRequest struct {
	SpeedUnit     string `json:"speed_unit" binding:"required"`
	DirectionMode string `json:"direction_mode" binding:"required"`
}

// Update stores new display preferences
// @Summary Update display preferences
// @Description Validates and stores preferences, then reprojects the map with the new unit and arrow mode
// @Tags Preferences
// @Accept json
// @Produce json
// @Param operator path string true "Operator name"
// @Param request body updatePrefsRequest true "New preferences"
// @Success 200 {object} model.DisplayPreferences
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /preferences/{operator} [put]
func (h *PrefsHandler) Update(c *gin.Context) {
	var req updatePrefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs, err := h.prefs.Update(c.Request.Context(), c.Param("operator"), req.SpeedUnit, req.DirectionMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.engine.ApplyPreferences(prefs.SpeedUnit, prefs.DirectionMode)
	c.JSON(http.StatusOK, prefs)
}
