package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleetview/internal/client"
	"fleetview/internal/mapsync"
	"fleetview/internal/model"
	"fleetview/internal/nearest"
	"fleetview/internal/state"
)

// ConsoleHandler serves the console's read surface: devices, geofences,
// groups and nearest-geofence queries over the live state.
type ConsoleHandler struct {
	store    *state.Store
	platform *client.Client
	engine   *mapsync.Engine
}

// NewConsoleHandler creates a console handler.
func NewConsoleHandler(store *state.Store, platform *client.Client, engine *mapsync.Engine) *ConsoleHandler {
	return &ConsoleHandler{store: store, platform: platform, engine: engine}
}

// ListDevices returns the device list with latest positions
// @Summary List devices
// @Description Devices from live state, each with its latest position when known
// @Tags Console
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /devices [get]
func (h *ConsoleHandler) ListDevices(c *gin.Context) {
	devices := h.store.Devices()
	positions := h.store.Positions()

	type entry struct {
		Device   *model.Device   `json:"device"`
		Position *model.Position `json:"position,omitempty"`
	}
	out := make([]entry, 0, len(devices))
	for id, d := range devices {
		out = append(out, entry{Device: d, Position: positions[id]})
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  out,
		"total": len(out),
	})
}

// ListGeofences returns the geofence collection
// @Summary List geofences
// @Description The combined marker/zone/route collection currently rendered
// @Tags Console
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /geofences [get]
func (h *ConsoleHandler) ListGeofences(c *gin.Context) {
	geofences := h.store.Geofences()
	c.JSON(http.StatusOK, gin.H{
		"data":  geofences,
		"total": len(geofences),
	})
}

// RefreshGeofences refetches the geofence collection from the platform
// @Summary Refresh geofences
// @Tags Console
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /geofences/refresh [post]
func (h *ConsoleHandler) RefreshGeofences(c *gin.Context) {
	h.engine.SyncGeofences(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"total": len(h.store.Geofences()),
	})
}

// ListGroups returns geofence groups including the synthetic Ungrouped entry
// @Summary List geofence groups
// @Tags Console
// @Produce json
// @Success 200 {array} model.Group
// @Router /geofence-groups [get]
func (h *ConsoleHandler) ListGroups(c *gin.Context) {
	c.JSON(http.StatusOK, h.platform.Groups(c.Request.Context()))
}

// SelectDevice changes the selected device
// @Summary Select a device
// @Description Marks a device as selected; its marker leaves the cluster layer. Device id 0 clears the selection
// @Tags Console
// @Produce json
// @Param id path int true "Device ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /devices/{id}/select [post]
func (h *ConsoleHandler) SelectDevice(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if id != 0 && h.store.Device(uint(id)) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}

	h.engine.Select(uint(id))
	c.JSON(http.StatusOK, gin.H{"selected": id})
}

// NearestGeofences returns geofences sorted by distance from a device
// @Summary Nearest geofences
// @Description Distance-sorted geofences of one kind relative to the device's latest position
// @Tags Console
// @Produce json
// @Param id path int true "Device ID"
// @Param kind query string false "Geofence kind" default(marker)
// @Param limit query int false "Maximum results" default(10)
// @Success 200 {array} nearest.Result
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /devices/{id}/nearest [get]
func (h *ConsoleHandler) NearestGeofences(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	pos := h.store.Position(uint(id))
	if pos == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no position for device"})
		return
	}

	kind := model.GeofenceKind(c.DefaultQuery("kind", string(model.KindMarker)))
	switch kind {
	case model.KindMarker, model.KindZone, model.KindRoute:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	results := nearest.Sorted(pos.Point(), h.store.Geofences(), kind)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	c.JSON(http.StatusOK, results)
}
