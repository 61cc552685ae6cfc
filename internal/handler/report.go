package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetview/internal/client"
	"fleetview/internal/model"
	"fleetview/internal/service"
	"fleetview/internal/state"
)

// ReportHandler proxies history reports from the platform, with optional
// Excel export for operator download.
type ReportHandler struct {
	platform *client.Client
	store    *state.Store
	prefs    *service.PrefsService
}

// NewReportHandler creates a report handler. prefs may be nil; exports then
// use the wire speed unit.
func NewReportHandler(platform *client.Client, store *state.Store, prefs *service.PrefsService) *ReportHandler {
	return &ReportHandler{platform: platform, store: store, prefs: prefs}
}

func (h *ReportHandler) reportRange(c *gin.Context) (uint, time.Time, time.Time, bool) {
	id, err := strconv.ParseUint(c.Query("device_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device_id"})
		return 0, time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return 0, time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return 0, time.Time{}, time.Time{}, false
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must precede to"})
		return 0, time.Time{}, time.Time{}, false
	}
	return uint(id), from, to, true
}

func (h *ReportHandler) deviceName(id uint) string {
	if d := h.store.Device(id); d != nil {
		return d.Name
	}
	return fmt.Sprintf("device-%d", id)
}

// Stops returns the stops report
// @Summary Stops report
// @Description Detected stops for one device in a time range
// @Tags Reports
// @Produce json
// @Param device_id query int true "Device ID"
// @Param from query string true "Range start (RFC3339)"
// @Param to query string true "Range end (RFC3339)"
// @Success 200 {array} model.StopReport
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /reports/stops [get]
func (h *ReportHandler) Stops(c *gin.Context) {
	id, from, to, ok := h.reportRange(c)
	if !ok {
		return
	}

	stops, err := h.platform.StopsReport(c.Request.Context(), id, from, to)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stops)
}

// ExportStops downloads the stops report as a workbook
// @Summary Export stops report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param device_id query int true "Device ID"
// @Param from query string true "Range start (RFC3339)"
// @Param to query string true "Range end (RFC3339)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /reports/stops/export [get]
func (h *ReportHandler) ExportStops(c *gin.Context) {
	id, from, to, ok := h.reportRange(c)
	if !ok {
		return
	}

	stops, err := h.platform.StopsReport(c.Request.Context(), id, from, to)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	buf, err := service.BuildStopsWorkbook(h.deviceName(id), stops)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("stops_%d_%s.xlsx", id, from.Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Combined returns the combined history report
// @Summary Combined history report
// @Description Positions, route line and events for one device in a time range
// @Tags Reports
// @Produce json
// @Param device_id query int true "Device ID"
// @Param from query string true "Range start (RFC3339)"
// @Param to query string true "Range end (RFC3339)"
// @Success 200 {array} model.CombinedReport
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /reports/combined [get]
func (h *ReportHandler) Combined(c *gin.Context) {
	id, from, to, ok := h.reportRange(c)
	if !ok {
		return
	}

	reports, err := h.platform.CombinedReport(c.Request.Context(), id, from, to)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// ExportHistory downloads the position history as a workbook
// @Summary Export history
// @Description History positions as a workbook, speeds converted to the operator's display unit
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param device_id query int true "Device ID"
// @Param from query string true "Range start (RFC3339)"
// @Param to query string true "Range end (RFC3339)"
// @Param operator query string false "Operator whose display unit applies"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /reports/history/export [get]
func (h *ReportHandler) ExportHistory(c *gin.Context) {
	id, from, to, ok := h.reportRange(c)
	if !ok {
		return
	}

	reports, err := h.platform.CombinedReport(c.Request.Context(), id, from, to)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	unit := model.UnitKn
	if h.prefs != nil {
		if operator := c.Query("operator"); operator != "" {
			if p, err := h.prefs.Get(c.Request.Context(), operator); err == nil {
				unit = p.SpeedUnit
			}
		}
	}

	buf, err := service.BuildHistoryWorkbook(h.deviceName(id), flattenPositions(id, reports), unit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("history_%d_%s.xlsx", id, from.Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func flattenPositions(deviceID uint, reports []model.CombinedReport) []model.Position {
	var out []model.Position
	for _, r := range reports {
		if r.DeviceID != deviceID {
			continue
		}
		out = append(out, r.Positions...)
	}
	return out
}
