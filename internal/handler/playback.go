package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetview/internal/mapsync"
)

// PlaybackHandler exposes the playback transport over REST.
type PlaybackHandler struct {
	engine *mapsync.Engine
}

// NewPlaybackHandler creates a playback handler.
func NewPlaybackHandler(engine *mapsync.Engine) *PlaybackHandler {
	return &PlaybackHandler{engine: engine}
}

type startPlaybackRequest struct {
	DeviceID uint      `json:"device_id" binding:"required"`
	From     time.Time `json:"from" binding:"required"`
	To       time.Time `json:"to" binding:"required"`
}

func sessionStatus(s *mapsync.Session) gin.H {
	return gin.H{
		"device_id": s.DeviceID(),
		"samples":   s.Len(),
		"index":     s.Index(),
		"playing":   s.Playing(),
		"speed":     s.Speed(),
	}
}

// Start opens a playback session
// @Summary Start playback
// @Description Fetches a device's history and opens a paused playback session at the first sample
// @Tags Playback
// @Accept json
// @Produce json
// @Param request body startPlaybackRequest true "Device and time range"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /playback [post]
func (h *PlaybackHandler) Start(c *gin.Context) {
	var req startPlaybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.From.Before(req.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must precede to"})
		return
	}

	session, err := h.engine.StartPlayback(c.Request.Context(), req.DeviceID, req.From, req.To)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionStatus(session))
}

// Status returns the active session
// @Summary Playback status
// @Tags Playback
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /playback [get]
func (h *PlaybackHandler) Status(c *gin.Context) {
	session := h.engine.ActiveSession()
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active playback session"})
		return
	}
	c.JSON(http.StatusOK, sessionStatus(session))
}

type controlRequest struct {
	Action string  `json:"action" binding:"required"`
	Speed  float64 `json:"speed,omitempty"`
	Index  *int    `json:"index,omitempty"`
}

// Control drives the transport
// @Summary Control playback
// @Description Actions: play, pause, speed (with speed multiplier), seek (with sample index)
// @Tags Playback
// @Accept json
// @Produce json
// @Param request body controlRequest true "Transport action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /playback/control [post]
func (h *PlaybackHandler) Control(c *gin.Context) {
	session := h.engine.ActiveSession()
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active playback session"})
		return
	}

	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "play":
		session.Play()
	case "pause":
		session.Pause()
	case "speed":
		if req.Speed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "speed must be positive"})
			return
		}
		session.SetSpeed(req.Speed)
	case "seek":
		if req.Index == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seek requires an index"})
			return
		}
		session.Seek(*req.Index)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action " + strconv.Quote(req.Action)})
		return
	}

	c.JSON(http.StatusOK, sessionStatus(session))
}

// Stop ends the active session
// @Summary Stop playback
// @Description Ends the session, clearing the cursor and route layers
// @Tags Playback
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /playback [delete]
func (h *PlaybackHandler) Stop(c *gin.Context) {
	h.engine.StopPlayback()
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}
