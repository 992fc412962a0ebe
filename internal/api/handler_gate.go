package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-gate-backend/internal/bus"
	"parking-gate-backend/internal/gate"
)

// Coordinates are pointers so a missing field is distinguishable from a
// legitimate zero value on the equator or prime meridian.
type gateOpenRequest struct {
	ReservationID string `json:"reservationId" binding:"required"`
	Location      struct {
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
	} `json:"location" binding:"required"`
}

// OpenGate handles POST /api/gate/open. The request suspends until the
// device acknowledges the command or the ack timeout elapses.
func (h *Handler) OpenGate(c *gin.Context) {
	var req gateOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing location or reservation ID"})
		return
	}

	err := h.gate.Open(c.Request.Context(), gate.OpenRequest{
		ReservationID: req.ReservationID,
		Latitude:      *req.Location.Latitude,
		Longitude:     *req.Location.Longitude,
	})
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Gate opened successfully."})
		return
	}

	var deviceErr *gate.DeviceError
	switch {
	case errors.Is(err, gate.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Reservation not found"})
	case errors.Is(err, gate.ErrTooEarly):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Too early to open gate"})
	case errors.Is(err, gate.ErrAlreadyOpened):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Gate already opened"})
	case errors.Is(err, gate.ErrBadLocation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid location coordinates"})
	case errors.Is(err, gate.ErrInFlight):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Gate open already in progress for this reservation"})
	case errors.Is(err, gate.ErrTooFar):
		// Geofence rejection is reported in the body, not the status code.
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "You are too far from the parking space."})
	case errors.Is(err, gate.ErrAckTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"success": false, "message": "Timeout waiting for device ack."})
	case errors.As(err, &deviceErr):
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": deviceErr.Error()})
	case errors.Is(err, bus.ErrPublish):
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to send gate command"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
	}
}

// DeviceStatus handles GET /api/device, the presence query.
func (h *Handler) DeviceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.presence.Online()})
}
