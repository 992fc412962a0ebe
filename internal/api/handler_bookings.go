package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-gate-backend/internal/model"
)

type createBookingRequest struct {
	Name      string    `json:"name" binding:"required"`
	CarNumber string    `json:"carNumber" binding:"required"`
	Slot      string    `json:"slot" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	Amount    float64   `json:"amount" binding:"required,gt=0"`
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	res := model.Reservation{
		UserID:    currentUserID(c),
		Name:      req.Name,
		CarNumber: req.CarNumber,
		Slot:      req.Slot,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Amount:    req.Amount,
	}
	if err := h.store.CreateReservation(c.Request.Context(), &res); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Booking saved successfully", "reservation": res})
}

// GetBookings handles GET /api/bookings for the authenticated user.
func (h *Handler) GetBookings(c *gin.Context) {
	reservations, err := h.store.ReservationsByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	c.JSON(http.StatusOK, reservations)
}
