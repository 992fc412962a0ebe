package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/store"
)

type createSlotRequest struct {
	SlotName   string `json:"slotName" binding:"required"`
	SlotStatus string `json:"slotStatus" binding:"required,oneof=available reserved occupied"`
}

// CreateSlot handles POST /api/slots.
func (h *Handler) CreateSlot(c *gin.Context) {
	var req createSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "slotName and slotStatus are required."})
		return
	}

	if _, err := h.store.SlotByName(c.Request.Context(), req.SlotName); err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Slot with this name already exists."})
		return
	}

	slot := model.Slot{SlotName: req.SlotName, SlotStatus: req.SlotStatus}
	if err := h.store.CreateSlot(c.Request.Context(), &slot); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while creating slot."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Slot created successfully", "slot": slot})
}

// slotResponse augments a slot with its derived current status.
type slotResponse struct {
	model.Slot
	CurrentStatus string `json:"currentStatus"`
}

// GetSlots handles GET /api/slots.
func (h *Handler) GetSlots(c *gin.Context) {
	slots, err := h.store.AllSlots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching slots."})
		return
	}

	now := time.Now()
	response := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		response = append(response, slotResponse{Slot: s, CurrentStatus: s.CurrentStatus(now)})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Slots fetched successfully", "slots": response})
}

type availableSlotsRequest struct {
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
}

// GetAvailableSlots handles POST /api/slots/available.
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	var req availableSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Start time and End time are required."})
		return
	}
	if !req.EndTime.After(req.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "End time must be after Start time."})
		return
	}

	names, err := h.store.AvailableSlots(c.Request.Context(), req.StartTime, req.EndTime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching slots."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"availableSlots": names})
}

type addReservationRequest struct {
	SlotName  string    `json:"slotName" binding:"required"`
	UserID    string    `json:"userId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
}

// AddReservationToSlot handles POST /api/slots/reserve.
func (h *Handler) AddReservationToSlot(c *gin.Context) {
	var req addReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	err := h.store.AddReservationToSlot(c.Request.Context(), req.SlotName, model.SlotReservation{
		UserID:    req.UserID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Slot not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reservation added to slot"})
}

type slotStatusUpdate struct {
	SlotName string `json:"slotName" binding:"required"`
	Status   string `json:"status" binding:"required,oneof=available reserved occupied"`
}

// UpdateSlotStatus handles POST /api/slots/status. The vision service posts
// one or many updates per detection cycle.
func (h *Handler) UpdateSlotStatus(c *gin.Context) {
	// Allow a single object as well as an array; ShouldBindBodyWith keeps
	// the body available for the second attempt.
	var updates []slotStatusUpdate
	if err := c.ShouldBindBodyWith(&updates, binding.JSON); err != nil {
		var single slotStatusUpdate
		if err := c.ShouldBindBodyWith(&single, binding.JSON); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
			return
		}
		updates = []slotStatusUpdate{single}
	}

	type result struct {
		SlotName string `json:"slotName"`
		Success  bool   `json:"success"`
		Message  string `json:"message"`
	}

	results := make([]result, 0, len(updates))
	for _, u := range updates {
		err := h.store.UpdateSlotStatus(c.Request.Context(), u.SlotName, u.Status)
		switch {
		case errors.Is(err, store.ErrNotFound):
			results = append(results, result{SlotName: u.SlotName, Success: false, Message: "Slot not found"})
		case err != nil:
			results = append(results, result{SlotName: u.SlotName, Success: false, Message: "Update failed"})
		default:
			results = append(results, result{SlotName: u.SlotName, Success: true, Message: "Updated to " + u.Status})
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Batch update completed", "results": results})
}
