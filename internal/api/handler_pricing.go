package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/pricing"
)

// EstimatePrice handles GET /api/price/estimate. Features are derived from
// the requested start time (default now) and the current slot occupancy;
// the prediction service answers, or the static fallback applies.
func (h *Handler) EstimatePrice(c *gin.Context) {
	at := time.Now()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid 'at' timestamp format. Use RFC3339."})
			return
		}
		at = parsed
	}

	slots, err := h.store.AllSlots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching slots."})
		return
	}

	occupancy := 0.0
	if len(slots) > 0 {
		occupied := 0
		for _, s := range slots {
			if s.CurrentStatus(at) != model.SlotAvailable {
				occupied++
			}
		}
		occupancy = float64(occupied) / float64(len(slots))
	}

	weekday := at.Weekday()
	price, predicted := h.pricing.EstimatePrice(c.Request.Context(), pricing.Features{
		Hour:      at.Hour(),
		DayOfWeek: int(weekday),
		IsWeekend: weekday == time.Saturday || weekday == time.Sunday,
		Occupancy: occupancy,
	})

	c.JSON(http.StatusOK, gin.H{
		"price":     price,
		"predicted": predicted,
		"occupancy": occupancy,
	})
}
