package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, h *Handler) *gin.Engine {
	r := gin.Default()

	limit := rate.Limit(10)
	if cfg.Server.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.Server.RateLimitPerSec)
	}
	rateLimiter := mw.RateLimiter(limit, 5)

	cacheTTL := 1 * time.Minute
	if cfg.Server.CacheTTLSeconds > 0 {
		cacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Public
		api.POST("/user/register", h.Register)
		api.POST("/user/login", h.Login)
		api.GET("/device", h.DeviceStatus)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		// Slots: reads are cacheable, writes come from the admin UI and the
		// vision service.
		api.GET("/slots", caching, h.GetSlots)
		api.POST("/slots", h.CreateSlot)
		api.POST("/slots/available", h.GetAvailableSlots)
		api.POST("/slots/status", h.UpdateSlotStatus)

		api.GET("/price/estimate", h.EstimatePrice)

		// User-scoped
		authed := api.Group("")
		authed.Use(RequireAuth(h.auth))
		{
			authed.POST("/gate/open", h.OpenGate)

			authed.POST("/bookings", h.CreateBooking)
			authed.GET("/bookings", h.GetBookings)
			authed.POST("/slots/reserve", h.AddReservationToSlot)

			authed.POST("/payments/intent", h.CreatePaymentIntent)
			authed.POST("/payments", h.SaveTransaction)
			authed.GET("/transactions", h.GetTransactions)

			authed.GET("/subscriptions", h.GetSubscriptions)
			authed.PUT("/subscriptions", h.PutSubscription)
			authed.DELETE("/subscriptions", h.DeleteSubscription)
		}
	}

	return r
}
