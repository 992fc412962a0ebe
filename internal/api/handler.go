package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/gate"
	"parking-gate-backend/internal/presence"
	"parking-gate-backend/internal/pricing"
	"parking-gate-backend/internal/store"
)

// GateOpener runs the gate-open use case. Satisfied by *gate.Orchestrator.
type GateOpener interface {
	Open(ctx context.Context, req gate.OpenRequest) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	gate     GateOpener
	presence *presence.Tracker
	pricing  *pricing.Client
	webpush  *webpush.Options
	auth     *config.AuthConfig
	stripe   *config.StripeConfig
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, g GateOpener, p *presence.Tracker, pr *pricing.Client,
	webpushOptions *webpush.Options, authCfg *config.AuthConfig, stripeCfg *config.StripeConfig) *Handler {
	return &Handler{
		store:    s,
		gate:     g,
		presence: p,
		pricing:  pr,
		webpush:  webpushOptions,
		auth:     authCfg,
		stripe:   stripeCfg,
	}
}
