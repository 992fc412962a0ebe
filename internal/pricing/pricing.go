// Package pricing talks to the external price prediction service. The
// service is a collaborator: when it is down or answers badly, the static
// fallback price from configuration is used instead.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"parking-gate-backend/config"
)

// Client estimates parking prices via the prediction service.
type Client struct {
	cfg    *config.PricingConfig
	client *http.Client
}

// NewClient creates a pricing client.
func NewClient(cfg *config.PricingConfig) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Features are the inputs the prediction model expects.
type Features struct {
	Hour      int     `json:"hour"`
	DayOfWeek int     `json:"day_of_week"`
	IsWeekend bool    `json:"is_weekend"`
	Occupancy float64 `json:"occupancy"`
}

type predictResponse struct {
	Status         string  `json:"status"`
	PredictedPrice float64 `json:"predicted_price"`
	Message        string  `json:"message"`
}

// EstimatePrice returns the predicted price for the given features, or the
// static fallback when the service is unreachable or unhealthy. The bool
// reports whether the value came from the model.
func (c *Client) EstimatePrice(ctx context.Context, f Features) (float64, bool) {
	price, err := c.predict(ctx, f)
	if err != nil {
		log.Printf("Price prediction unavailable, using fallback: %v", err)
		return c.cfg.FallbackPrice, false
	}
	return price, true
}

func (c *Client) predict(ctx context.Context, f Features) (float64, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ServiceURL+"/predict_price", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode prediction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "success" {
		return 0, fmt.Errorf("prediction service returned %d (%s)", resp.StatusCode, out.Message)
	}
	return out.PredictedPrice, nil
}

// TriggerRetrain asks the prediction service to retrain its model.
func (c *Client) TriggerRetrain(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ServiceURL+"/retrain", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("retrain returned status %d", resp.StatusCode)
	}
	return nil
}

// RunRetrainLoop periodically triggers model retraining until ctx is done.
func (c *Client) RunRetrainLoop(ctx context.Context) {
	if c.cfg.ServiceURL == "" {
		log.Println("Pricing service URL not configured. Retrain loop not starting.")
		return
	}
	log.Println("Starting pricing retrain loop...")

	timer := time.NewTimer(c.cfg.RetrainInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Pricing retrain loop shutting down.")
			return
		case <-timer.C:
			log.Println("Triggering remote model retraining...")
			if err := c.TriggerRetrain(ctx); err != nil {
				log.Printf("Model retrain failed: %v", err)
			} else {
				log.Println("Model retrain succeeded")
			}
			timer.Reset(c.cfg.RetrainInterval)
		}
	}
}
