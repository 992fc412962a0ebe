package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Redis      RedisConfig      `yaml:"redis"`
	Gate       GateConfig       `yaml:"gate"`
	Presence   PresenceConfig   `yaml:"presence"`
	Auth       AuthConfig       `yaml:"auth"`
	Stripe     StripeConfig     `yaml:"stripe"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// MQTTConfig holds the broker connection settings for the gate device.
type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
	UseTLS   bool   `yaml:"use_tls"`
}

// RedisConfig holds the ack-correlation broker settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
}

// GateConfig holds the physical gate location and the gate-open policy.
// The windows are policy values, not protocol constants, so they are
// configured here rather than hardcoded.
type GateConfig struct {
	Latitude          float64       `yaml:"latitude"`
	Longitude         float64       `yaml:"longitude"`
	MaxDistanceMeters float64       `yaml:"max_distance_meters"`
	AckTimeoutSeconds int           `yaml:"ack_timeout_seconds"`
	EarlyOpenMinutes  int           `yaml:"early_open_minutes"`
	AckTimeout        time.Duration `yaml:"-"`
	EarlyOpenWindow   time.Duration `yaml:"-"`
}

// PresenceConfig holds the device liveness window.
type PresenceConfig struct {
	LivenessWindowSeconds int           `yaml:"liveness_window_seconds"`
	LivenessWindow        time.Duration `yaml:"-"`
}

// AuthConfig holds the JWT signing settings.
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	TokenTTLDays int    `yaml:"token_ttl_days"`
}

// StripeConfig holds the payment gateway credentials.
type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
	Currency  string `yaml:"currency"`
}

// PricingConfig holds the prediction service settings and the static fallback.
type PricingConfig struct {
	ServiceURL           string        `yaml:"service_url"`
	FallbackPrice        float64       `yaml:"fallback_price"`
	RetrainIntervalHours int           `yaml:"retrain_interval_hours"`
	RetrainInterval      time.Duration `yaml:"-"`
}

// CleanupConfig holds the expired-reservation pruning schedule.
type CleanupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	IntervalHours int           `yaml:"interval_hours"`
	Interval      time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path. Credentials can be
// overridden from the environment so secrets stay out of the config file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Gate.MaxDistanceMeters <= 0 {
		cfg.Gate.MaxDistanceMeters = 200
	}
	if cfg.Gate.AckTimeoutSeconds <= 0 {
		cfg.Gate.AckTimeoutSeconds = 15
	}
	if cfg.Gate.EarlyOpenMinutes <= 0 {
		cfg.Gate.EarlyOpenMinutes = 5
	}
	cfg.Gate.AckTimeout = time.Duration(cfg.Gate.AckTimeoutSeconds) * time.Second
	cfg.Gate.EarlyOpenWindow = time.Duration(cfg.Gate.EarlyOpenMinutes) * time.Minute

	if cfg.Presence.LivenessWindowSeconds <= 0 {
		cfg.Presence.LivenessWindowSeconds = 10
	}
	cfg.Presence.LivenessWindow = time.Duration(cfg.Presence.LivenessWindowSeconds) * time.Second

	if cfg.Auth.TokenTTLDays <= 0 {
		cfg.Auth.TokenTTLDays = 7
	}

	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "inr"
	}

	if cfg.Pricing.RetrainIntervalHours <= 0 {
		cfg.Pricing.RetrainIntervalHours = 24 * 7
	}
	cfg.Pricing.RetrainInterval = time.Duration(cfg.Pricing.RetrainIntervalHours) * time.Hour

	if cfg.Cleanup.IntervalHours <= 0 {
		cfg.Cleanup.IntervalHours = 24
	}
	cfg.Cleanup.Interval = time.Duration(cfg.Cleanup.IntervalHours) * time.Hour

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env  string
		dest *string
	}{
		{"MQTT_HOST", &cfg.MQTT.Host},
		{"MQTT_USERNAME", &cfg.MQTT.Username},
		{"MQTT_PASSWORD", &cfg.MQTT.Password},
		{"REDIS_ADDR", &cfg.Redis.Addr},
		{"REDIS_PASSWORD", &cfg.Redis.Password},
		{"JWT_SECRET", &cfg.Auth.JWTSecret},
		{"STRIPE_SECRET_KEY", &cfg.Stripe.SecretKey},
		{"ML_SERVICE_URL", &cfg.Pricing.ServiceURL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dest = v
		}
	}
}
