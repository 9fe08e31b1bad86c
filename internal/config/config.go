package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the cart service.
// Environment variables are parsed from the CART_ prefix.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Redis endpoints. The cart data client, the read-only inventory client,
	// and the pub/sub client mirror the three connections the service holds.
	CartRedisURL      string `envconfig:"REDIS_CART_URL" default:"redis://localhost:6379/0"`
	InventoryRedisURL string `envconfig:"REDIS_INVENTORY_URL" default:"redis://localhost:6379/1"`
	PubSubRedisURL    string `envconfig:"REDIS_PUBSUB_URL" default:""`

	// Stock change feed
	StockFeedChannel string `envconfig:"STOCK_FEED_CHANNEL" default:"inventory:stock-changes"`

	// Reconciliation behavior
	LowStockThreshold int `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`
	// InventoryOutageMode selects what reconcile does when the inventory
	// batch lookup fails outright: "fail-closed" purges (unreadable stock is
	// zero stock), "skip" returns the cart untouched with a warning.
	InventoryOutageMode string `envconfig:"INVENTORY_OUTAGE_MODE" default:"fail-closed"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ResolveDefaults derives unset fields and validates enums.
func (c *Config) ResolveDefaults() error {
	if c.PubSubRedisURL == "" {
		c.PubSubRedisURL = c.CartRedisURL
	}
	switch c.InventoryOutageMode {
	case "fail-closed", "skip":
	default:
		return fmt.Errorf("unsupported INVENTORY_OUTAGE_MODE: %s", c.InventoryOutageMode)
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must be >= 0, got %d", c.LowStockThreshold)
	}
	return nil
}

// New creates a Config by parsing CART_-prefixed environment variables.
// Example: CART_HTTP_PORT, CART_REDIS_CART_URL.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CART", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("stock_feed_channel", cfg.StockFeedChannel).
		Str("inventory_outage_mode", cfg.InventoryOutageMode).
		Int("low_stock_threshold", cfg.LowStockThreshold).
		Msg("Configuration loaded")

	return &cfg, nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
