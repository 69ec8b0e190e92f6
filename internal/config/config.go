// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds portal backend configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL, or run an embedded
	// server when COMMSEmbedded is set.
	COMMSURL      string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName     string `envconfig:"SERVICE_NAME" default:"desktop-portal"`
	COMMSEmbedded bool   `envconfig:"COMMS_EMBEDDED" default:"false"`

	// Manifest
	ManifestFile string `envconfig:"PORTAL_MANIFEST_FILE"`

	// Permission store
	PermissionDB string `envconfig:"PORTAL_PERMISSION_DB" default:"permissions.db"`

	// Timeouts
	ShutdownTimeout time.Duration `envconfig:"PORTAL_SHUTDOWN_TIMEOUT" default:"10s"`

	// HTTP health endpoint (PORTAL_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"PORTAL_HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the portal backend.
func (c *Config) ValidateForServe() error {
	if !c.COMMSEmbedded && c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if c.PermissionDB == "" {
		return fmt.Errorf("%s - PORTAL_PERMISSION_DB is required for serve", logPrefix)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s - PORTAL_SHUTDOWN_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ValidateForStore checks required config when running store admin commands
// (permissions list, set, delete).
func (c *Config) ValidateForStore() error {
	if c.PermissionDB == "" {
		return fmt.Errorf("%s - PORTAL_PERMISSION_DB is required", logPrefix)
	}
	return nil
}
