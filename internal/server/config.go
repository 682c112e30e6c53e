package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/qualificacao-dashboard/internal/config"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address        string               `yaml:"address"`
	SessionTTL     string               `yaml:"sessionTTL"`
	SweepSchedule  string               `yaml:"sweepSchedule"`
	MetricsEnabled bool                 `yaml:"metricsEnabled"`
	Logging        config.LoggingConfig `yaml:"logging"`
	sessionTTL     time.Duration
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:        constants.DefaultServerAddress,
		SessionTTL:     constants.DefaultSessionTTL,
		SweepSchedule:  constants.DefaultSweepSchedule,
		MetricsEnabled: true,
		Logging:        config.LoggingConfig{},
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SessionTTLDuration returns the parsed idle session lifetime.
func (c *Config) SessionTTLDuration() time.Duration {
	return c.sessionTTL
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}

	if strings.TrimSpace(c.SessionTTL) == "" {
		c.SessionTTL = constants.DefaultSessionTTL
	}
	ttl, err := time.ParseDuration(strings.TrimSpace(c.SessionTTL))
	if err != nil {
		return fmt.Errorf("invalid sessionTTL %q: %w", c.SessionTTL, err)
	}
	if ttl <= 0 {
		return fmt.Errorf("sessionTTL must be positive, got %s", c.SessionTTL)
	}
	c.sessionTTL = ttl

	if strings.TrimSpace(c.SweepSchedule) == "" {
		c.SweepSchedule = constants.DefaultSweepSchedule
	}
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		return fmt.Errorf("invalid sweepSchedule %q: %w", c.SweepSchedule, err)
	}
	return nil
}
