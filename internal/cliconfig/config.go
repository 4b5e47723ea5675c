// Package cliconfig loads daemon configuration from defaults, a TOML file,
// NAPGUARD_* environment variables and command-line flags, in that
// precedence order (flags win).
package cliconfig

import (
	"fmt"
	"strconv"
	"time"
)

// ManualInhibitor is the name of the flag raised by the manual keep-awake
// endpoints.
const ManualInhibitor = "coffee"

// ServiceConfig describes one managed service.
type ServiceConfig struct {
	Name           string
	Unit           string
	ProcessPattern string
	Recovery       bool
}

// Config holds the daemon configuration.
type Config struct {
	Host string
	Port int

	// TimerDuration is the suspend countdown total.
	TimerDuration time.Duration

	// WakePollInterval is how often the wake monitor checks for a
	// completed suspend/resume cycle.
	WakePollInterval time.Duration

	Verbose  bool
	Services []ServiceConfig
}

// DefaultConfig returns a Config with default values: a ten-minute
// countdown and the ollama service managed.
func DefaultConfig() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             20553,
		TimerDuration:    10 * time.Minute,
		WakePollInterval: 15 * time.Second,
		Services: []ServiceConfig{
			{Name: "ollama", Unit: "ollama.service", ProcessPattern: "ollama", Recovery: true},
		},
	}
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.TimerDuration <= 0 {
		return fmt.Errorf("timer duration must be positive")
	}
	if c.WakePollInterval <= 0 {
		return fmt.Errorf("wake poll interval must be positive")
	}

	seen := make(map[string]bool, len(c.Services))
	for i := range c.Services {
		svc := &c.Services[i]
		if svc.Name == "" {
			return fmt.Errorf("service %d: name is required", i)
		}
		if svc.Name == ManualInhibitor {
			return fmt.Errorf("service name %q is reserved", ManualInhibitor)
		}
		if seen[svc.Name] {
			return fmt.Errorf("duplicate service name %q", svc.Name)
		}
		seen[svc.Name] = true
		if svc.Unit == "" {
			svc.Unit = svc.Name + ".service"
		}
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// configSetter applies values while respecting flags the user set
// explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
