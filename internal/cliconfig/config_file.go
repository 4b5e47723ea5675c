package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config with TOML-friendly types; durations are
// strings parsed by time.ParseDuration.
type FileConfig struct {
	Host             string              `toml:"host"`
	Port             int                 `toml:"port"`
	TimerDuration    string              `toml:"timer_duration"`
	WakePollInterval string              `toml:"wake_poll_interval"`
	Verbose          *bool               `toml:"verbose"`
	Services         []FileServiceConfig `toml:"services"`
}

type FileServiceConfig struct {
	Name           string `toml:"name"`
	Unit           string `toml:"unit"`
	ProcessPattern string `toml:"process_pattern"`
	Recovery       *bool  `toml:"recovery"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.napguard/config.toml when the home
// directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".napguard", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies file values onto cfg, skipping fields whose
// flags were set explicitly. A non-empty services list in the file
// replaces the default service table entirely.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", fc.Host, &cfg.Host)
	s.setInt("port", fc.Port, &cfg.Port)
	if err := s.setDuration("timer", fc.TimerDuration, &cfg.TimerDuration); err != nil {
		return err
	}
	if err := s.setDuration("wake-poll", fc.WakePollInterval, &cfg.WakePollInterval); err != nil {
		return err
	}
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	if len(fc.Services) > 0 {
		cfg.Services = make([]ServiceConfig, 0, len(fc.Services))
		for _, fs := range fc.Services {
			svc := ServiceConfig{
				Name:           fs.Name,
				Unit:           fs.Unit,
				ProcessPattern: fs.ProcessPattern,
				Recovery:       true,
			}
			if fs.Recovery != nil {
				svc.Recovery = *fs.Recovery
			}
			cfg.Services = append(cfg.Services, svc)
		}
	}
	return nil
}

// FileExists reports whether a file exists at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
