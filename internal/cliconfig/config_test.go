package cliconfig

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"port zero", func(c *Config) { c.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Port = 70000 }, "port"},
		{"zero timer", func(c *Config) { c.TimerDuration = 0 }, "timer"},
		{"negative wake poll", func(c *Config) { c.WakePollInterval = -time.Second }, "wake poll"},
		{"empty service name", func(c *Config) {
			c.Services = []ServiceConfig{{Name: ""}}
		}, "name is required"},
		{"reserved service name", func(c *Config) {
			c.Services = []ServiceConfig{{Name: ManualInhibitor}}
		}, "reserved"},
		{"duplicate service name", func(c *Config) {
			c.Services = []ServiceConfig{{Name: "a"}, {Name: "a"}}
		}, "duplicate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_DefaultsUnitFromName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Services = []ServiceConfig{{Name: "render"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := cfg.Services[0].Unit; got != "render.service" {
		t.Errorf("unit = %q, want render.service", got)
	}
}

func TestAddr(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 8080}
	if got := cfg.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestApplyFileConfig(t *testing.T) {
	cfg := DefaultConfig()
	fc := FileConfig{
		Host:             "127.0.0.1",
		Port:             9000,
		TimerDuration:    "45m",
		WakePollInterval: "30s",
	}

	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 9000 {
		t.Errorf("address not applied: %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.TimerDuration != 45*time.Minute || cfg.WakePollInterval != 30*time.Second {
		t.Errorf("durations not applied: %v %v", cfg.TimerDuration, cfg.WakePollInterval)
	}
	if len(cfg.Services) != 1 || cfg.Services[0].Name != "ollama" {
		t.Errorf("default services must survive an empty services list: %+v", cfg.Services)
	}
}

func TestApplyFileConfig_FlagsWin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 1234
	cfg.TimerDuration = 5 * time.Minute
	changed := map[string]bool{"port": true, "timer": true}

	fc := FileConfig{Port: 9000, TimerDuration: "45m"}
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Port != 1234 {
		t.Errorf("explicit flag must win over the file, port = %d", cfg.Port)
	}
	if cfg.TimerDuration != 5*time.Minute {
		t.Errorf("explicit flag must win over the file, timer = %v", cfg.TimerDuration)
	}
}

func TestApplyFileConfig_ServicesReplaceDefaults(t *testing.T) {
	cfg := DefaultConfig()
	noRecovery := false
	fc := FileConfig{
		Services: []FileServiceConfig{
			{Name: "render", ProcessPattern: "render-worker"},
			{Name: "indexer", Unit: "indexer.service", Recovery: &noRecovery},
		},
	}

	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(cfg.Services) != 2 {
		t.Fatalf("expected 2 services, got %+v", cfg.Services)
	}
	if !cfg.Services[0].Recovery {
		t.Error("recovery must default to enabled")
	}
	if cfg.Services[1].Recovery {
		t.Error("explicit recovery=false must be honoured")
	}
}

func TestApplyFileConfig_BadDuration(t *testing.T) {
	cfg := DefaultConfig()
	fc := FileConfig{TimerDuration: "soon"}
	if err := ApplyFileConfig(&cfg, fc, nil); err == nil {
		t.Error("expected a parse error")
	}
}

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv(EnvHost, "10.0.0.5")
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvTimerDuration, "20m")
	t.Setenv(EnvVerbose, "true")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Host != "10.0.0.5" || cfg.Port != 9100 {
		t.Errorf("address not applied: %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.TimerDuration != 20*time.Minute {
		t.Errorf("timer not applied: %v", cfg.TimerDuration)
	}
	if !cfg.Verbose {
		t.Error("verbose not applied")
	}
}

func TestApplyEnvConfig_FlagsWin(t *testing.T) {
	t.Setenv(EnvPort, "9100")

	cfg := DefaultConfig()
	cfg.Port = 1234
	if err := ApplyEnvConfig(&cfg, map[string]bool{"port": true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Port != 1234 {
		t.Errorf("explicit flag must win over env, port = %d", cfg.Port)
	}
}

func TestApplyEnvConfig_BadPort(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err == nil {
		t.Error("expected a parse error")
	}
}
