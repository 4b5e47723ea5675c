package cliconfig

import "os"

// Environment variable names. Env values override the config file but are
// themselves overridden by explicit flags.
const (
	EnvHost          = "NAPGUARD_HOST"
	EnvPort          = "NAPGUARD_PORT"
	EnvTimerDuration = "NAPGUARD_TIMER_DURATION"
	EnvWakePoll      = "NAPGUARD_WAKE_POLL_INTERVAL"
	EnvVerbose       = "NAPGUARD_VERBOSE"
)

// ApplyEnvConfig applies NAPGUARD_* environment variables onto cfg,
// skipping fields whose flags were set explicitly.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", os.Getenv(EnvHost), &cfg.Host)
	if err := s.setIntFromString("port", os.Getenv(EnvPort), &cfg.Port); err != nil {
		return err
	}
	if err := s.setDuration("timer", os.Getenv(EnvTimerDuration), &cfg.TimerDuration); err != nil {
		return err
	}
	if err := s.setDuration("wake-poll", os.Getenv(EnvWakePoll), &cfg.WakePollInterval); err != nil {
		return err
	}
	s.setBoolFromString("verbose", os.Getenv(EnvVerbose), &cfg.Verbose)
	return nil
}
