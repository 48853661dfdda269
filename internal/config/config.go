package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/swaygravity/internal/placement"
	"github.com/1broseidon/swaygravity/internal/runtimepath"
)

const (
	DefaultSwayEventDelayMS  = 200
	DefaultHandoverTimeoutMS = 5000
	DefaultLogLevel          = "info"
)

// Config is the daemon and client configuration. It is computed once at
// startup and passed explicitly.
type Config struct {
	// Socket overrides the default socket path when set.
	Socket string `yaml:"socket,omitempty"`
	// SwayEventDelay is how long to let sway settle after a reload, in ms.
	SwayEventDelay int `yaml:"sway_event_delay"`
	// HandoverTimeout bounds the wait for a previous daemon to exit, in ms.
	HandoverTimeout int `yaml:"handover_timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Defaults seed the daemon's placement state before CLI arguments.
	Defaults placement.Update `yaml:"defaults,omitempty"`
}

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		SwayEventDelay:  DefaultSwayEventDelayMS,
		HandoverTimeout: DefaultHandoverTimeoutMS,
		LogLevel:        DefaultLogLevel,
	}
}

// EventDelay returns SwayEventDelay as a duration.
func (c *Config) EventDelay() time.Duration {
	return time.Duration(c.SwayEventDelay) * time.Millisecond
}

// HandoverWait returns HandoverTimeout as a duration.
func (c *Config) HandoverWait() time.Duration {
	return time.Duration(c.HandoverTimeout) * time.Millisecond
}

// SocketPath returns the configured socket, or the per-session default.
func (c *Config) SocketPath() (string, error) {
	if s := strings.TrimSpace(c.Socket); s != "" {
		return s, nil
	}
	return runtimepath.SocketPath()
}

// InitialState builds the daemon's starting state: Defaults first, then
// override field by field.
func (c *Config) InitialState(override placement.Update) (placement.State, error) {
	return placement.FromUpdate(c.Defaults.Overlay(override))
}

func (c *Config) Validate() error {
	if c.SwayEventDelay < 0 {
		return &ValidationError{Path: "sway_event_delay", Err: fmt.Errorf("sway_event_delay must be >= 0")}
	}
	if c.HandoverTimeout < 0 {
		return &ValidationError{Path: "handover_timeout", Err: fmt.Errorf("handover_timeout must be >= 0")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.Defaults.Padding != nil && *c.Defaults.Padding < 0 {
		return &ValidationError{Path: "defaults.padding", Err: fmt.Errorf("padding must be >= 0")}
	}
	if c.Defaults.Width != nil && c.Defaults.Width.IsRelative() {
		return &ValidationError{Path: "defaults.width", Err: fmt.Errorf("width must not be a relative value")}
	}
	if c.Defaults.Height != nil && c.Defaults.Height.IsRelative() {
		return &ValidationError{Path: "defaults.height", Err: fmt.Errorf("height must not be a relative value")}
	}
	return nil
}
