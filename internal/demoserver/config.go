package demoserver

import "time"

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int `mapstructure:"port"`

	// RenderDelay postpones the script that fills /rendered.
	RenderDelay time.Duration `mapstructure:"render_delay"`

	// StallLimit caps how long /stall keeps a connection open.
	StallLimit time.Duration `mapstructure:"stall_limit"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:        9999,
		RenderDelay: 200 * time.Millisecond,
		StallLimit:  2 * time.Minute,
	}
}
