package webclient

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/raysh454/pagefetch/internal/utils"
)

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// DefaultUserAgent is sent by the static fetcher when the caller supplies none.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// Config selects a backend and carries the settings for both.
type Config struct {
	Client  Client        `mapstructure:"client"`
	Static  StaticConfig  `mapstructure:"static"`
	Dynamic DynamicConfig `mapstructure:"dynamic"`
}

// StaticConfig configures NetHTTPClient.
type StaticConfig struct {
	// Timeout is the read timeout used when a request does not set one.
	Timeout time.Duration `mapstructure:"timeout"`
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MaxAttempts is the total number of attempts, first one included.
	MaxAttempts int `mapstructure:"max_attempts"`
	// BackoffFactor scales the pause between retries: none before the first
	// retry, then factor*2^(n-1).
	BackoffFactor time.Duration `mapstructure:"backoff_factor"`
	MaxBackoff    time.Duration `mapstructure:"max_backoff"`
	RetryStatuses []int         `mapstructure:"retry_statuses"`
	UserAgent     string        `mapstructure:"user_agent"`
	// Proxy applies to every request that does not carry its own.
	Proxy string `mapstructure:"proxy"`
	// MinInterval spaces consecutive fetches on one instance. Zero disables it.
	MinInterval  time.Duration `mapstructure:"min_interval"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// DynamicConfig configures ChromedpClient.
type DynamicConfig struct {
	// Timeout bounds navigation plus readiness waiting when a request does
	// not set one.
	Timeout  time.Duration `mapstructure:"timeout"`
	Headless bool          `mapstructure:"headless"`
	// ExecPath points at a Chrome/Chromium binary; empty lets chromedp search.
	ExecPath  string `mapstructure:"exec_path"`
	UserAgent string `mapstructure:"user_agent"`
	// WaitSelector is the readiness condition: a CSS selector that must be
	// present and ready before markup is captured.
	WaitSelector string `mapstructure:"wait_selector"`
	// IdleAfter, when positive, additionally waits until no network request
	// has been in flight for this long.
	IdleAfter   time.Duration `mapstructure:"idle_after"`
	MinInterval time.Duration `mapstructure:"min_interval"`

	// OnLaunch is called with the browser PID right after launch.
	OnLaunch func(pid int) `mapstructure:"-"`
}

// DefaultConfig selects the static backend: 15s timeout, five attempts with
// a one second backoff factor on 5xx gateway errors.
func DefaultConfig() Config {
	return Config{
		Client:  ClientNetHTTP,
		Static:  DefaultStaticConfig(),
		Dynamic: DefaultDynamicConfig(),
	}
}

func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		Timeout:        15 * time.Second,
		ConnectTimeout: 5 * time.Second,
		MaxAttempts:    5,
		BackoffFactor:  time.Second,
		MaxBackoff:     120 * time.Second,
		RetryStatuses:  []int{500, 502, 503, 504},
		UserAgent:      DefaultUserAgent,
		MaxBodyBytes:   10 << 20,
	}
}

func DefaultDynamicConfig() DynamicConfig {
	return DynamicConfig{
		Timeout:      15 * time.Second,
		Headless:     true,
		WaitSelector: "body",
	}
}

// withDefaults fills zero values from DefaultStaticConfig and checks the rest.
func (c StaticConfig) withDefaults() (StaticConfig, error) {
	def := DefaultStaticConfig()
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = def.BackoffFactor
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.RetryStatuses == nil {
		c.RetryStatuses = def.RetryStatuses
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}

	switch {
	case c.Timeout < 0, c.ConnectTimeout < 0, c.BackoffFactor < 0, c.MaxBackoff < 0, c.MinInterval < 0:
		return c, invalidInput(nil, "static config: durations must not be negative")
	case c.MaxAttempts < 0:
		return c, invalidInput(nil, "static config: max_attempts must not be negative")
	case c.MaxBodyBytes < 0:
		return c, invalidInput(nil, "static config: max_body_bytes must not be negative")
	}
	for _, s := range c.RetryStatuses {
		if s < 100 || s > 599 {
			return c, invalidInput(nil, "static config: retry status %d out of range", s)
		}
	}
	if c.Proxy != "" {
		if _, err := utils.ParseProxy(c.Proxy); err != nil {
			return c, invalidInput(err, "static config: invalid proxy")
		}
	}
	return c, nil
}

func (c DynamicConfig) withDefaults() (DynamicConfig, error) {
	def := DefaultDynamicConfig()
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.WaitSelector == "" {
		c.WaitSelector = def.WaitSelector
	}
	if c.Timeout < 0 || c.IdleAfter < 0 || c.MinInterval < 0 {
		return c, invalidInput(nil, "dynamic config: durations must not be negative")
	}
	return c, nil
}

// Validate checks both backend sections.
func (c Config) Validate() error {
	if _, err := c.Static.withDefaults(); err != nil {
		return eris.Wrap(err, "webclient config")
	}
	if _, err := c.Dynamic.withDefaults(); err != nil {
		return eris.Wrap(err, "webclient config")
	}
	return nil
}
