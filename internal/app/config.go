package app

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/raysh454/pagefetch/internal/demoserver"
	"github.com/raysh454/pagefetch/internal/logging"
	"github.com/raysh454/pagefetch/internal/webclient"
)

// EnvPrefix is prepended to every environment override, e.g.
// PAGEFETCH_STATIC_TIMEOUT=30s.
const EnvPrefix = "PAGEFETCH"

// Config is the full runtime configuration.
type Config struct {
	Log logging.Config `mapstructure:"log"`

	// Client picks the default backend: static, dynamic, nethttp or chromedp.
	Client  webclient.Client        `mapstructure:"client"`
	Static  webclient.StaticConfig  `mapstructure:"static"`
	Dynamic webclient.DynamicConfig `mapstructure:"dynamic"`

	Demo demoserver.Config `mapstructure:"demo"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	wc := webclient.DefaultConfig()
	return &Config{
		Log:     logging.DefaultConfig(),
		Client:  wc.Client,
		Static:  wc.Static,
		Dynamic: wc.Dynamic,
		Demo:    demoserver.DefaultConfig(),
	}
}

// WebClient assembles the backend selection and both backend sections.
func (c *Config) WebClient() webclient.Config {
	return webclient.Config{Client: c.Client, Static: c.Static, Dynamic: c.Dynamic}
}

// Validate checks values that would otherwise only fail on first use.
func (c *Config) Validate() error {
	if err := c.WebClient().Validate(); err != nil {
		return eris.Wrap(err, "config")
	}
	if c.Demo.Port < 0 || c.Demo.Port > 65535 {
		return eris.Errorf("config: demo.port %d out of range", c.Demo.Port)
	}
	return nil
}

// Load reads configuration from defaults, then an optional YAML file, then
// PAGEFETCH_* environment variables. An explicit path must exist; without
// one, ./pagefetch.yaml is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pagefetch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	// Read config file (optional unless named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("client", string(d.Client))

	v.SetDefault("static.timeout", d.Static.Timeout)
	v.SetDefault("static.connect_timeout", d.Static.ConnectTimeout)
	v.SetDefault("static.max_attempts", d.Static.MaxAttempts)
	v.SetDefault("static.backoff_factor", d.Static.BackoffFactor)
	v.SetDefault("static.max_backoff", d.Static.MaxBackoff)
	v.SetDefault("static.retry_statuses", d.Static.RetryStatuses)
	v.SetDefault("static.user_agent", d.Static.UserAgent)
	v.SetDefault("static.proxy", d.Static.Proxy)
	v.SetDefault("static.min_interval", d.Static.MinInterval)
	v.SetDefault("static.max_body_bytes", d.Static.MaxBodyBytes)

	v.SetDefault("dynamic.timeout", d.Dynamic.Timeout)
	v.SetDefault("dynamic.headless", d.Dynamic.Headless)
	v.SetDefault("dynamic.exec_path", d.Dynamic.ExecPath)
	v.SetDefault("dynamic.user_agent", d.Dynamic.UserAgent)
	v.SetDefault("dynamic.wait_selector", d.Dynamic.WaitSelector)
	v.SetDefault("dynamic.idle_after", d.Dynamic.IdleAfter)
	v.SetDefault("dynamic.min_interval", d.Dynamic.MinInterval)

	v.SetDefault("demo.port", d.Demo.Port)
	v.SetDefault("demo.render_delay", d.Demo.RenderDelay)
	v.SetDefault("demo.stall_limit", d.Demo.StallLimit)
}
