package app

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/raysh454/pagefetch/internal/demoserver"
	"github.com/raysh454/pagefetch/internal/logging"
	"github.com/raysh454/pagefetch/internal/webclient"
)

// Application is the runtime state shared by the commands: config, the root
// logger and every fetcher opened through it. Pass it around instead of
// using package-level variables.
type Application struct {
	Config *Config
	Logger logging.Logger

	closeLogger func() error

	mu       sync.Mutex
	fetchers []webclient.WebClient
	closed   bool
}

// NewApplication builds the root logger from cfg.Log. A nil cfg means
// DefaultConfig.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	zl, err := logging.New(cfg.Log, "pagefetch")
	if err != nil {
		return nil, eris.Wrap(err, "init logger")
	}
	return &Application{Config: cfg, Logger: zl, closeLogger: zl.Close}, nil
}

// NewApplicationWithLogger uses logger as-is; tests pass a TestLogger.
func NewApplicationWithLogger(cfg *Config, logger logging.Logger) *Application {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Application{Config: cfg, Logger: logger}
}

// NewFetcher opens a fetcher for mode ("static", "dynamic" or a registered
// backend name). An empty mode uses Config.Client. The fetcher is closed by
// Shutdown.
func (a *Application) NewFetcher(mode string) (webclient.WebClient, error) {
	if a == nil {
		return nil, eris.New("application is nil")
	}
	cfg := a.Config.WebClient()
	if mode != "" {
		cfg.Client = webclient.Client(mode)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, eris.New("application is shut down")
	}

	wc, err := webclient.NewWebClient(cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	a.fetchers = append(a.fetchers, wc)
	return wc, nil
}

// DemoServer builds the fixture server from Config.Demo.
func (a *Application) DemoServer() *demoserver.DemoServer {
	return demoserver.NewDemoServer(a.Config.Demo, a.Logger)
}

// Shutdown closes every fetcher opened through NewFetcher, then flushes the
// logger. It is safe to call more than once.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return eris.New("application is nil")
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	fetchers := a.fetchers
	a.fetchers = nil
	a.mu.Unlock()

	a.Logger.Debug("application shutdown initiated", logging.F("fetchers", len(fetchers)))

	var firstErr error
	for _, wc := range fetchers {
		if ctx.Err() != nil {
			firstErr = eris.Wrap(ctx.Err(), "shutdown interrupted")
			break
		}
		if err := wc.Close(); err != nil && firstErr == nil {
			firstErr = eris.Wrap(err, "close fetcher")
		}
	}

	if a.closeLogger != nil {
		if err := a.closeLogger(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
