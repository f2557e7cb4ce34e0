package webclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"github.com/raysh454/pagefetch/internal/logging"
)

// ChromedpClient is the dynamic fetcher. Every Fetch launches its own
// browser, so instances hold no browser state between calls.
type ChromedpClient struct {
	cfg    DynamicConfig
	logger logging.Logger
	pace   *pacer
}

var _ WebClient = (*ChromedpClient)(nil)

// NewChromedpClient builds a dynamic fetcher. Unlike the static fetcher,
// Headless is taken as given, so start from DefaultDynamicConfig to get a
// headless browser.
func NewChromedpClient(cfg DynamicConfig, logger logging.Logger) (*ChromedpClient, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	componentLogger := logger.With(logging.F("component", "dynamic"), logging.F("backend", string(ClientChromedp)))
	componentLogger.Debug("created chromedp webclient",
		logging.F("headless", cfg.Headless),
		logging.F("wait_selector", cfg.WaitSelector),
		logging.F("idle_after", cfg.IdleAfter.String()))

	return &ChromedpClient{
		cfg:    cfg,
		logger: componentLogger,
		pace:   newPacer(cfg.MinInterval),
	}, nil
}

func (cdc *ChromedpClient) allocatorOptions(req *Request) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", cdc.cfg.Headless),
	)
	if cdc.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cdc.cfg.ExecPath))
	}

	ua := req.headers.Get("User-Agent")
	if ua == "" {
		ua = cdc.cfg.UserAgent
	}
	if ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	return opts
}

// extraHeaders converts request headers for Network.setExtraHTTPHeaders.
// User-Agent travels as a launch flag instead.
func extraHeaders(h http.Header) network.Headers {
	out := network.Headers{}
	for k, vs := range h {
		if strings.EqualFold(k, "User-Agent") || len(vs) == 0 {
			continue
		}
		out[k] = strings.Join(vs, ", ")
	}
	return out
}

// Fetch launches a browser, loads the page, waits for the readiness selector
// (and network idle when configured) and returns the rendered markup. The
// browser process is gone by the time Fetch returns, whatever the outcome.
func (cdc *ChromedpClient) Fetch(ctx context.Context, req *Request) (res *Result) {
	scope := beginFetch(cdc.logger, string(ClientChromedp), req)
	if !req.valid() {
		return scope.fail(InvalidInput, 0, errors.New("request not built by NewRequest"))
	}

	timeout := req.timeoutOr(cdc.cfg.Timeout)
	scope.logger.Info("fetch started",
		logging.F("timeout", timeout.String()),
		logging.F("headless", cdc.cfg.Headless))

	if err := cdc.pace.wait(ctx); err != nil {
		return scope.fail(NetworkError, 0, eris.Wrap(err, "wait for pacing"))
	}

	scope.meta.Attempts = 1

	// Registered first so it runs after the browser is torn down.
	defer scope.logger.Debug("browser closed")

	// Cancelling the allocator kills the browser and waits for it to exit.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, cdc.allocatorOptions(req)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(cdc.cdpLog("cdp log")),
		chromedp.WithErrorf(cdc.cdpLog("cdp error")),
	)
	defer cancelBrowser()

	defer func() {
		if r := recover(); r != nil {
			res = scope.fail(DriverError, 0, eris.Errorf("browser driver panic: %v", r))
		}
	}()

	// An empty Run starts the browser and opens the first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		return scope.fail(DriverError, 0, eris.Wrap(err, "launch browser"))
	}
	if c := chromedp.FromContext(browserCtx); c != nil && c.Browser != nil {
		if proc := c.Browser.Process(); proc != nil {
			scope.logger.Debug("browser launched", logging.F("pid", proc.Pid))
			if cdc.cfg.OnLaunch != nil {
				cdc.cfg.OnLaunch(proc.Pid)
			}
		}
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, timeout)
	defer cancelWait()

	var idle *networkIdle
	if cdc.cfg.IdleAfter > 0 {
		idle = watchNetworkIdle(waitCtx, cdc.cfg.IdleAfter)
	}

	tasks := chromedp.Tasks{network.Enable()}
	if h := extraHeaders(req.headers); len(h) > 0 {
		tasks = append(tasks, network.SetExtraHTTPHeaders(h))
	}
	tasks = append(tasks,
		chromedp.Navigate(req.URL()),
		chromedp.WaitReady(cdc.cfg.WaitSelector, chromedp.ByQuery),
	)
	if err := chromedp.Run(waitCtx, tasks); err != nil {
		return cdc.renderFailure(scope, waitCtx, timeout, err)
	}

	if idle != nil {
		idle.arm()
		select {
		case <-idle.Done():
		case <-waitCtx.Done():
			return cdc.renderFailure(scope, waitCtx, timeout, eris.Wrap(waitCtx.Err(), "wait for network idle"))
		}
	}

	var markup, finalURL string
	if err := chromedp.Run(waitCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	); err != nil {
		return cdc.renderFailure(scope, waitCtx, timeout, err)
	}

	scope.meta.FinalURL = finalURL
	return scope.succeed(markup)
}

// renderFailure classifies an error raised after the browser was up.
func (cdc *ChromedpClient) renderFailure(scope *fetchScope, waitCtx context.Context, timeout time.Duration, err error) *Result {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(waitCtx.Err(), context.DeadlineExceeded):
		return scope.fail(RenderTimeout, 0, eris.Wrapf(err, "page not ready within %s", timeout))
	case strings.Contains(err.Error(), "net::ERR_"):
		// Chrome reports DNS and connection failures as page load errors.
		return scope.fail(NetworkError, 0, eris.Wrap(err, "load page"))
	default:
		return scope.fail(DriverError, 0, eris.Wrap(err, "drive browser"))
	}
}

func (cdc *ChromedpClient) cdpLog(msg string) func(string, ...any) {
	return func(format string, args ...any) {
		cdc.logger.Debug(msg, logging.F("detail", fmt.Sprintf(format, args...)))
	}
}

// Close is a no-op; browsers never outlive a Fetch call.
func (cdc *ChromedpClient) Close() error {
	cdc.logger.Debug("closing chromedp webclient")
	return nil
}
