package webclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"

	"github.com/raysh454/pagefetch/internal/logging"
	"github.com/raysh454/pagefetch/internal/utils"
)

// NetHTTPClient is the static fetcher: one GET per attempt over a pooled
// transport, with bounded retries on gateway-style 5xx responses.
type NetHTTPClient struct {
	cfg          StaticConfig
	logger       logging.Logger
	injected     *http.Client
	retryOn      map[int]struct{}
	defaultProxy *url.URL
	pace         *pacer

	mu      sync.Mutex
	clients map[string]*http.Client
}

var _ WebClient = (*NetHTTPClient)(nil)

// NewNetHTTPClient builds a static fetcher. Zero fields in cfg take the
// defaults from DefaultStaticConfig. When httpClient is non-nil it is used
// as-is for every request (request proxies are then ignored); otherwise a
// transport is built lazily on the first Fetch and kept for the lifetime of
// this instance.
func NewNetHTTPClient(cfg StaticConfig, logger logging.Logger, httpClient *http.Client) (*NetHTTPClient, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	var defaultProxy *url.URL
	if cfg.Proxy != "" {
		// withDefaults already validated it
		defaultProxy, _ = utils.ParseProxy(cfg.Proxy)
	}

	// Create component-scoped logger
	componentLogger := logger.With(logging.F("component", "static"), logging.F("backend", string(ClientNetHTTP)))
	componentLogger.Debug("created nethttp webclient",
		logging.F("timeout", cfg.Timeout.String()),
		logging.F("max_attempts", cfg.MaxAttempts))

	return &NetHTTPClient{
		cfg:          cfg,
		logger:       componentLogger,
		injected:     httpClient,
		retryOn:      statusSet(cfg.RetryStatuses),
		defaultProxy: defaultProxy,
		pace:         newPacer(cfg.MinInterval),
		clients:      map[string]*http.Client{},
	}, nil
}

// clientFor returns the pooled client for proxy, creating it on first use.
func (nhc *NetHTTPClient) clientFor(proxy *url.URL) *http.Client {
	if nhc.injected != nil {
		return nhc.injected
	}
	if proxy == nil {
		proxy = nhc.defaultProxy
	}
	key := ""
	if proxy != nil {
		key = proxy.String()
	}

	nhc.mu.Lock()
	defer nhc.mu.Unlock()
	if c, ok := nhc.clients[key]; ok {
		return c
	}

	proxyFunc := http.ProxyFromEnvironment
	if proxy != nil {
		proxyFunc = http.ProxyURL(proxy)
	}
	dialer := &net.Dialer{Timeout: nhc.cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               proxyFunc,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: nhc.cfg.ConnectTimeout,
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	c := &http.Client{Transport: transport}
	nhc.clients[key] = c
	nhc.logger.Debug("created connection pool", logging.F("proxy", key != ""))
	return c
}

// attemptResult is what one HTTP round trip produced.
type attemptResult struct {
	status   int
	markup   string
	finalURL string
}

// Fetch performs the GET, retrying retryable statuses within the budget.
func (nhc *NetHTTPClient) Fetch(ctx context.Context, req *Request) *Result {
	scope := beginFetch(nhc.logger, string(ClientNetHTTP), req)
	if !req.valid() {
		return scope.fail(InvalidInput, 0, errors.New("request not built by NewRequest"))
	}

	timeout := req.timeoutOr(nhc.cfg.Timeout)
	maxAttempts := req.MaxAttempts()
	if maxAttempts == 0 {
		maxAttempts = nhc.cfg.MaxAttempts
	}

	scope.logger.Info("fetch started",
		logging.F("timeout", timeout.String()),
		logging.F("max_attempts", maxAttempts))

	if err := nhc.pace.wait(ctx); err != nil {
		return scope.fail(NetworkError, 0, eris.Wrap(err, "wait for pacing"))
	}

	client := nhc.clientFor(req.proxy)

	var last *attemptResult
	attempts := 0
	operation := func() error {
		attempts++
		out, err := nhc.attempt(ctx, client, req, timeout)
		if err != nil {
			// Connection failures and read timeouts are not retried; the
			// timeout would otherwise multiply by the budget.
			return backoff.Permanent(err)
		}
		last = out
		if _, ok := nhc.retryOn[out.status]; ok {
			return &retryableStatus{code: out.status}
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		scope.logger.Warn("retrying after server error",
			logging.F("attempt", attempts),
			logging.F("backoff", wait.String()),
			logging.Err(err))
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newRetryBackoff(nhc.cfg.BackoffFactor, nhc.cfg.MaxBackoff), uint64(maxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(operation, policy, notify)
	scope.meta.Attempts = attempts

	var rs *retryableStatus
	switch {
	case err != nil && !errors.As(err, &rs):
		return scope.fail(NetworkError, 0, err)
	case last == nil:
		return scope.fail(NetworkError, 0, errors.New("no response received"))
	}

	scope.meta.StatusCode = last.status
	scope.meta.FinalURL = last.finalURL
	if last.status >= http.StatusBadRequest {
		return scope.fail(HttpStatus, last.status,
			eris.Errorf("GET %s: %d %s", req.URL(), last.status, http.StatusText(last.status)))
	}
	return scope.succeed(last.markup)
}

func (nhc *NetHTTPClient) attempt(ctx context.Context, client *http.Client, req *Request, timeout time.Duration) (*attemptResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, req.URL(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	httpReq.Header = req.Headers()
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", nhc.cfg.UserAgent)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, eris.Wrapf(err, "read timeout after %s", timeout)
		}
		return nil, eris.Wrap(err, "http get")
	}
	defer resp.Body.Close()

	markup, err := decodeBody(resp, nhc.cfg.MaxBodyBytes)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, eris.Wrapf(err, "read timeout after %s", timeout)
		}
		return nil, eris.Wrap(err, "read body")
	}

	return &attemptResult{
		status:   resp.StatusCode,
		markup:   markup,
		finalURL: resp.Request.URL.String(),
	}, nil
}

// Close releases pooled connections. A later Fetch builds a fresh pool.
func (nhc *NetHTTPClient) Close() error {
	nhc.mu.Lock()
	defer nhc.mu.Unlock()
	for _, c := range nhc.clients {
		c.CloseIdleConnections()
	}
	nhc.clients = map[string]*http.Client{}
	if nhc.injected != nil {
		nhc.injected.CloseIdleConnections()
	}
	nhc.logger.Debug("closing nethttp webclient")
	return nil
}
