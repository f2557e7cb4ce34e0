package webclient

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/raysh454/pagefetch/internal/utils"
)

// Request is a validated fetch target plus per-request settings. Build it
// with NewRequest; fetchers reject a zero Request as InvalidInput.
type Request struct {
	url         *url.URL
	timeout     time.Duration
	headers     http.Header
	proxy       *url.URL
	maxAttempts int
}

// RequestOption adjusts a Request during construction.
type RequestOption func(*Request) error

// WithTimeout bounds reading the response (static) or waiting for readiness
// (dynamic). Zero keeps the fetcher default.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) error {
		if d < 0 {
			return invalidInput(nil, "timeout must not be negative, got %s", d)
		}
		r.timeout = d
		return nil
	}
}

// WithHeaders merges h into the request headers.
func WithHeaders(h http.Header) RequestOption {
	return func(r *Request) error {
		for k, vs := range h {
			for _, v := range vs {
				if err := checkHeader(k, v); err != nil {
					return err
				}
				r.headers.Add(k, v)
			}
		}
		return nil
	}
}

// WithHeader sets a single header.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) error {
		if err := checkHeader(key, value); err != nil {
			return err
		}
		r.headers.Set(key, value)
		return nil
	}
}

// checkHeader rejects what net/http would refuse to put on the wire.
func checkHeader(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return invalidInput(nil, "empty header name")
	}
	if !httpguts.ValidHeaderFieldName(name) {
		return invalidInput(nil, "invalid header name %q", name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return invalidInput(nil, "invalid value for header %q", name)
	}
	return nil
}

// WithProxy routes a static fetch through proxy for both http and https
// targets. An empty string leaves the fetcher's own proxy setting in place.
func WithProxy(proxy string) RequestOption {
	return func(r *Request) error {
		if strings.TrimSpace(proxy) == "" {
			return nil
		}
		u, err := utils.ParseProxy(proxy)
		if err != nil {
			return invalidInput(err, "invalid proxy")
		}
		r.proxy = u
		return nil
	}
}

// WithMaxAttempts overrides the static retry budget. Zero keeps the default.
func WithMaxAttempts(n int) RequestOption {
	return func(r *Request) error {
		if n < 0 {
			return invalidInput(nil, "max attempts must not be negative, got %d", n)
		}
		r.maxAttempts = n
		return nil
	}
}

// NewRequest validates rawURL and applies opts. Any problem is reported as a
// *FetchError of kind InvalidInput before anything touches the network.
func NewRequest(rawURL string, opts ...RequestOption) (*Request, error) {
	u, err := utils.ParseTarget(rawURL)
	if err != nil {
		return nil, invalidInput(err, "invalid url %q", rawURL)
	}

	r := &Request{url: u, headers: http.Header{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// URL returns the normalized target URL, or "" for a zero Request.
func (r *Request) URL() string {
	if r == nil || r.url == nil {
		return ""
	}
	return r.url.String()
}

// valid reports whether r was built by NewRequest.
func (r *Request) valid() bool { return r != nil && r.url != nil }

// Timeout returns the requested timeout, 0 meaning "fetcher default".
func (r *Request) Timeout() time.Duration { return r.timeout }

// Headers returns a copy of the request headers.
func (r *Request) Headers() http.Header { return r.headers.Clone() }

// Proxy returns the proxy URL, or "" when none was given.
func (r *Request) Proxy() string {
	if r.proxy == nil {
		return ""
	}
	return r.proxy.String()
}

// MaxAttempts returns the retry budget, 0 meaning "fetcher default".
func (r *Request) MaxAttempts() int { return r.maxAttempts }

func (r *Request) timeoutOr(def time.Duration) time.Duration {
	if r.timeout > 0 {
		return r.timeout
	}
	return def
}
