package webclient

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/raysh454/pagefetch/internal/logging"
)

// BackendConstructor constructs a WebClient given the config and logger.
type BackendConstructor func(cfg Config, logger logging.Logger) (WebClient, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
	aliases  = map[string]string{
		"static":  string(ClientNetHTTP),
		"dynamic": string(ClientChromedp),
	}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Calling RegisterBackend with the same name overwrites the previous
// constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// ResolveBackend maps a user-facing name ("static", "Dynamic", "") onto a
// registry key.
func ResolveBackend(name string) string {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return string(ClientNetHTTP)
	}
	if real, ok := aliases[backend]; ok {
		return real
	}
	return backend
}

// NewWebClient constructs the configured WebClient backend. It returns an error
// if the named backend has not been registered.
func NewWebClient(cfg Config, logger logging.Logger) (WebClient, error) {
	backend := ResolveBackend(string(cfg.Client))

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, eris.Errorf("webclient backend %q not registered: available backends=%v", backend, ListBackends())
	}

	wc, err := ctor(cfg, logger)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to construct webclient backend %q", backend)
	}
	if wc == nil {
		return nil, eris.New("webclient constructor returned nil")
	}
	return wc, nil
}

// ListBackends returns the sorted list of registered backend names.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FetchURL validates rawURL and fetches it with wc. A bad URL or option is
// returned as an InvalidInput error and wc is never called; otherwise the
// error is nil and the outcome lives in the Result.
func FetchURL(ctx context.Context, wc WebClient, rawURL string, opts ...RequestOption) (*Result, error) {
	req, err := NewRequest(rawURL, opts...)
	if err != nil {
		return nil, err
	}
	return wc.Fetch(ctx, req), nil
}
