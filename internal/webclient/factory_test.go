package webclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/pagefetch/internal/logging"
)

type stubClient struct {
	calls int
}

func (s *stubClient) Fetch(ctx context.Context, req *Request) *Result {
	s.calls++
	return NewSuccess(Result{URL: req.URL(), Backend: "stub"}, "<html></html>")
}

func (s *stubClient) Close() error { return nil }

func TestNewWebClient_DefaultsToStatic(t *testing.T) {
	wc, err := NewWebClient(Config{}, nil)
	require.NoError(t, err)
	defer wc.Close()

	_, ok := wc.(*NetHTTPClient)
	assert.True(t, ok)
}

func TestNewWebClient_Aliases(t *testing.T) {
	cases := map[Client]any{
		"static":       &NetHTTPClient{},
		"Dynamic":      &ChromedpClient{},
		ClientNetHTTP:  &NetHTTPClient{},
		ClientChromedp: &ChromedpClient{},
	}
	for name, want := range cases {
		t.Run(string(name), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Client = name
			wc, err := NewWebClient(cfg, logging.NewNop())
			require.NoError(t, err)
			defer wc.Close()
			assert.IsType(t, want, wc)
		})
	}
}

func TestNewWebClient_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Client = "carrier-pigeon"
	_, err := NewWebClient(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
	assert.Contains(t, err.Error(), "nethttp")
}

func TestNewWebClient_ConstructorError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Static.MaxAttempts = -1
	_, err := NewWebClient(cfg, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestRegisterBackend_Custom(t *testing.T) {
	stub := &stubClient{}
	RegisterBackend("Stub", func(Config, logging.Logger) (WebClient, error) { return stub, nil })
	t.Cleanup(func() {
		mu.Lock()
		delete(registry, "stub")
		mu.Unlock()
	})

	assert.Contains(t, ListBackends(), "stub")

	cfg := DefaultConfig()
	cfg.Client = "stub"
	wc, err := NewWebClient(cfg, nil)
	require.NoError(t, err)
	assert.Same(t, stub, wc)
}

func TestRegisterBackend_IgnoresEmpty(t *testing.T) {
	before := ListBackends()
	RegisterBackend("", func(Config, logging.Logger) (WebClient, error) { return nil, nil })
	RegisterBackend("nilctor", nil)
	assert.Equal(t, before, ListBackends())
}

func TestListBackends_Sorted(t *testing.T) {
	assert.Equal(t, []string{"chromedp", "nethttp"}, ListBackends())
}

func TestResolveBackend(t *testing.T) {
	assert.Equal(t, "nethttp", ResolveBackend(""))
	assert.Equal(t, "nethttp", ResolveBackend(" STATIC "))
	assert.Equal(t, "chromedp", ResolveBackend("dynamic"))
	assert.Equal(t, "custom", ResolveBackend("Custom"))
}

func TestFetchURL_InvalidInputNeverCallsFetcher(t *testing.T) {
	stub := &stubClient{}
	for _, raw := range []string{"", "ftp://example.com", "not a url", "http://"} {
		res, err := FetchURL(context.Background(), stub, raw)
		require.Error(t, err, raw)
		assert.Nil(t, res)
		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, InvalidInput, fe.Kind)
	}
	assert.Zero(t, stub.calls)
}

func TestFetchURL_Delegates(t *testing.T) {
	stub := &stubClient{}
	res, err := FetchURL(context.Background(), stub, "https://Example.com/a#frag")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "https://example.com/a", res.URL)
	assert.Equal(t, 1, stub.calls)
}
