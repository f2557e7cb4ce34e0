package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/pagefetch/internal/demoserver"
	"github.com/raysh454/pagefetch/internal/webclient"
)

func fixtureURL(t *testing.T) string {
	t.Helper()
	cfg := demoserver.DefaultConfig()
	cfg.StallLimit = 5 * time.Second
	ds := demoserver.NewDemoServer(cfg, nil)
	ts := httptest.NewServer(ds.Router())
	t.Cleanup(func() {
		ds.Close()
		ts.Close()
	})
	return ts.URL
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("PAGEFETCH_STATIC_BACKOFF_FACTOR", "1ms")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-file=", "--log-level=error"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range NewRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"fetch", "diff", "version"} {
		assert.True(t, names[name], "expected subcommand %q", name)
	}
}

func TestFetchCmd_Flags(t *testing.T) {
	cmd, _, err := NewRootCmd().Find([]string{"fetch"})
	require.NoError(t, err)
	for _, name := range []string{"mode", "timeout", "header", "proxy", "retries", "headless", "wait-selector", "idle-after", "out", "title"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "fetch should have --%s", name)
	}
	assert.Equal(t, "true", cmd.Flags().Lookup("headless").DefValue)
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pagefetch version "+Version)
}

func TestFetchCmd_StaticToStdout(t *testing.T) {
	base := fixtureURL(t)

	out, errOut, err := run(t, "fetch", "--title", base+"/static")
	require.NoError(t, err)
	assert.Contains(t, out, "served as-is")
	assert.Contains(t, errOut, "via nethttp")
	assert.Contains(t, errOut, "status 200")
	assert.Contains(t, errOut, "title: Static page")
}

func TestFetchCmd_WritesFile(t *testing.T) {
	base := fixtureURL(t)
	path := filepath.Join(t.TempDir(), "page.html")

	out, _, err := run(t, "fetch", "--out", path, base+"/static")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "served as-is")
}

func TestFetchCmd_HeadersReachServer(t *testing.T) {
	base := fixtureURL(t)

	out, _, err := run(t, "fetch", "-H", "X-Trace-Tag: cli", base+"/echo-headers")
	require.NoError(t, err)
	assert.Contains(t, out, "X-Trace-Tag: cli")
}

func TestFetchCmd_HttpStatusFails(t *testing.T) {
	base := fixtureURL(t)

	out, _, err := run(t, "fetch", base+"/status/404")
	require.Error(t, err)
	assert.Equal(t, webclient.HttpStatus, webclient.KindOf(err))
	assert.Empty(t, out)
}

func TestFetchCmd_RetriesFlag(t *testing.T) {
	base := fixtureURL(t)

	_, _, err := run(t, "fetch", "--retries", "0", base+"/flaky/1?key=cli-none")
	require.Error(t, err)
	assert.Equal(t, webclient.HttpStatus, webclient.KindOf(err))

	out, errOut, err := run(t, "fetch", "--retries", "2", base+"/flaky/1?key=cli-two")
	require.NoError(t, err)
	assert.Contains(t, out, "recovered after 1 failures")
	assert.Contains(t, errOut, "2 attempt(s)")
}

func TestFetchCmd_InvalidInput(t *testing.T) {
	_, _, err := run(t, "fetch", "ftp://example.com")
	require.Error(t, err)
	assert.True(t, webclient.IsInvalidInput(err))

	_, _, err = run(t, "fetch", "--header", "no-colon", "http://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid header")

	_, _, err = run(t, "fetch", "--mode", "carrier-pigeon", "http://example.com")
	require.Error(t, err)
}

func TestFetchCmd_RequiresURL(t *testing.T) {
	_, _, err := run(t, "fetch")
	require.Error(t, err)
}

func TestFetchCmd_BadConfigFile(t *testing.T) {
	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "fetch", "http://example.com")
	require.Error(t, err)
}

func TestParseHeaders(t *testing.T) {
	h, err := parseHeaders([]string{"Accept: text/html", "X-Multi: a", "X-Multi: b", "X-Empty:"})
	require.NoError(t, err)
	assert.Equal(t, "text/html", h.Get("Accept"))
	assert.Equal(t, []string{"a", "b"}, h.Values("X-Multi"))
	assert.Equal(t, "", h.Get("X-Empty"))

	_, err = parseHeaders([]string{": value"})
	require.Error(t, err)
}

func TestDiffCmd_ShowsRenderedLines(t *testing.T) {
	if testing.Short() {
		t.Skip("browser tests disabled in -short mode")
	}
	found := false
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if p, err := exec.LookPath(name); err == nil {
			t.Setenv("PAGEFETCH_DYNAMIC_EXEC_PATH", p)
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome or Chromium binary found")
	}
	base := fixtureURL(t)

	out, errOut, err := run(t, "diff", "--context", "-1", base+"/rendered")
	require.NoError(t, err)
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "rendered by script")
	assert.Contains(t, errOut, "added by rendering")
}
