package utils

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget_Accepts(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "http://example.com", want: "http://example.com"},
		{in: "HTTPS://Example.COM:443/Path?b=2&a=1#frag", want: "https://example.com/Path?b=2&a=1"},
		{in: "http://example.com:80/index.html", want: "http://example.com/index.html"},
		{in: "http://127.0.0.1:8080/x", want: "http://127.0.0.1:8080/x"},
		{in: "  https://example.com/a  ", want: "https://example.com/a"},
		// punycode-encoded host
		{in: "https://例え.テスト/a", want: "https://xn--r8jz45g.xn--zckzah/a"},
		{in: "http://[::1]:9000/", want: "http://[::1]:9000/"},
		{in: "http://[::1]:80/", want: "http://[::1]/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := ParseTarget(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestParseTarget_Rejects(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{in: "", want: ErrEmptyURL},
		{in: "   ", want: ErrEmptyURL},
		{in: "example.com/page", want: ErrUnsupportedScheme},
		{in: "ftp://example.com/file", want: ErrUnsupportedScheme},
		{in: "httpx://example.com", want: ErrUnsupportedScheme},
		{in: "file:///etc/passwd", want: ErrUnsupportedScheme},
		{in: "http://", want: ErrMissingHost},
		{in: "https:///path-only", want: ErrMissingHost},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseTarget(tt.in)
			require.Error(t, err)
			assert.True(t, eris.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParseTarget_MalformedEscape(t *testing.T) {
	_, err := ParseTarget("http://example.com/%zz")
	require.Error(t, err)
}

func TestParseProxy(t *testing.T) {
	u, err := ParseProxy("socks5://user:pw@Proxy.Local:1080")
	require.NoError(t, err)
	assert.Equal(t, "socks5://user:pw@proxy.local:1080", u.String())

	_, err = ParseProxy("ftp://proxy.local")
	assert.True(t, eris.Is(err, ErrUnsupportedScheme))
}
