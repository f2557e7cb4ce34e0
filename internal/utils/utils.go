package utils

import (
	"net"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/idna"
)

// Sentinel errors returned (wrapped) by ParseTarget and ParseProxy.
var (
	ErrEmptyURL          = eris.New("empty url")
	ErrUnsupportedScheme = eris.New("unsupported scheme")
	ErrMissingHost       = eris.New("missing host")
)

var (
	targetSchemes = map[string]struct{}{"http": {}, "https": {}}
	proxySchemes  = map[string]struct{}{"http": {}, "https": {}, "socks5": {}, "socks5h": {}}
)

// ParseTarget validates a fetch target and returns it lightly normalized:
// scheme and host are lowercased, an IDN host is converted to punycode, a
// default port is dropped and the fragment is removed. Path and query are
// left alone because the server may care about them byte for byte.
func ParseTarget(raw string) (*url.URL, error) {
	return parseWithSchemes(raw, targetSchemes)
}

// ParseProxy validates a proxy endpoint. http, https and socks5 proxies are
// accepted; userinfo is kept since proxies commonly authenticate with it.
func ParseProxy(raw string) (*url.URL, error) {
	return parseWithSchemes(raw, proxySchemes)
}

func parseWithSchemes(raw string, allowed map[string]struct{}) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %q", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := allowed[u.Scheme]; !ok {
		if u.Scheme == "" {
			return nil, eris.Wrapf(ErrUnsupportedScheme, "%q has no scheme", raw)
		}
		return nil, eris.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, eris.Wrapf(ErrMissingHost, "%q", raw)
	}
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	// Preserve non-default port only
	port := u.Port()
	switch {
	case (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443"):
		u.Host = hostOnly(host)
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	default:
		u.Host = hostOnly(host)
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}

// hostOnly re-brackets IPv6 literals that Hostname() stripped.
func hostOnly(host string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}
