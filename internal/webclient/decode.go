package webclient

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
)

var errBodyTooLarge = eris.New("response body exceeds size limit")

// decodeBody reads at most limit bytes and converts them to UTF-8 using the
// Content-Type charset, a <meta> declaration or a byte sniff, in that order.
func decodeBody(resp *http.Response, limit int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(raw)) > limit {
		return "", eris.Wrapf(errBodyTooLarge, "limit %d bytes", limit)
	}

	r, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown label: hand back the bytes untouched.
		return string(raw), nil
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", eris.Wrap(err, "decode charset")
	}
	return string(decoded), nil
}
