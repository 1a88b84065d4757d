package transport

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"strings"
)

// maybeInflate transparently decodes gzip/deflate bodies per §4.2.
// Callers set Accept-Encoding themselves (rather than relying on
// net/http's automatic handling), so decoding has to happen here.
func maybeInflate(contentEncoding string, body []byte) []byte {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		if r, err := gzip.NewReader(bytes.NewReader(body)); err == nil {
			if out, err := io.ReadAll(r); err == nil {
				return out
			}
		}
	case "deflate":
		r := flate.NewReader(bytes.NewReader(body))
		if out, err := io.ReadAll(r); err == nil {
			return out
		}
	}
	return body
}
