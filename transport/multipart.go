package transport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// multipartState is the explicit state machine called out in the
// design notes: {ExpectBoundary, ReadHeaders, ReadBody, Done}.
type multipartState int

const (
	stateExpectBoundary multipartState = iota
	stateReadHeaders
	stateReadBody
	stateDone
)

// DecodeMultipart splits a multipart/related-style body into Parts,
// per §4.2/§6: sub-parts separated by "--<boundary>", terminated by
// "--<boundary>--", each with its own header block ending at a blank
// line.
func DecodeMultipart(body io.Reader, boundary string) ([]Part, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	openBoundary := "--" + boundary
	closeBoundary := "--" + boundary + "--"

	parts := make([]Part, 0)
	state := stateExpectBoundary
	var header http.Header
	var buf bytes.Buffer

	flush := func() {
		parts = append(parts, Part{
			Header: header,
			Size:   int64(buf.Len()),
			Stream: io.NopCloser(bytes.NewReader(buf.Bytes())),
		})
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch state {
		case stateExpectBoundary:
			trimmed := strings.TrimRight(line, "\r")
			if trimmed == openBoundary {
				header = make(http.Header)
				buf.Reset()
				state = stateReadHeaders
			}
		case stateReadHeaders:
			trimmed := strings.TrimRight(line, "\r")
			if trimmed == "" {
				state = stateReadBody
				continue
			}
			name, value, ok := strings.Cut(trimmed, ":")
			if !ok {
				return nil, fmt.Errorf("transport: malformed multipart header line %q", line)
			}
			header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		case stateReadBody:
			trimmed := strings.TrimRight(line, "\r")
			switch trimmed {
			case closeBoundary:
				flush()
				state = stateDone
			case openBoundary:
				flush()
				header = make(http.Header)
				buf.Reset()
				state = stateReadHeaders
			default:
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString(line)
			}
		case stateDone:
			// trailing data after the terminal boundary is ignored.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if state != stateDone {
		return nil, fmt.Errorf("transport: malformed multipart stream: unexpected EOF in state %d", state)
	}
	return parts, nil
}

// BoundaryFromMimeType extracts the boundary parameter from a
// multipart Content-Type header value, and reports whether mimeType
// denotes multipart content via the "multipart" prefix, per §4.2.
func BoundaryFromMimeType(mimeType string) (boundary string, isMultipart bool) {
	mediaType, params, err := parseMediaType(mimeType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart") {
		return "", false
	}
	return params["boundary"], true
}
