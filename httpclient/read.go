package httpclient

import (
	"io"
	"strconv"

	"github.com/geotilecore/geotilecore/config"
	"github.com/geotilecore/geotilecore/errorcode"
	"github.com/geotilecore/geotilecore/transport"
)

// ReadImage fetches url for a caller expecting an image. The decoder is
// chosen from the content (see readTyped); Decoded.Kind reports what
// was actually produced.
func (c *Client) ReadImage(url string, progress transport.ProgressCallback) ReadResult {
	return c.readTyped(url, progress)
}

// ReadNode fetches url for a caller expecting an opaque scene node.
// The decoder is chosen from the content, as for ReadImage.
func (c *Client) ReadNode(url string, progress transport.ProgressCallback) ReadResult {
	return c.readTyped(url, progress)
}

// ReadObject fetches url for a caller expecting a generic object (JSON
// tree). The decoder is chosen from the content, as for ReadImage.
func (c *Client) ReadObject(url string, progress transport.ProgressCallback) ReadResult {
	return c.readTyped(url, progress)
}

// ReadString fetches url for a caller expecting text. The decoder is
// chosen from the content, as for ReadImage.
func (c *Client) ReadString(url string, progress transport.ProgressCallback) ReadResult {
	return c.readTyped(url, progress)
}

// readTyped implements the shared §4.5 contract for all four typed
// read operations: doGet, then decode-or-map-error, then attach
// metadata regardless of outcome. Which of ReadImage/ReadNode/
// ReadObject/ReadString the caller used does not change dispatch — the
// registry selects a decoder from the content itself, per §4.7 — it
// only changes which field of ReadResult.Decoded the caller expects.
func (c *Client) readTyped(url string, progress transport.ProgressCallback) ReadResult {
	req := transport.NewRequest(url)
	resp, fromCache := c.doGet(req, progress)

	result := ReadResult{
		FromCache:    fromCache,
		LastModified: resp.LastModified,
		Duration:     resp.Duration,
		Metadata:     c.buildMetadata(url, req, resp),
	}

	if !resp.IsOK() && !fromCache {
		result.Code = errorcode.FromTransportOutcome(resp.Code, resp.Canceled, resp.TimedOut)
		result.ErrorDetail = resp.Message
		c.maybeSignalRetry(result.Code, progress)
		return result
	}

	part := resp.FirstPart()
	if part == nil {
		result.Code = errorcode.UnknownError
		result.ErrorDetail = "empty response"
		return result
	}

	content, err := io.ReadAll(part.Stream)
	if err != nil {
		result.Code = errorcode.UnknownError
		result.ErrorDetail = err.Error()
		return result
	}

	dec, err := c.registry.Lookup(url, resp.MimeType, content)
	if err != nil {
		result.Code = errorcode.NoReader
		result.ErrorDetail = err.Error()
		return result
	}

	decoded, err := dec.Decode(byteReader(content))
	if err != nil {
		result.Code = errorcode.ReaderError
		result.ErrorDetail = err.Error()
		return result
	}

	result.Code = errorcode.OK
	result.Decoded = decoded
	return result
}

func (c *Client) buildMetadata(url string, req *transport.Request, resp *transport.Response) *config.Config {
	meta := newMetadata(url)
	reqHeaders := meta.Add("request-headers", "")
	for name, values := range req.Header() {
		for _, v := range values {
			reqHeaders.Add(name, v)
		}
	}
	meta.Set("response-code", strconv.Itoa(resp.Code))
	if part := resp.FirstPart(); part != nil {
		headers := meta.Add("response-headers", "")
		for name, values := range part.Header {
			for _, v := range values {
				headers.Add(name, v)
			}
		}
	}
	return meta
}

func (c *Client) maybeSignalRetry(code errorcode.Code, progress transport.ProgressCallback) {
	if progress == nil || !code.Recoverable() {
		return
	}
	progress.SetRetryDelay(c.retryDelaySeconds())
	progress.Cancel()
}
