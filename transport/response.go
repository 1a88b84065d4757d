package transport

import (
	"io"
	"net/http"
	"time"
)

// StatusCategory classifies a response code per §3.
type StatusCategory int

const (
	CategoryUnknown StatusCategory = iota
	CategoryInformational
	CategorySuccess
	CategoryRedirection
	CategoryClientError
	CategoryServerError
)

// CategoryOf classifies code into the §3 status categories. Code 0
// (transport failure) and anything outside 100-599 are Unknown.
func CategoryOf(code int) StatusCategory {
	switch {
	case code >= 100 && code <= 199:
		return CategoryInformational
	case code >= 200 && code <= 299:
		return CategorySuccess
	case code >= 300 && code <= 399:
		return CategoryRedirection
	case code >= 400 && code <= 499:
		return CategoryClientError
	case code >= 500 && code <= 599:
		return CategoryServerError
	default:
		return CategoryUnknown
	}
}

// Part is one body segment of a response. A single-part response is
// the common case; multipart/related content yields several.
type Part struct {
	Header http.Header
	Size   int64
	Stream io.ReadCloser
}

// Response is the spec's HTTP Response value.
type Response struct {
	Code         int
	MimeType     string
	Duration     time.Duration
	LastModified time.Time
	Canceled     bool
	// TimedOut is set only when the transport failure was specifically
	// a connect/transfer deadline expiring (context.DeadlineExceeded),
	// distinct from an explicit ProgressCallback cancellation, so that
	// errorcode.FromTransportOutcome can route it to errorcode.Timeout
	// instead of folding it into Canceled.
	TimedOut  bool
	FromCache bool
	Message   string
	Parts     []Part
}

// Category classifies the response's code.
func (r *Response) Category() StatusCategory { return CategoryOf(r.Code) }

// IsOK reports success, per the §3 invariant gating cache writes:
// 200 and not canceled.
func (r *Response) IsOK() bool {
	return r.Code == http.StatusOK && !r.Canceled
}

// IsNotModified reports a 304 revalidation response.
func (r *Response) IsNotModified() bool {
	return r.Code == http.StatusNotModified
}

// IsTransportFailure reports the §3 "code 0 indicates transport failure"
// case.
func (r *Response) IsTransportFailure() bool {
	return r.Code == 0
}

// FirstPart returns part 0, or nil if there are no parts.
func (r *Response) FirstPart() *Part {
	if len(r.Parts) == 0 {
		return nil
	}
	return &r.Parts[0]
}

// Close releases every part's underlying stream.
func (r *Response) Close() {
	for _, p := range r.Parts {
		if p.Stream != nil {
			p.Stream.Close()
		}
	}
}
