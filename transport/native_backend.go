package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/geotilecore/geotilecore/resource"
)

// sharedNativeTransport models the OS-level connection cache a native
// backend (e.g. WinINet on Windows) would reuse across handles, as
// opposed to CurlBackend's per-handle *http.Transport.
var sharedNativeTransport = &http.Transport{
	TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
}

// NativeBackend is the platform-native transport backend alternative
// to CurlBackend, satisfying the same §4.2 contract through a shared,
// process-wide connection pool rather than per-handle transports.
type NativeBackend struct {
	mu          sync.Mutex
	lastCredURL string
	lastCred    Credential
	hasCred     bool
	stats       Stats
}

// NewNativeBackend constructs a ready-to-use NativeBackend handle.
func NewNativeBackend() *NativeBackend {
	b := &NativeBackend{}
	resource.OnInitialize(b)
	return b
}

// Stats returns this handle's running counters, per the
// Supplemented-features "Statistics counters" contract.
func (b *NativeBackend) Stats() *Stats { return &b.stats }

// DoGet implements Backend.
func (b *NativeBackend) DoGet(req *Request, env *Env, progress ProgressCallback) *Response {
	b.stats.recordGet()
	resp := b.doGet(req, env, progress)
	b.stats.record(resp)
	return resp
}

func (b *NativeBackend) doGet(req *Request, env *Env, progress ProgressCallback) *Response {
	resource.OnGet(b)
	start := time.Now()
	wireURL := resource.ApplyRewrite(req.WireURL())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if env != nil && env.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, env.Timeout)
		defer timeoutCancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, wireURL, nil)
	if err != nil {
		return &Response{Code: 0, Message: err.Error(), Duration: time.Since(start)}
	}
	applyHeaders(httpReq, req, env)
	b.applyCredential(httpReq, env, wireURL)

	if progress != nil {
		stopPolling := pollCancellation(cancel, progress)
		defer stopPolling()
	}

	redirects := 0
	client := &http.Client{
		Transport: sharedNativeTransport,
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			redirects++
			if redirects > maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	httpResp, err := client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return classifyTransportError(err, progress, duration)
	}
	defer httpResp.Body.Close()

	code := httpResp.StatusCode
	if simulated, ok := maybeSimulate(env); ok {
		code = simulated
	}

	resp := &Response{
		Code:     code,
		MimeType: stripParams(httpResp.Header.Get("Content-Type")),
		Duration: duration,
	}
	if lm := httpResp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			resp.LastModified = t
		}
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		resp.Code = 0
		resp.Message = err.Error()
		return resp
	}
	body = maybeInflate(httpResp.Header.Get("Content-Encoding"), body)

	if boundary, isMultipart := BoundaryFromMimeType(httpResp.Header.Get("Content-Type")); isMultipart {
		parts, err := DecodeMultipart(bytes.NewReader(body), boundary)
		if err != nil {
			resp.Code = 0
			resp.Message = err.Error()
			return resp
		}
		resp.Parts = parts
	} else {
		resp.Parts = []Part{{
			Header: httpResp.Header.Clone(),
			Size:   int64(len(body)),
			Stream: io.NopCloser(bytes.NewReader(body)),
		}}
	}
	return resp
}

func (b *NativeBackend) applyCredential(httpReq *http.Request, env *Env, wireURL string) {
	if env == nil {
		return
	}
	cred, ok := env.CredentialFor(wireURL)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !ok {
		b.hasCred = false
		return
	}
	if b.hasCred && b.lastCred == cred && b.lastCredURL == wireURL {
		httpReq.SetBasicAuth(cred.Username, cred.Password)
		return
	}
	b.lastCred = cred
	b.lastCredURL = wireURL
	b.hasCred = true
	httpReq.SetBasicAuth(cred.Username, cred.Password)
}
