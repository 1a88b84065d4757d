package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/geotilecore/geotilecore/resource"
)

const maxRedirects = 5

// CurlBackend is the curl-like transport backend: a net/http-based
// client configured to mirror libcurl defaults (insecure by default at
// this layer, transparent gzip/deflate, proxy via CONNECT, basic auth;
// digest auth is not supported). It records the last credential and
// URL it used on the handle; the basic-auth header is still set on
// every request that has a matching credential.
type CurlBackend struct {
	mu          sync.Mutex
	lastCredURL string
	lastCred    Credential
	hasCred     bool
	client      *http.Client
	stats       Stats
}

// NewCurlBackend constructs a ready-to-use CurlBackend handle.
func NewCurlBackend() *CurlBackend {
	b := &CurlBackend{}
	resource.OnInitialize(b)
	return b
}

// Stats returns this handle's running counters, per the
// Supplemented-features "Statistics counters" contract.
func (b *CurlBackend) Stats() *Stats { return &b.stats }

func (b *CurlBackend) clientFor(env *Env) *http.Client {
	b.mu.Lock()
	defer b.mu.Unlock()

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	if proxy := ResolveProxy(env); proxy != nil {
		transport.Proxy = func(*http.Request) (*url.URL, error) {
			return url.Parse(fmt.Sprintf("http://%s:%d", proxy.Host, proxy.Port))
		}
	}

	client := &http.Client{Transport: transport}
	connectTimeout := time.Duration(0)
	if env != nil {
		connectTimeout = env.ConnectTimeout
	}
	if connectTimeout > 0 {
		dialer := &net.Dialer{Timeout: connectTimeout}
		transport.DialContext = dialer.DialContext
	}

	redirects := 0
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		redirects++
		if redirects > maxRedirects {
			return errors.New("transport: too many redirects")
		}
		return nil
	}
	return client
}

// DoGet implements Backend.
func (b *CurlBackend) DoGet(req *Request, env *Env, progress ProgressCallback) *Response {
	b.stats.recordGet()
	resp := b.doGet(req, env, progress)
	b.stats.record(resp)
	return resp
}

func (b *CurlBackend) doGet(req *Request, env *Env, progress ProgressCallback) *Response {
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

	client := b.clientFor(env)
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

func (b *CurlBackend) applyCredential(httpReq *http.Request, env *Env, wireURL string) {
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
	// The handle's recorded credential is updated only when it differs
	// from the previous one; the header is set on every request either way.
	if b.hasCred && b.lastCred == cred && b.lastCredURL == wireURL {
		httpReq.SetBasicAuth(cred.Username, cred.Password)
		return
	}
	b.lastCred = cred
	b.lastCredURL = wireURL
	b.hasCred = true
	httpReq.SetBasicAuth(cred.Username, cred.Password)
}

// applyHeaders sets headers from the request, lowercasing names on the
// wire and stripping any default "Pragma: no-cache" the backend may
// otherwise inject, per §4.2.
func applyHeaders(httpReq *http.Request, req *Request, env *Env) {
	httpReq.Header = make(http.Header)
	for name, values := range req.Header() {
		for _, v := range values {
			httpReq.Header.Add(strings.ToLower(name), v)
		}
	}
	httpReq.Header.Del("Pragma")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate")
	if ims, ok := req.IfModifiedSince(); ok {
		httpReq.Header.Set("If-Modified-Since", ims.UTC().Format(http.TimeFormat))
	}
	ua := defaultUserAgent
	globalMu.RLock()
	if globalUA != "" {
		ua = globalUA
	}
	globalMu.RUnlock()
	if env != nil && env.UserAgent != "" {
		ua = env.UserAgent
	}
	httpReq.Header.Set("User-Agent", ua)
}

// pollCancellation watches progress between chunks and cancels ctx once
// the caller signals cancellation, per §3/§5.
func pollCancellation(cancel context.CancelFunc, progress ProgressCallback) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if progress.IsCanceled() || progress.ReportProgress(0, 0) {
					progress.Cancel()
					cancel()
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

// classifyTransportError distinguishes an explicit cancellation from a
// genuine connect/transfer timeout: pollCancellation cancels its
// context via the plain CancelFunc, which surfaces as
// context.Canceled, while env.Timeout's context.WithTimeout expiring
// surfaces as context.DeadlineExceeded. The progress callback's own
// canceled flag stays authoritative when both could apply.
func classifyTransportError(err error, progress ProgressCallback, duration time.Duration) *Response {
	canceled := errors.Is(err, context.Canceled)
	if progress != nil && progress.IsCanceled() {
		canceled = true
	}
	timedOut := errors.Is(err, context.DeadlineExceeded) && !canceled
	message := err.Error()
	var proxyErr *net.OpError
	if errors.As(err, &proxyErr) && proxyErr.Op == "proxyconnect" {
		message = "Proxy connect error " + proxyErr.Err.Error()
	}
	return &Response{Code: 0, Canceled: canceled, TimedOut: timedOut, Message: message, Duration: duration}
}

// maybeSimulate applies §4.2's fault-injection contract: a forced
// simulated code (OSGEARTH_HTTP_DISABLE) always applies; an explicitly
// configured simulated code applies with probability 1/10 per request.
// The Env's code is used when set, else the SetGlobalSimulatedCode one.
func maybeSimulate(env *Env) (int, bool) {
	code, force := 0, false
	var r *rand.Rand
	if env != nil {
		code, force, r = env.SimulatedCode, env.SimulatedForce, env.Rand
	}
	if code == 0 {
		globalMu.RLock()
		code = globalSimCode
		globalMu.RUnlock()
	}
	if code == 0 {
		return 0, false
	}
	if force {
		return code, true
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if r.Intn(10) == 0 {
		return code, true
	}
	return 0, false
}

func stripParams(contentType string) string {
	mime, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mime)
}
