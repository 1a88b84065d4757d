package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geotilecore/geotilecore/resource"
)

type recordingConfigHandler struct {
	initCount int
	getCount  int
}

func (h *recordingConfigHandler) OnInitialize(handle any) { h.initCount++ }
func (h *recordingConfigHandler) OnGet(handle any)        { h.getCount++ }

func TestCurlBackendSimpleGetOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte{0x89, 0x50, 0x4E, 0x47})
	}))
	defer server.Close()

	backend := NewCurlBackend()
	resp := backend.DoGet(NewRequest(server.URL), nil, nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Message)
	}
	if resp.MimeType != "image/png" {
		t.Fatalf("expected image/png, got %q", resp.MimeType)
	}
	if len(resp.Parts) != 1 || resp.Parts[0].Size != 4 {
		t.Fatalf("expected one 4-byte part, got %+v", resp.Parts)
	}
}

func TestCurlBackendMultipartDecode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/related; boundary=wcs")
		w.WriteHeader(http.StatusOK)
		body := "--wcs\r\nContent-Type: image/tiff\r\n\r\n12345678\r\n--wcs\r\nContent-Type: text/plain\r\n\r\nhello\r\n--wcs--\r\n"
		w.Write([]byte(body))
	}))
	defer server.Close()

	backend := NewCurlBackend()
	resp := backend.DoGet(NewRequest(server.URL), nil, nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Message)
	}
	if len(resp.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(resp.Parts))
	}
	if resp.Parts[0].Header.Get("Content-Type") != "image/tiff" {
		t.Fatalf("part 0 content-type: %q", resp.Parts[0].Header.Get("Content-Type"))
	}
	if resp.Parts[1].Header.Get("Content-Type") != "text/plain" {
		t.Fatalf("part 1 content-type: %q", resp.Parts[1].Header.Get("Content-Type"))
	}
}

func TestCurlBackendCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	progress := NewBasicProgress()
	progress.Cancel()

	backend := NewCurlBackend()
	resp := backend.DoGet(NewRequest(server.URL), nil, progress)

	if resp.Code != 0 {
		t.Fatalf("expected code 0 on cancellation, got %d", resp.Code)
	}
	if !resp.Canceled {
		t.Fatal("expected canceled flag set")
	}
}

func TestCurlBackendStatsCountsGetsAndFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	backend := NewCurlBackend()
	backend.DoGet(NewRequest(server.URL), nil, nil)
	backend.DoGet(NewRequest(server.URL), nil, nil)
	backend.DoGet(NewRequest("http://127.0.0.1:1"), nil, nil)

	stats := backend.Stats()
	if stats.Gets() != 3 {
		t.Fatalf("expected 3 gets, got %d", stats.Gets())
	}
	if stats.Failures() != 1 {
		t.Fatalf("expected 1 failure, got %d", stats.Failures())
	}
}

func TestCurlBackendTimeoutDistinctFromCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	backend := NewCurlBackend()
	env := &Env{Timeout: 5 * time.Millisecond}
	resp := backend.DoGet(NewRequest(server.URL), env, nil)

	if resp.Code != 0 {
		t.Fatalf("expected code 0 on timeout, got %d", resp.Code)
	}
	if resp.Canceled {
		t.Fatal("expected canceled flag unset on a deadline timeout")
	}
	if !resp.TimedOut {
		t.Fatal("expected timedOut flag set")
	}
}

func TestResolveProxyPrecedence(t *testing.T) {
	envProxy := &ProxyConfig{Host: "env-proxy"}
	globalProxyCfg := &ProxyConfig{Host: "global-proxy"}
	requestProxy := &ProxyConfig{Host: "request-proxy"}

	if got := ResolveProxy(&Env{EnvProxy: envProxy}); got != envProxy {
		t.Fatalf("expected env proxy as fallback, got %+v", got)
	}

	SetGlobalProxy(globalProxyCfg)
	defer SetGlobalProxy(nil)
	if got := ResolveProxy(&Env{EnvProxy: envProxy}); got != globalProxyCfg {
		t.Fatalf("expected global proxy to outrank env proxy, got %+v", got)
	}

	if got := ResolveProxy(&Env{Proxy: requestProxy, EnvProxy: envProxy}); got != requestProxy {
		t.Fatalf("expected explicit request proxy to outrank global and env, got %+v", got)
	}
}

func TestConfigHandlerCalledOnInitializeAndGet(t *testing.T) {
	handler := &recordingConfigHandler{}
	resource.SetConfigHandler(handler)
	defer resource.SetConfigHandler(nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	backend := NewCurlBackend()
	if handler.initCount != 1 {
		t.Fatalf("expected OnInitialize called once on construction, got %d", handler.initCount)
	}

	backend.DoGet(NewRequest(server.URL), nil, nil)
	backend.DoGet(NewRequest(server.URL), nil, nil)
	if handler.getCount != 2 {
		t.Fatalf("expected OnGet called once per DoGet, got %d", handler.getCount)
	}
}

func TestWireURLPreservesOrder(t *testing.T) {
	req := NewRequest("http://example.com/a").AddParam("z", "1").AddParam("x", "2")
	wire := req.WireURL()
	if wire != "http://example.com/a?z=1&x=2" {
		t.Fatalf("got %q", wire)
	}
}
