package resource

import "sync"

// Rewriter is the single-method URL rewrite hook of §4.3.
type Rewriter interface {
	Rewrite(url string) string
}

// ConfigHandler tunes an opaque transport backend handle before first
// use and immediately before each GET, per §4.3.
type ConfigHandler interface {
	OnInitialize(handle any)
	OnGet(handle any)
}

var (
	mu            sync.RWMutex
	rewriter      Rewriter
	configHandler ConfigHandler
)

// SetRewriter installs the process-wide URL rewriter. Passing nil
// disables rewriting.
func SetRewriter(r Rewriter) {
	mu.Lock()
	defer mu.Unlock()
	rewriter = r
}

// ApplyRewrite applies the installed rewriter, if any, to url.
func ApplyRewrite(url string) string {
	mu.RLock()
	r := rewriter
	mu.RUnlock()
	if r == nil {
		return url
	}
	return r.Rewrite(url)
}

// SetConfigHandler installs the process-wide backend config handler.
func SetConfigHandler(h ConfigHandler) {
	mu.Lock()
	defer mu.Unlock()
	configHandler = h
}

// OnInitialize invokes the installed config handler's OnInitialize, if any.
func OnInitialize(handle any) {
	mu.RLock()
	h := configHandler
	mu.RUnlock()
	if h != nil {
		h.OnInitialize(handle)
	}
}

// OnGet invokes the installed config handler's OnGet, if any.
func OnGet(handle any) {
	mu.RLock()
	h := configHandler
	mu.RUnlock()
	if h != nil {
		h.OnGet(handle)
	}
}
