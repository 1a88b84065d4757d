package transport

import (
	"sync"
)

// Backend is the §4.2 transport contract: exactly one HTTP GET per
// call. Implementations own their own connection pooling / handle
// state (e.g. cached credentials, as per the per-handle caching design
// note) and must be safe for concurrent use across goroutines, since
// each worker owns its own httpclient.Client but backends may be
// shared.
type Backend interface {
	DoGet(req *Request, env *Env, progress ProgressCallback) *Response
}

// StatsProvider is implemented by backends that track running
// counters (both CurlBackend and NativeBackend do). Callers that want
// diagnostics type-assert a Backend to this interface rather than the
// contract requiring every future backend to carry counters.
type StatsProvider interface {
	Stats() *Stats
}

// BackendFactory constructs a fresh Backend handle.
type BackendFactory func() Backend

var (
	factoryMu sync.RWMutex
	factory   BackendFactory = func() Backend { return NewCurlBackend() }
)

// SetBackendFactory replaces the process-global backend factory,
// per §4.2's "interchangeable through a factory" contract and the
// design note on keeping backends pluggable for future transports
// (HTTP/2, QUIC, offline stub).
func SetBackendFactory(f BackendFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factory = f
}

// NewBackend constructs a Backend using the currently installed factory.
func NewBackend() Backend {
	factoryMu.RLock()
	f := factory
	factoryMu.RUnlock()
	return f()
}
