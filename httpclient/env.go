package httpclient

import (
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/geotilecore/geotilecore/transport"
)

// clientEnv is the immutable snapshot of §6's client-level environment
// variables. It is read once per process, at the first Client
// construction, and shared by every Client; it is never re-read per
// request.
type clientEnv struct {
	transportEnv *transport.Env
	retryDelay   time.Duration
	debug        bool
}

func loadClientEnv() *clientEnv {
	transportEnv := transport.NewEnvFromOS()
	transportEnv.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

	retryDelay := transportEnv.RetryDelay
	if v := os.Getenv("OSGEARTH_HTTP_RETRY_DELAY"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			retryDelay = time.Duration(secs * float64(time.Second))
		}
	}

	return &clientEnv{
		transportEnv: transportEnv,
		retryDelay:   retryDelay,
		debug:        os.Getenv("OSGEARTH_HTTP_DEBUG") != "",
	}
}

var (
	sharedEnvOnce sync.Once
	sharedEnv     *clientEnv
)

// sharedClientEnv returns the process-wide environment snapshot,
// computed once regardless of how many Client handles are created —
// each per-thread Client still only reads it, never re-parses it.
func sharedClientEnv() *clientEnv {
	sharedEnvOnce.Do(func() { sharedEnv = loadClientEnv() })
	return sharedEnv
}
