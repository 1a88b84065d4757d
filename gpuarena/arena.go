// Package gpuarena implements the §4.8 GPU job arena: a time-sliced
// FIFO queue of render-thread callables, drained from a single
// process-wide arena by whatever draws the attached scene marker.
package gpuarena

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// GPUState is the opaque handle a job receives when it runs. The real
// rasterizer/render context lives outside this module; gpuarena only
// needs something to hand a job, not to interpret it.
type GPUState any

// Job is a unit of work dispatched to the render thread.
type Job func(state GPUState)

// Ticket is returned by Dispatch and lets a caller await or abandon a
// queued job. Abandoning a ticket before it runs marks the job so that
// Drain discards it without ever invoking it.
type Ticket struct {
	id      uuid.UUID
	done    chan struct{}
	arena   *Arena
	mu      sync.Mutex
	ran     bool
	dropped bool
}

// ID identifies the ticket, primarily for logging.
func (t *Ticket) ID() uuid.UUID { return t.id }

// Wait blocks until the job has run or been abandoned.
func (t *Ticket) Wait() {
	<-t.done
}

// Done reports whether the job has run or been abandoned, without
// blocking.
func (t *Ticket) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Abandon marks the ticket's job as dropped if it has not yet run and
// releases Wait; the job stays queued (and counted by Len) until the
// next Drain pops and skips it. If the job is already running or has
// run, Abandon is a no-op —
// the spec's "promise observes abandonment and skips execution" only
// applies before the job starts.
func (t *Ticket) Abandon() {
	t.mu.Lock()
	if t.ran || t.dropped {
		t.mu.Unlock()
		return
	}
	t.dropped = true
	t.mu.Unlock()
	close(t.done)
}

type queuedJob struct {
	ticket *Ticket
	job    Job
}

// Arena is the process-wide FIFO of queued jobs. The spec calls for
// exactly one arena per process; callers obtain it through Default
// rather than constructing their own, though New remains available
// for tests that want an isolated instance.
type Arena struct {
	mu    sync.Mutex
	queue []queuedJob
}

// New constructs an empty, independent Arena.
func New() *Arena {
	return &Arena{}
}

var (
	defaultOnce sync.Once
	defaultArena *Arena
)

// Default returns the single process-wide Arena, per §4.8.
func Default() *Arena {
	defaultOnce.Do(func() { defaultArena = New() })
	return defaultArena
}

// Dispatch enqueues job and returns a Ticket the caller can Wait on
// or Abandon. Ordering is FIFO; there are no priorities.
func (a *Arena) Dispatch(job Job) *Ticket {
	t := &Ticket{id: uuid.New(), done: make(chan struct{}), arena: a}
	a.mu.Lock()
	a.queue = append(a.queue, queuedJob{ticket: t, job: job})
	a.mu.Unlock()
	return t
}

// Drain runs queued jobs in FIFO order until either the queue is
// empty or slice has elapsed, whichever comes first. It is meant to
// be called once per frame from the render thread's scene-marker
// draw callback (see Marker).
func (a *Arena) Drain(slice time.Duration) {
	deadline := time.Now().Add(slice)
	for {
		qj, ok := a.pop()
		if !ok {
			return
		}
		qj.ticket.mu.Lock()
		if qj.ticket.dropped {
			qj.ticket.mu.Unlock()
			continue
		}
		qj.ticket.ran = true
		qj.ticket.mu.Unlock()

		qj.job(nil)
		close(qj.ticket.done)

		if time.Now().After(deadline) {
			return
		}
	}
}

func (a *Arena) pop() (queuedJob, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return queuedJob{}, false
	}
	qj := a.queue[0]
	a.queue = a.queue[1:]
	return qj, true
}

// Len reports how many jobs are currently queued, mainly for tests
// and diagnostics.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Marker is the scene-attachment point described in §4.8: a caller
// inserts one into its scene graph, and whatever invokes Draw at
// render time (once per frame) drains the arena on that thread.
type Marker struct {
	Arena     *Arena
	TimeSlice time.Duration
}

// NewMarker attaches slice as the per-frame draining budget for the
// default Arena. A zero slice defaults to 4 milliseconds, matching
// the spec's "a few milliseconds" default.
func NewMarker(slice time.Duration) *Marker {
	if slice <= 0 {
		slice = 4 * time.Millisecond
	}
	return &Marker{Arena: Default(), TimeSlice: slice}
}

// Draw drains the marker's arena for up to its configured time
// slice. Called once per frame by the render thread.
func (m *Marker) Draw() {
	m.Arena.Drain(m.TimeSlice)
}
