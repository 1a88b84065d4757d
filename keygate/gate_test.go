package keygate

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geotilecore/geotilecore/tilekey"
)

func TestDoCollapsesConcurrentFetchesForSameKey(t *testing.T) {
	g := New()
	k := tilekey.New(4, 2, 2, "spherical-mercator")

	var calls int32
	var wg sync.WaitGroup
	const callers = 10
	results := make([]Result, callers)

	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			r, err := g.Do(k, func() (any, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return "tile-bytes", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = r
		}(i)
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 underlying fetch, got %d", got)
	}
	for i, r := range results {
		if r.Value != "tile-bytes" {
			t.Fatalf("caller %d got unexpected value %v", i, r.Value)
		}
	}
}

func TestDoDoesNotSerializeDistinctKeys(t *testing.T) {
	g := New()
	k1 := tilekey.New(1, 0, 0, "p")
	k2 := tilekey.New(1, 1, 0, "p")

	release := make(chan struct{})
	done1 := make(chan struct{})
	go func() {
		g.Do(k1, func() (any, error) {
			<-release
			return nil, nil
		})
		close(done1)
	}()

	// k2's fetch must complete without waiting on k1's open call.
	_, err := g.Do(k2, func() (any, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(release)
	<-done1
}
