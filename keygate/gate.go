// Package keygate implements the §4.6 keygate: per-Tile-Key
// single-flight coordination so that concurrent callers requesting
// the same key induce at most one concrete fetch, with later
// arrivals blocking on and then reusing the first arrival's result.
//
// The spec describes this as "a mapping from Tile Key to a
// condition-variable bucket; buckets are reaped once idle" — that is
// exactly the contract golang.org/x/sync/singleflight provides, so
// rather than hand-roll a mutex+condvar map this package is a thin,
// typed wrapper around it.
package keygate

import (
	"golang.org/x/sync/singleflight"

	"github.com/geotilecore/geotilecore/tilekey"
)

// Gate serializes concurrent fetches for the same Tile Key.
type Gate struct {
	group singleflight.Group
}

// New constructs an empty Gate.
func New() *Gate {
	return &Gate{}
}

// Result pairs a keygate call's payload with whether that payload was
// delivered to more than one concurrent caller. Shared is true for the
// caller that ran the fetch as well as for those that waited on it; a
// call that has already completed is never reused.
type Result struct {
	Value  any
	Shared bool
}

// Do runs fn for k if no fetch for k is already in flight, or blocks
// until the in-flight one completes and reuses its result otherwise.
// Concurrent callers for distinct keys never block one another.
func (g *Gate) Do(k tilekey.Key, fn func() (any, error)) (Result, error) {
	value, err, shared := g.group.Do(k.String(), fn)
	return Result{Value: value, Shared: shared}, err
}

// Forget evicts any in-flight call for k, so the next Do
// for the same key always starts a fresh fetch. The spec's "buckets
// are reaped once idle" happens automatically inside singleflight.Group
// once a call completes — this is for callers that need to force an
// early reap, e.g. after explicitly invalidating a cache entry.
func (g *Gate) Forget(k tilekey.Key) {
	g.group.Forget(k.String())
}
