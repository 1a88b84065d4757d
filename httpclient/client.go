package httpclient

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/geotilecore/geotilecore/cachebin"
	"github.com/geotilecore/geotilecore/decoder"
	"github.com/geotilecore/geotilecore/transport"
)

// Client is a per-thread HTTP Client facade, per §4.5: it owns one
// transport Backend handle and coordinates it with a Cache Bin,
// a Policy, and a decoder Registry. Callers acquire one per worker
// rather than sharing a single instance, per the "replace thread-local
// storage with a pool of clients" design note.
type Client struct {
	backend  transport.Backend
	cache    *cachebin.Cache
	binName  string
	registry *decoder.Registry
	policy   cachebin.Policy
	env      *clientEnv
	counters clientCounters
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithBin selects a named cache bin instead of the cache's default.
func WithBin(name string) Option {
	return func(c *Client) { c.binName = name }
}

// WithPolicy overrides the default ReadWrite policy.
func WithPolicy(p cachebin.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithRegistry overrides the default decoder registry.
func WithRegistry(r *decoder.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithBackend overrides the process-global backend factory for this
// Client alone.
func WithBackend(b transport.Backend) Option {
	return func(c *Client) { c.backend = b }
}

// New constructs a Client, lazily reading the process environment on
// first construction across the whole process (sharedClientEnv), per
// the §4.5 "reads environment on first initialization" contract.
func New(cache *cachebin.Cache, opts ...Option) *Client {
	c := &Client{
		cache:    cache,
		binName:  cachebin.DefaultBinName,
		registry: decoder.NewDefaultRegistry(),
		policy:   cachebin.DefaultPolicy,
		env:      sharedClientEnv(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backend == nil {
		c.backend = transport.NewBackend()
	}
	return c
}

func (c *Client) bin() cachebin.Bin {
	return c.cache.Bin(c.binName)
}

// doGet implements §4.5's read-through/write-through caching contract.
func (c *Client) doGet(req *transport.Request, progress transport.ProgressCallback) (*transport.Response, bool) {
	key := cachebin.CanonicalKey(req.BaseURL())
	bin := c.bin()

	if c.policy.Usage == cachebin.NoCache {
		return c.backend.DoGet(req, c.env.transportEnv, progress), false
	}

	entry, status := bin.Read(key)
	hasEntry := status == cachebin.ReadSucceeded

	if hasEntry && !c.policy.IsExpired(entry) {
		c.counters.recordHit()
		return responseFromEntry(entry, true), true
	}

	if c.policy.Usage == cachebin.CacheOnly {
		if hasEntry {
			c.counters.recordHit()
			return responseFromEntry(entry, true), true
		}
		c.counters.recordMiss()
		return &transport.Response{Code: 404, Message: "cache-only: no entry"}, false
	}

	if hasEntry && !entry.LastModified.IsZero() {
		req.SetIfModifiedSince(entry.LastModified)
	}

	resp := c.backend.DoGet(req, c.env.transportEnv, progress)

	switch {
	case resp.IsNotModified() && hasEntry:
		if err := bin.Touch(key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("httpclient: touch failed after 304")
		}
		c.counters.recordHit()
		return responseFromEntry(entry, true), true
	case resp.IsOK():
		c.writeThrough(bin, key, resp)
		c.counters.recordMiss()
		return resp, false
	default:
		c.counters.recordMiss()
		return resp, false
	}
}

func (c *Client) writeThrough(bin cachebin.Bin, key string, resp *transport.Response) {
	part := resp.FirstPart()
	if part == nil {
		return
	}
	blob, err := io.ReadAll(part.Stream)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("httpclient: read body for cache write failed")
		return
	}
	part.Stream = io.NopCloser(byteReader(blob))

	meta := cachebin.MetadataFromHeader(part.Header)
	if resp.MimeType != "" {
		meta.Set("Content-Type", resp.MimeType)
	}
	if !resp.LastModified.IsZero() {
		meta.Set("Last-Modified", resp.LastModified.UTC().Format(http.TimeFormat))
	}
	if err := bin.Write(key, blob, meta); err != nil {
		log.Error().Err(err).Str("key", key).Msg("httpclient: cache write failed")
	}
}

func responseFromEntry(entry cachebin.Entry, fromCache bool) *transport.Response {
	header := cachebin.HeaderFromMetadata(entry.Metadata)
	return &transport.Response{
		Code:         http.StatusOK,
		MimeType:     header.Get("Content-Type"),
		FromCache:    fromCache,
		LastModified: entry.LastModified,
		Parts: []transport.Part{{
			Header: header,
			Size:   int64(len(entry.Blob)),
			Stream: io.NopCloser(byteReader(entry.Blob)),
		}},
	}
}

// retryDelaySeconds is exposed for readers below that signal retry.
func (c *Client) retryDelaySeconds() float64 {
	return c.env.retryDelay.Seconds()
}
