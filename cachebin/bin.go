// Package cachebin implements the Cache Bin abstraction of §4.4: a
// named, thread-safe key/value scope storing typed blobs plus the
// response metadata needed to evaluate freshness on a later read.
package cachebin

import (
	"net/http"
	"time"

	"github.com/geotilecore/geotilecore/config"
)

// ReadStatus is the outcome of a Bin.Read call.
type ReadStatus int

const (
	ReadSucceeded ReadStatus = iota
	ReadNotFound
	ReadIOError
)

// Entry is a single stored blob plus its response-header metadata and
// write timestamp.
type Entry struct {
	Blob         []byte
	Metadata     *config.Config
	Timestamp    time.Time
	LastModified time.Time
}

// Bin is the per-key store backing a single cache scope, per §4.4.
// Implementations must be blocking and thread-safe.
type Bin interface {
	// Read returns the entry stored under key, if any.
	Read(key string) (Entry, ReadStatus)
	// Write stores blob under key together with metadata reconstructed
	// from response headers, stamping the current time.
	Write(key string, blob []byte, metadata *config.Config) error
	// Touch updates only the entry's timestamp, preserving freshness
	// without rewriting the payload — used on a 304 revalidation.
	Touch(key string) error
	// ReadMetadata returns only the metadata Config for key.
	ReadMetadata(key string) (*config.Config, ReadStatus)
}

// MetadataFromHeader captures an http.Header into a Config subtree, in
// the shape ReadResult attaches to callers per §3 ("a Config subtree
// capturing request/response headers").
func MetadataFromHeader(h http.Header) *config.Config {
	meta := config.New("headers")
	for name, values := range h {
		for _, v := range values {
			meta.Add(name, v)
		}
	}
	return meta
}

// HeaderFromMetadata reconstructs an http.Header from a metadata
// Config previously produced by MetadataFromHeader.
func HeaderFromMetadata(meta *config.Config) http.Header {
	h := make(http.Header)
	if meta == nil {
		return h
	}
	for _, child := range meta.Children() {
		h.Add(child.Key(), child.Value())
	}
	return h
}

// lastModifiedFromMetadata parses the stored "Last-Modified" header
// back into a time.Time, so every Bin backend's Read reconstructs the
// same field Write captured — required for the §4.5 conditional
// revalidation path, which only sets If-Modified-Since when a read
// entry carries a non-zero LastModified.
func lastModifiedFromMetadata(meta *config.Config) time.Time {
	if meta == nil {
		return time.Time{}
	}
	if v, ok := meta.Get("Last-Modified"); ok {
		if t, err := time.Parse(time.RFC1123, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
