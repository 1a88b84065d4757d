// Package httpclient implements the §4.5 HTTP Client facade: a
// per-handle instance coordinating transport, cache, policy, and typed
// decoding into a ReadResult.
package httpclient

import (
	"time"

	"github.com/geotilecore/geotilecore/config"
	"github.com/geotilecore/geotilecore/decoder"
	"github.com/geotilecore/geotilecore/errorcode"
)

// ReadResult is the §3 Read Result tagged union plus the attachments
// every read carries regardless of outcome.
type ReadResult struct {
	Code         errorcode.Code
	ErrorDetail  string
	Decoded      decoder.Result
	LastModified time.Time
	Duration     time.Duration
	FromCache    bool
	// Metadata captures the request URL, request headers, response
	// headers, and response code, per §4.5's "always attach metadata"
	// contract.
	Metadata *config.Config
}

// OK reports a fully successful read.
func (r ReadResult) OK() bool { return r.Code == errorcode.OK }

func newMetadata(requestURL string) *config.Config {
	meta := config.New("metadata")
	meta.Set("url", requestURL)
	return meta
}
