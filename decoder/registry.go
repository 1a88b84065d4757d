// Package decoder implements the §4.7 decoder registry: dispatch from
// a byte stream to a typed result by content sniff, then file
// extension, then MIME type, with no default decoder.
package decoder

import (
	"bytes"
	"io"
	"net/url"
	"strings"
)

// Kind tags the concrete payload a Decoder produced.
type Kind int

const (
	KindImage Kind = iota
	KindNode
	KindObject
	KindString
)

// Node is the opaque scene-graph payload a node Decoder produces.
// Concrete scene-graph types live outside this module (§1 scope);
// geotilecore only carries the decoded bytes and a type tag for the
// consumer to interpret.
type Node struct {
	TypeTag string
	Data    []byte
}

// Result is a decoder's typed output, corresponding to one arm of the
// §3 Read Result tagged union (the error arm is a plain Go error
// returned alongside, not part of Result).
type Result struct {
	Kind   Kind
	Image  any // image.Image when Kind is KindImage.
	Node   Node
	Object any
	String string
}

// Decoder turns a stream into a typed Result.
type Decoder interface {
	Decode(stream io.Reader) (Result, error)
}

// Registry maps MIME types and file extensions to Decoders and
// supports content-sniffing lookup, per §4.7.
type Registry struct {
	byMime      map[string]Decoder
	byExtension map[string]Decoder
	sniffers    []Sniffer
}

// Sniffer inspects a content prefix and, if recognized, returns the
// Decoder to use.
type Sniffer func(prefix []byte) (Decoder, bool)

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byMime:      make(map[string]Decoder),
		byExtension: make(map[string]Decoder),
	}
}

// RegisterMime associates mimeType with dec.
func (r *Registry) RegisterMime(mimeType string, dec Decoder) {
	r.byMime[strings.ToLower(mimeType)] = dec
}

// RegisterExtension associates a file extension (including the leading
// dot, e.g. ".png") with dec.
func (r *Registry) RegisterExtension(ext string, dec Decoder) {
	r.byExtension[strings.ToLower(ext)] = dec
}

// RegisterSniffer adds a content-sniffing matcher, consulted before
// extension/MIME lookup.
func (r *Registry) RegisterSniffer(s Sniffer) {
	r.sniffers = append(r.sniffers, s)
}

// ErrNoReader is returned by Lookup when no decoder matches, mapping
// to the §7 NO_READER result code at the call site.
var ErrNoReader = noReaderError{}

type noReaderError struct{}

func (noReaderError) Error() string { return "decoder: no reader matched content" }

const sniffPrefixLen = 16

// Lookup selects a Decoder for a response using, in order: content
// sniff (magic bytes), the URL's path extension with any query string
// stripped, then the MIME type. It returns ErrNoReader when nothing
// matches.
func (r *Registry) Lookup(rawURL, mimeType string, content []byte) (Decoder, error) {
	prefix := content
	if len(prefix) > sniffPrefixLen {
		prefix = prefix[:sniffPrefixLen]
	}
	for _, sniff := range r.sniffers {
		if dec, ok := sniff(prefix); ok {
			return dec, nil
		}
	}
	if ext := extensionOf(rawURL); ext != "" {
		if dec, ok := r.byExtension[ext]; ok {
			return dec, nil
		}
	}
	if mimeType != "" {
		if dec, ok := r.byMime[strings.ToLower(mimeType)]; ok {
			return dec, nil
		}
	}
	return nil, ErrNoReader
}

func extensionOf(rawURL string) string {
	path := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		path = parsed.Path
	} else if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		path = rawURL[:i]
	}
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return strings.ToLower(path[i:])
	}
	return ""
}

// bytesHasPrefix wraps bytes.HasPrefix for the sniffers in this package.
func bytesHasPrefix(b, prefix []byte) bool {
	return bytes.HasPrefix(b, prefix)
}
