package decoder

import (
	"encoding/json"
	"io"
)

// ObjectDecoder parses the stream as JSON into a generic map/slice
// tree — the §3 "object" arm, used for metadata/capabilities documents
// that are not meant to be interpreted as a specific feature format.
type ObjectDecoder struct{}

func (ObjectDecoder) Decode(stream io.Reader) (Result, error) {
	var obj any
	if err := json.NewDecoder(stream).Decode(&obj); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindObject, Object: obj}, nil
}

// NodeDecoder wraps the raw stream bytes as an opaque Node payload,
// tagged with the extension or MIME type that selected it. Specific
// scene/feature formats (glTF, OSGB, MVT, shapefile, ...) are out of
// this module's scope per §1 — callers that need to interpret Node.Data
// own that decode step.
type NodeDecoder struct {
	TypeTag string
}

func (d NodeDecoder) Decode(stream io.Reader) (Result, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindNode, Node: Node{TypeTag: d.TypeTag, Data: data}}, nil
}
