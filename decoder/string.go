package decoder

import "io"

// StringDecoder reads the entire stream as UTF-8 text, the §3
// "string" arm of the Read Result union — used for e.g. text/plain
// service responses and OGC capabilities documents.
type StringDecoder struct{}

func (StringDecoder) Decode(stream io.Reader) (Result, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindString, String: string(data)}, nil
}
