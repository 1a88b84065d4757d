package decoder

import (
	"bytes"
	"testing"
)

func TestLookupBySniff(t *testing.T) {
	r := NewDefaultRegistry()
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 1, 2, 3, 4}
	dec, err := r.Lookup("http://ex/tile?x=1", "application/octet-stream", png)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dec.(ImageDecoder); !ok {
		t.Fatalf("expected ImageDecoder, got %T", dec)
	}
}

func TestLookupByExtensionStripsQuery(t *testing.T) {
	r := NewDefaultRegistry()
	dec, err := r.Lookup("http://ex/capabilities.json?token=x", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dec.(ObjectDecoder); !ok {
		t.Fatalf("expected ObjectDecoder, got %T", dec)
	}
}

func TestLookupByMimeFallback(t *testing.T) {
	r := NewDefaultRegistry()
	dec, err := r.Lookup("http://ex/resource", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dec.(StringDecoder); !ok {
		t.Fatalf("expected StringDecoder, got %T", dec)
	}
}

func TestLookupNoMatchReturnsErrNoReader(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Lookup("http://ex/resource.unknownext", "application/x-unknown", nil)
	if err != ErrNoReader {
		t.Fatalf("expected ErrNoReader, got %v", err)
	}
}

func TestObjectDecoderParsesJSON(t *testing.T) {
	dec := ObjectDecoder{}
	result, err := dec.Decode(bytes.NewReader([]byte(`{"a":1}`)))
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := result.Object.(map[string]any)
	if !ok || obj["a"] != float64(1) {
		t.Fatalf("got %v", result.Object)
	}
}
