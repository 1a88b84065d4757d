package decoder

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"
)

// ImageDecoder decodes any image format registered with the stdlib
// image package (png, jpeg) plus webp via golang.org/x/image/webp —
// MBTiles and tile-server imagery commonly ships all three.
type ImageDecoder struct{}

func (ImageDecoder) Decode(stream io.Reader) (Result, error) {
	img, _, err := image.Decode(stream)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindImage, Image: img}, nil
}

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
var jpegSignature = []byte{0xFF, 0xD8, 0xFF}
var webpSignature = []byte("RIFF")

// SniffImage recognizes PNG, JPEG, and WebP magic bytes for the
// registry's content-sniffing lookup stage.
func SniffImage(prefix []byte) (Decoder, bool) {
	if bytesHasPrefix(prefix, pngSignature) || bytesHasPrefix(prefix, jpegSignature) {
		return ImageDecoder{}, true
	}
	if bytesHasPrefix(prefix, webpSignature) && bytes.Contains(prefix, []byte("WEBP")) {
		return ImageDecoder{}, true
	}
	return nil, false
}
