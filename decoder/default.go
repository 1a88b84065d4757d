package decoder

// NewDefaultRegistry builds the registry geotilecore installs on its
// httpclient.Client by default: image formats by sniff/extension/MIME,
// JSON objects, plain-text strings, and opaque nodes for a handful of
// common scene/feature extensions.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterSniffer(SniffImage)

	img := ImageDecoder{}
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp"} {
		r.RegisterExtension(ext, img)
	}
	for _, mime := range []string{"image/png", "image/jpeg", "image/webp"} {
		r.RegisterMime(mime, img)
	}

	r.RegisterExtension(".json", ObjectDecoder{})
	r.RegisterMime("application/json", ObjectDecoder{})

	r.RegisterExtension(".txt", StringDecoder{})
	r.RegisterMime("text/plain", StringDecoder{})
	r.RegisterMime("text/xml", StringDecoder{})
	r.RegisterMime("application/xml", StringDecoder{})

	for _, ext := range []string{".gltf", ".glb", ".osgb", ".mvt", ".pbf"} {
		r.RegisterExtension(ext, NodeDecoder{TypeTag: ext})
	}
	return r
}
