// Package tilepipeline implements §4.6: mapping a Tile Key to a
// concrete request through the keygate and HTTP Client, plus the
// rasterized-feature-tile path that queries a feature source,
// filters, and rasterizes into an image tile.
package tilepipeline

import (
	"fmt"

	"github.com/geotilecore/geotilecore/gpuarena"
	"github.com/geotilecore/geotilecore/httpclient"
	"github.com/geotilecore/geotilecore/keygate"
	"github.com/geotilecore/geotilecore/tilekey"
	"github.com/geotilecore/geotilecore/transport"
)

// Pipeline maps Tile Keys to concrete requests and coordinates the
// keygate so that concurrent callers for the same key induce at most
// one HTTP Client call, per §4.6 and invariant I in §3.
type Pipeline struct {
	client      *httpclient.Client
	gate        *keygate.Gate
	urlTemplate string
}

// New constructs a Pipeline that expands urlTemplate (per
// tilekey.ExpandURL) for each requested key and fetches it through
// client.
func New(client *httpclient.Client, urlTemplate string) *Pipeline {
	return &Pipeline{client: client, gate: keygate.New(), urlTemplate: urlTemplate}
}

// Fetch resolves key to a concrete URL and reads it as an image,
// single-flighted per key: concurrent Fetch calls for the same key
// share one underlying HTTP Client invocation.
func (p *Pipeline) Fetch(key tilekey.Key, progress transport.ProgressCallback) httpclient.ReadResult {
	result, err := p.gate.Do(key, func() (any, error) {
		url := tilekey.ExpandURL(p.urlTemplate, key)
		r := p.client.ReadImage(url, progress)
		return r, nil
	})
	if err != nil {
		return httpclient.ReadResult{}
	}
	return result.Value.(httpclient.ReadResult)
}

// FeatureSource supplies vector features intersecting a bounding box,
// for the rasterized-feature-tile path. Concrete vector formats are
// decoded upstream by the decoder registry (§4.7); FeatureSource only
// deals in already-decoded feature values.
type FeatureSource interface {
	Query(minX, minY, maxX, maxY float64) ([]Feature, error)
}

// Feature is an opaque decoded vector feature. Geometry/attribute
// interpretation belongs to the Filter chain and the Rasterizer, not
// to this package.
type Feature struct {
	Geometry   any
	Attributes map[string]any
}

// Filter narrows or transforms a feature set before rasterization.
// Filters run in the order supplied to RasterizeFeatureTile, forming
// the spec's "ordered chain of feature filters".
type Filter interface {
	Apply(features []Feature) ([]Feature, error)
}

// Style selects how a Rasterizer renders a feature; its fields are
// deliberately opaque here since symbology belongs to the renderer,
// not to the data-acquisition core.
type Style struct {
	Name   string
	Params map[string]any
}

// Rasterizer draws a filtered feature set into a tile-sized raster.
// HasHardwareRasterizer reports whether GPU dispatch is available;
// when true, RasterizeFeatureTile hands the draw call to the process
// GPU arena instead of calling Rasterize directly.
type Rasterizer interface {
	Rasterize(features []Feature, style Style, pixelSize int) (gpuarena.GPUState, error)
	HasHardwareRasterizer() bool
}

// RasterizeFeatureTile implements the rasterized-feature-tile path of
// §4.6: query source for features within key's bounds expanded by
// bufferDegrees, run them through filters in order, then rasterize
// into a pixelSize x pixelSize raster using style. When the
// Rasterizer reports GPU availability, the draw call is dispatched to
// the process-wide gpuarena and this call blocks on its ticket;
// otherwise it rasterizes synchronously on the calling goroutine.
func RasterizeFeatureTile(
	key tilekey.Key,
	bufferDegrees float64,
	source FeatureSource,
	filters []Filter,
	rasterizer Rasterizer,
	style Style,
	pixelSize int,
) (gpuarena.GPUState, error) {
	minX, minY, maxX, maxY := key.Bounds(bufferDegrees)
	features, err := source.Query(minX, minY, maxX, maxY)
	if err != nil {
		return nil, fmt.Errorf("tilepipeline: feature query for %s: %w", key, err)
	}

	for _, f := range filters {
		features, err = f.Apply(features)
		if err != nil {
			return nil, fmt.Errorf("tilepipeline: filter chain for %s: %w", key, err)
		}
	}

	if !rasterizer.HasHardwareRasterizer() {
		return rasterizer.Rasterize(features, style, pixelSize)
	}

	var raster gpuarena.GPUState
	var rasterErr error
	ticket := gpuarena.Default().Dispatch(func(gpuarena.GPUState) {
		raster, rasterErr = rasterizer.Rasterize(features, style, pixelSize)
	})
	ticket.Wait()
	return raster, rasterErr
}
