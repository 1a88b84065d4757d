package tilepipeline

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geotilecore/geotilecore/cachebin"
	"github.com/geotilecore/geotilecore/errorcode"
	"github.com/geotilecore/geotilecore/gpuarena"
	"github.com/geotilecore/geotilecore/httpclient"
	"github.com/geotilecore/geotilecore/tilekey"
)

// onePixelPNG is a complete, decodable 1x1 grayscale PNG.
var onePixelPNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x00, 0x00, 0x00, 0x00, 0x3A, 0x7E, 0x9B, 0x55, 0x00, 0x00, 0x00,
	0x0B, 0x49, 0x44, 0x41, 0x54, 0x78, 0xDA, 0x62, 0x62, 0x00, 0x0C, 0x00,
	0x00, 0x06, 0x00, 0x03, 0x6A, 0xE6, 0x71, 0xE3, 0x00, 0x00, 0x00, 0x00,
	0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
}

func TestFetchExpandsURLTemplate(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "image/png")
		w.Write(onePixelPNG)
	}))
	defer server.Close()

	client := httpclient.New(cachebin.NewCache())
	p := New(client, server.URL+"/{z}/{x}/{y}.png")

	key := tilekey.New(4, 2, 1, "spherical-mercator")
	result := p.Fetch(key, nil)

	if result.Code != errorcode.OK {
		t.Fatalf("expected OK, got %v", result.Code)
	}
	if gotPath != "/4/2/1.png" {
		t.Fatalf("expected expanded path /4/2/1.png, got %q", gotPath)
	}
}

func TestFetchSingleFlightsConcurrentSameKey(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(10 * time.Millisecond)
		w.Header().Set("Content-Type", "image/png")
		w.Write(onePixelPNG)
	}))
	defer server.Close()

	client := httpclient.New(cachebin.NewCache(), httpclient.WithPolicy(cachebin.Policy{Usage: cachebin.NoCache}))
	p := New(client, server.URL+"/{z}/{x}/{y}.png")
	key := tilekey.New(5, 1, 1, "spherical-mercator")

	var wg sync.WaitGroup
	const callers = 10
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := p.Fetch(key, nil)
			if result.Code != errorcode.OK {
				t.Errorf("unexpected code %v", result.Code)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected exactly 1 transport call across %d concurrent fetches of the same key, got %d", callers, got)
	}
}

type staticSource struct {
	features []Feature
}

func (s staticSource) Query(minX, minY, maxX, maxY float64) ([]Feature, error) {
	return s.features, nil
}

type dropAttrFilter struct{ key string }

func (f dropAttrFilter) Apply(features []Feature) ([]Feature, error) {
	out := make([]Feature, 0, len(features))
	for _, feat := range features {
		if _, ok := feat.Attributes[f.key]; !ok {
			out = append(out, feat)
		}
	}
	return out, nil
}

type recordingRasterizer struct {
	gpu       bool
	gotCount  int
	gotStyle  Style
	gotPixels int
}

func (r *recordingRasterizer) Rasterize(features []Feature, style Style, pixelSize int) (gpuarena.GPUState, error) {
	r.gotCount = len(features)
	r.gotStyle = style
	r.gotPixels = pixelSize
	return "rasterized", nil
}

func (r *recordingRasterizer) HasHardwareRasterizer() bool { return r.gpu }

func TestRasterizeFeatureTileAppliesFilterChain(t *testing.T) {
	source := staticSource{features: []Feature{
		{Attributes: map[string]any{"hidden": true}},
		{Attributes: map[string]any{"name": "road"}},
	}}
	rasterizer := &recordingRasterizer{gpu: false}
	key := tilekey.New(6, 3, 3, "spherical-mercator")

	result, err := RasterizeFeatureTile(key, 0.01, source, []Filter{dropAttrFilter{key: "hidden"}}, rasterizer, Style{Name: "roads"}, 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "rasterized" {
		t.Fatalf("unexpected result %v", result)
	}
	if rasterizer.gotCount != 1 {
		t.Fatalf("expected filter to drop one feature, got %d remaining", rasterizer.gotCount)
	}
	if rasterizer.gotPixels != 256 {
		t.Fatalf("expected pixel size propagated, got %d", rasterizer.gotPixels)
	}
}

func TestRasterizeFeatureTileDispatchesToGPUArena(t *testing.T) {
	source := staticSource{features: []Feature{{}}}
	rasterizer := &recordingRasterizer{gpu: true}
	key := tilekey.New(6, 3, 3, "spherical-mercator")

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				gpuarena.Default().Drain(10 * time.Millisecond)
				return
			default:
				gpuarena.Default().Drain(time.Millisecond)
			}
		}
	}()

	result, err := RasterizeFeatureTile(key, 0, source, nil, rasterizer, Style{}, 128)
	close(stop)
	<-done
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "rasterized" {
		t.Fatalf("expected rasterized result via GPU dispatch, got %v", result)
	}
}
