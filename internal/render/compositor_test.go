package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/engine"
)

func newTestCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := NewCompositor()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func threeCities() []domain.Location {
	return domain.LocationsFromNames([]string{"Lyon", "Nice", "Metz"})
}

func TestRenderIsIdempotent(t *testing.T) {
	c := newTestCompositor(t)
	scene := Scene{
		Locations: threeCities(),
		Trail:     []domain.Edge{{From: 0, To: 1}},
		Animation: &domain.AnimationState{EdgeIndex: 1, Edge: domain.Edge{From: 1, To: 2}, Progress: 0.4},
		Overlay: domain.Overlay{
			Weather: map[int]domain.WeatherCode{0: domain.WeatherRainy, 1: domain.WeatherStormy},
			Demand:  map[int]float64{0: 120, 2: 0},
		},
	}

	first := c.Render(scene)
	second := c.Render(scene)
	assert.Equal(t, first.Pix, second.Pix)
}

func TestDrawClearsPreviousFrame(t *testing.T) {
	c := newTestCompositor(t)
	scene := Scene{Locations: threeCities(), Trail: []domain.Edge{{From: 2, To: 0}}}

	dirty := image.NewRGBA(image.Rect(0, 0, engine.CanvasWidth, engine.CanvasHeight))
	draw.Draw(dirty, dirty.Bounds(), image.NewUniform(color.RGBA{R: 0xFF, A: 0xFF}), image.Point{}, draw.Src)
	c.Draw(dirty, Scene{
		Locations: threeCities(),
		Animation: &domain.AnimationState{Edge: domain.Edge{From: 0, To: 1}, Progress: 0.5},
	})
	c.Draw(dirty, scene)

	assert.Equal(t, c.Render(scene).Pix, dirty.Pix)
}

func TestRenderEmptySceneIsBlank(t *testing.T) {
	c := newTestCompositor(t)
	img := c.Render(Scene{})

	require.Equal(t, image.Rect(0, 0, 800, 600), img.Bounds())
	for i := 0; i < len(img.Pix); i++ {
		require.Equal(t, uint8(0xFF), img.Pix[i], "byte %d", i)
	}
}

func TestRenderUnknownWeatherUsesDefault(t *testing.T) {
	c := newTestCompositor(t)
	unknown := Scene{
		Locations: threeCities(),
		Overlay:   domain.Overlay{Weather: map[int]domain.WeatherCode{0: 99, 1: 99, 2: 99}},
	}
	sunny := Scene{
		Locations: threeCities(),
		Overlay: domain.Overlay{Weather: map[int]domain.WeatherCode{
			0: domain.WeatherSunny, 1: domain.WeatherSunny, 2: domain.WeatherSunny,
		}},
	}

	assert.NotPanics(t, func() { c.Render(unknown) })
	assert.Equal(t, c.Render(sunny).Pix, c.Render(unknown).Pix)
}

func TestRenderDrawsTrailHaloAndMarker(t *testing.T) {
	c := newTestCompositor(t)
	locs := threeCities()
	a, b := engine.Position(0, 3), engine.Position(1, 3)
	mid := engine.Lerp(a, b, 0.5)
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	plain := c.Render(Scene{Locations: locs})
	assert.Equal(t, white, plain.RGBAAt(int(mid.X), int(mid.Y)))

	trail := c.Render(Scene{Locations: locs, Trail: []domain.Edge{{From: 0, To: 1}}})
	px := trail.RGBAAt(int(mid.X), int(mid.Y))
	assert.Greater(t, px.G, px.R, "trail pixel should be green, got %v", px)
	assert.Greater(t, px.G, px.B, "trail pixel should be green, got %v", px)

	// Inside the halo ring, outside the node.
	halo := plain.RGBAAt(int(a.X), int(a.Y-35))
	assert.NotEqual(t, white, halo)
	assert.Greater(t, halo.R, halo.B, "sunny halo should be tinted orange, got %v", halo)

	marker := c.Render(Scene{
		Locations: locs,
		Animation: &domain.AnimationState{Edge: domain.Edge{From: 0, To: 1}, Progress: 0.5},
	})
	assert.NotEqual(t, plain.Pix, marker.Pix)
	assert.NotEqual(t, white, marker.RGBAAt(int(mid.X+6), int(mid.Y)), "thorax should cover the marker center")
}

func TestRenderIgnoresOutOfRangeEdges(t *testing.T) {
	c := newTestCompositor(t)
	locs := threeCities()
	plain := c.Render(Scene{Locations: locs})

	got := c.Render(Scene{
		Locations: locs,
		Trail:     []domain.Edge{{From: 0, To: 7}, {From: -1, To: 2}, {From: 1, To: 1}},
		Animation: &domain.AnimationState{Edge: domain.Edge{From: 5, To: 0}},
	})
	assert.Equal(t, plain.Pix, got.Pix)
}

func TestRenderDemandLabel(t *testing.T) {
	c := newTestCompositor(t)
	locs := threeCities()
	without := c.Render(Scene{Locations: locs})
	with := c.Render(Scene{Locations: locs, Overlay: domain.Overlay{Demand: map[int]float64{1: 150}}})

	assert.NotEqual(t, without.Pix, with.Pix)
	assert.Equal(t, "150u", demandLabel(150))
	assert.Equal(t, "12.5u", demandLabel(12.5))
	assert.Equal(t, "0u", demandLabel(0))
}

func TestFingerprint(t *testing.T) {
	s := Scene{
		Locations: threeCities(),
		Overlay:   domain.Overlay{Demand: map[int]float64{0: 100, 1: 110, 2: 120}},
	}
	a, err := Fingerprint(s)
	require.NoError(t, err)
	b, err := Fingerprint(s)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	s.Animation = &domain.AnimationState{Edge: domain.Edge{From: 0, To: 1}, Progress: 0.1}
	c, err := Fingerprint(s)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestEncodeAndThumbnail(t *testing.T) {
	c := newTestCompositor(t)
	img := c.Render(Scene{Locations: threeCities()})

	data, err := PNGBytes(img)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	thumb := Thumbnail(img, 200)
	assert.Equal(t, 200, thumb.Bounds().Dx())
	assert.Equal(t, 150, thumb.Bounds().Dy())

	assert.Same(t, img, Thumbnail(img, 0))
	assert.Same(t, img, Thumbnail(img, 1600))
}

func TestRenderFitsWithinFrameDelay(t *testing.T) {
	if raceEnabled {
		t.Skip("render timing is not meaningful under the race detector")
	}
	c := newTestCompositor(t)
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	scene := Scene{
		Locations: domain.LocationsFromNames(names),
		Trail: []domain.Edge{
			{From: 0, To: 3}, {From: 3, To: 5}, {From: 5, To: 1}, {From: 1, To: 8}, {From: 8, To: 2},
		},
		Animation: &domain.AnimationState{EdgeIndex: 5, Edge: domain.Edge{From: 2, To: 9}, Progress: 0.6},
		Overlay: domain.Overlay{
			Weather: map[int]domain.WeatherCode{0: domain.WeatherRainy, 4: domain.WeatherStormy, 7: domain.WeatherCloudy},
			Demand:  map[int]float64{0: 100, 1: 110, 2: 120, 3: 130, 4: 140, 5: 150, 6: 160, 7: 170, 8: 180, 9: 190},
		},
	}

	budget := engine.DefaultConfig().FrameDelay
	best := time.Duration(1<<63 - 1)
	for i := 0; i < 5; i++ {
		start := time.Now()
		c.Render(scene)
		best = min(best, time.Since(start))
	}
	assert.Less(t, best, budget, "a frame must render between two playback sub-steps")
}

func TestFillClipsToCanvas(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, engine.CanvasWidth, engine.CanvasHeight))
	cv := newCanvas(img)
	cv.clear(color.White)
	red := color.RGBA{R: 0xFF, A: 0xFF}
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	assert.NotPanics(t, func() {
		cv.fillCircle(engine.CanvasWidth-2, 2, 20, solid(red))
		cv.fillCircle(-100, -100, 10, solid(red))
		cv.fillCircle(200, 200, 10, radialGradient{cx: 200, cy: 200, r0: 1, r1: 10, stops: twoStop(hex("#60a5fa"), hex("#2563eb"))})
	})

	assert.Equal(t, red, img.RGBAAt(engine.CanvasWidth-1, 0))
	assert.Equal(t, white, img.RGBAAt(engine.CanvasWidth-40, 0))
	assert.Equal(t, white, img.RGBAAt(0, 0))
	assert.NotEqual(t, white, img.RGBAAt(200, 200))
	assert.Equal(t, white, img.RGBAAt(215, 200))
}
