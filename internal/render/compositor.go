package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"sync"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/engine"
)

const (
	trailWidth  = 4.0
	haloRadius  = 45.0
	haloAlpha   = 0x40
	nodeRadius  = 25.0
	nodeOutline = 3.0
	nameOffset  = 5.0
	demandDrop  = 55.0
)

var (
	background  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	trailPaint  = solid(hex("#10b981"))
	nodeStroke  = solid(hex("#1e40af"))
	nameColor   = hex("#ffffff")
	demandColor = hex("#fbbf24")
	nodeStops   = twoStop(hex("#60a5fa"), hex("#2563eb"))
)

// Scene is everything a frame depends on. Render reads nothing else.
type Scene struct {
	Locations []domain.Location      `json:"locations"`
	Trail     []domain.Edge          `json:"trail"`
	Animation *domain.AnimationState `json:"animation,omitempty"`
	Overlay   domain.Overlay         `json:"overlay"`
}

// Compositor draws scenes onto the fixed 800x600 surface.
//
// Font faces keep glyph caches that are not safe for concurrent use, so
// draws are serialized.
type Compositor struct {
	mu    sync.Mutex
	faces *faces
}

func NewCompositor() (*Compositor, error) {
	f, err := loadFaces()
	if err != nil {
		return nil, fmt.Errorf("new compositor: %w", err)
	}
	return &Compositor{faces: f}, nil
}

func (c *Compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faces.Close()
}

// Render returns a fresh frame for scene.
func (c *Compositor) Render(scene Scene) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, engine.CanvasWidth, engine.CanvasHeight))
	c.Draw(img, scene)
	return img
}

// Draw clears dst and paints scene onto it, back to front: trail, locations,
// marker. Nothing from the previous contents of dst survives.
func (c *Compositor) Draw(dst *image.RGBA, scene Scene) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cv := newCanvas(dst)
	cv.clear(background)

	layout, err := engine.NewLayout(len(scene.Locations))
	if err != nil {
		return
	}

	for _, e := range scene.Trail {
		if !inRange(layout, e) || e.From == e.To {
			continue
		}
		a, b := layout.At(e.From), layout.At(e.To)
		cv.strokeLine(a.X, a.Y, b.X, b.Y, trailWidth, trailPaint)
	}

	for _, loc := range scene.Locations {
		if loc.Index < 0 || loc.Index >= layout.Len() {
			continue
		}
		c.drawLocation(cv, layout.At(loc.Index), loc, scene.Overlay)
	}

	if a := scene.Animation; a != nil && inRange(layout, a.Edge) {
		p := layout.Along(a.Edge.From, a.Edge.To, a.Progress)
		drawMarker(cv, p.X, p.Y)
	}
}

func (c *Compositor) drawLocation(cv *canvas, p engine.Point, loc domain.Location, ov domain.Overlay) {
	weather := ov.WeatherAt(loc.Index)
	cv.fillCircle(p.X, p.Y, haloRadius, solid(withAlpha(weather.Color, haloAlpha)))

	cv.fillCircle(p.X, p.Y, nodeRadius, radialGradient{
		cx: p.X, cy: p.Y, r0: 5, r1: nodeRadius,
		stops: nodeStops,
	})
	cv.strokeCircle(p.X, p.Y, nodeRadius, nodeOutline, nodeStroke)

	drawShadowedText(cv.img, c.faces.name, p.X, p.Y+nameOffset, loc.Name, nameColor)

	if d, ok := ov.DemandAt(loc.Index); ok {
		drawTextCentered(cv.img, c.faces.demand, p.X, p.Y+demandDrop, demandLabel(d), demandColor)
	}
}

func demandLabel(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64) + "u"
}

func inRange(l *engine.Layout, e domain.Edge) bool {
	n := l.Len()
	return e.From >= 0 && e.From < n && e.To >= 0 && e.To < n
}
