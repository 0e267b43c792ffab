package engine

import (
	"errors"
	"math"
)

// Fixed drawing surface and circle geometry, in logical units.
const (
	CanvasWidth  = 800
	CanvasHeight = 600
	CenterX      = 400.0
	CenterY      = 300.0
	Radius       = 200.0
)

var ErrNoLocations = errors.New("no locations to lay out")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position places index evenly on the layout circle, starting at the top and
// proceeding clockwise in screen coordinates. total must be positive.
func Position(index, total int) Point {
	angle := float64(index)/float64(total)*2*math.Pi - math.Pi/2
	return Point{
		X: CenterX + Radius*math.Cos(angle),
		Y: CenterY + Radius*math.Sin(angle),
	}
}

// Lerp interpolates between a and b; t=0 yields a, t=1 yields b.
func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// Precomputed positions for a fixed location count.
type Layout struct {
	points []Point
}

func NewLayout(n int) (*Layout, error) {
	if n <= 0 {
		return nil, ErrNoLocations
	}

	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Position(i, n)
	}
	return &Layout{points: pts}, nil
}

func (l *Layout) Len() int { return len(l.points) }

// At returns the position of location idx.
func (l *Layout) At(idx int) Point { return l.points[idx] }

// Along returns the interpolated point on edge from→to.
func (l *Layout) Along(from, to int, progress float64) Point {
	return Lerp(l.points[from], l.points[to], progress)
}
