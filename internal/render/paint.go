package render

import (
	"image"
	"image/color"
	"math"
)

var infiniteBounds = image.Rectangle{
	Min: image.Point{X: -1e9, Y: -1e9},
	Max: image.Point{X: 1e9, Y: 1e9},
}

// hex parses "#rrggbb" into an opaque color. Invalid input yields black.
func hex(s string) color.NRGBA {
	c := color.NRGBA{A: 0xFF}
	if len(s) != 7 || s[0] != '#' {
		return c
	}
	nib := func(b byte) uint8 {
		switch {
		case b >= '0' && b <= '9':
			return b - '0'
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10
		}
		return 0
	}
	c.R = nib(s[1])<<4 | nib(s[2])
	c.G = nib(s[3])<<4 | nib(s[4])
	c.B = nib(s[5])<<4 | nib(s[6])
	return c
}

func rgba(r, g, b uint8, a float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(a * 255))}
}

func withAlpha(c color.Color, a uint8) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = a
	return n
}

func solid(c color.Color) image.Image { return image.NewUniform(c) }

type gradientStop struct {
	offset float64
	color  color.NRGBA
}

func lerpColor(stops []gradientStop, t float64) color.RGBA {
	if t <= stops[0].offset {
		return premul(stops[0].color)
	}
	last := stops[len(stops)-1]
	if t >= last.offset {
		return premul(last.color)
	}

	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.offset {
			continue
		}
		span := b.offset - a.offset
		f := 0.0
		if span > 0 {
			f = (t - a.offset) / span
		}
		mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f)) }
		return premul(color.NRGBA{
			R: mix(a.color.R, b.color.R),
			G: mix(a.color.G, b.color.G),
			B: mix(a.color.B, b.color.B),
			A: mix(a.color.A, b.color.A),
		})
	}
	return premul(last.color)
}

func premul(c color.NRGBA) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

// radialGradient paints by distance from (cx, cy): r0 maps to the first stop,
// r1 to the last. Used as the src image of a rasterizer fill.
type radialGradient struct {
	cx, cy float64
	r0, r1 float64
	stops  []gradientStop
}

func (g radialGradient) ColorModel() color.Model { return color.RGBAModel }
func (g radialGradient) Bounds() image.Rectangle { return infiniteBounds }

func (g radialGradient) At(x, y int) color.Color {
	d := math.Hypot(float64(x)+0.5-g.cx, float64(y)+0.5-g.cy)
	t := 0.0
	if g.r1 > g.r0 {
		t = (d - g.r0) / (g.r1 - g.r0)
	}
	return lerpColor(g.stops, t)
}

// linearGradient paints along the vector (x0,y0)→(x1,y1).
type linearGradient struct {
	x0, y0 float64
	x1, y1 float64
	stops  []gradientStop
}

func (g linearGradient) ColorModel() color.Model { return color.RGBAModel }
func (g linearGradient) Bounds() image.Rectangle { return infiniteBounds }

func (g linearGradient) At(x, y int) color.Color {
	dx, dy := g.x1-g.x0, g.y1-g.y0
	den := dx*dx + dy*dy
	t := 0.0
	if den > 0 {
		t = ((float64(x)+0.5-g.x0)*dx + (float64(y)+0.5-g.y0)*dy) / den
	}
	return lerpColor(g.stops, t)
}

func twoStop(from, to color.NRGBA) []gradientStop {
	return []gradientStop{{offset: 0, color: from}, {offset: 1, color: to}}
}
