package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

const (
	curveSegments   = 24
	ellipseSegments = 72
)

type pt struct{ x, y float64 }

// path is a set of closed polygons filled in one rasterizer pass. Solid
// polygons are wound positively and holes negatively, so overlapping solids
// merge and holes cut through.
type path struct {
	polys [][]pt
}

func signedArea(pts []pt) float64 {
	a := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	return a / 2
}

func (p *path) add(pts []pt, hole bool) {
	if len(pts) < 3 {
		return
	}
	area := signedArea(pts)
	if area == 0 {
		return
	}
	if (area < 0) != hole {
		rev := make([]pt, len(pts))
		for i := range pts {
			rev[i] = pts[len(pts)-1-i]
		}
		pts = rev
	}
	p.polys = append(p.polys, pts)
}

// bounds is the pixel rectangle covering every polygon, padded by one pixel
// for anti-aliasing.
func (p *path) bounds() image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range p.polys {
		for _, q := range poly {
			minX, maxX = math.Min(minX, q.x), math.Max(maxX, q.x)
			minY, maxY = math.Min(minY, q.y), math.Max(maxY, q.y)
		}
	}
	if minX > maxX || minY > maxY {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(minX))-1, int(math.Floor(minY))-1,
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	)
}

// emit adds the polygons to z, translated by -origin.
func (p *path) emit(z *vector.Rasterizer, origin image.Point) {
	ox, oy := float64(origin.X), float64(origin.Y)
	for _, poly := range p.polys {
		z.MoveTo(float32(poly[0].x-ox), float32(poly[0].y-oy))
		for _, q := range poly[1:] {
			z.LineTo(float32(q.x-ox), float32(q.y-oy))
		}
		z.ClosePath()
	}
}

func ellipsePts(cx, cy, rx, ry, rot float64) []pt {
	sin, cos := math.Sincos(rot)
	pts := make([]pt, ellipseSegments)
	for i := range pts {
		a := float64(i) / ellipseSegments * 2 * math.Pi
		ex, ey := rx*math.Cos(a), ry*math.Sin(a)
		pts[i] = pt{x: cx + ex*cos - ey*sin, y: cy + ex*sin + ey*cos}
	}
	return pts
}

func quadPts(p0, c, p1 pt) []pt {
	pts := make([]pt, 0, curveSegments+1)
	for i := 0; i <= curveSegments; i++ {
		t := float64(i) / curveSegments
		u := 1 - t
		pts = append(pts, pt{
			x: u*u*p0.x + 2*u*t*c.x + t*t*p1.x,
			y: u*u*p0.y + 2*u*t*c.y + t*t*p1.y,
		})
	}
	return pts
}

// segment returns the quad covering a line of the given width between a and b.
func segment(a, b pt, width float64) []pt {
	dx, dy := b.x-a.x, b.y-a.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return nil
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	return []pt{
		{a.x + nx, a.y + ny},
		{b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny},
		{a.x - nx, a.y - ny},
	}
}

// canvas is an RGBA surface with anti-aliased fill primitives.
type canvas struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

func newCanvas(img *image.RGBA) *canvas {
	return &canvas{img: img, z: vector.NewRasterizer(0, 0)}
}

func (c *canvas) clear(bg color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
}

func (c *canvas) fill(p *path, src image.Image) {
	if len(p.polys) == 0 {
		return
	}
	// Only the path's own box is rasterized and composited.
	box := p.bounds().Intersect(c.img.Bounds())
	if box.Empty() {
		return
	}
	c.z.Reset(box.Dx(), box.Dy())
	c.z.DrawOp = draw.Over
	p.emit(c.z, box.Min)
	c.z.Draw(c.img, box, src, box.Min)
}

func (c *canvas) fillEllipse(cx, cy, rx, ry float64, src image.Image) {
	c.fillRotatedEllipse(cx, cy, rx, ry, 0, src)
}

func (c *canvas) fillRotatedEllipse(cx, cy, rx, ry, rot float64, src image.Image) {
	var p path
	p.add(ellipsePts(cx, cy, rx, ry, rot), false)
	c.fill(&p, src)
}

func (c *canvas) fillCircle(cx, cy, r float64, src image.Image) {
	c.fillEllipse(cx, cy, r, r, src)
}

// strokeEllipse draws an outline centered on the ellipse boundary.
func (c *canvas) strokeEllipse(cx, cy, rx, ry, width float64, src image.Image) {
	var p path
	p.add(ellipsePts(cx, cy, rx+width/2, ry+width/2, 0), false)
	if rx > width/2 && ry > width/2 {
		p.add(ellipsePts(cx, cy, rx-width/2, ry-width/2, 0), true)
	}
	c.fill(&p, src)
}

func (c *canvas) strokeCircle(cx, cy, r, width float64, src image.Image) {
	c.strokeEllipse(cx, cy, r, r, width, src)
}

// strokeLine draws a butt-capped line.
func (c *canvas) strokeLine(x1, y1, x2, y2, width float64, src image.Image) {
	var p path
	p.add(segment(pt{x1, y1}, pt{x2, y2}, width), false)
	c.fill(&p, src)
}

// strokePolyline draws connected segments with round joins, and round caps when asked.
func (c *canvas) strokePolyline(pts []pt, width float64, roundCaps bool, src image.Image) {
	var p path
	for i := 1; i < len(pts); i++ {
		p.add(segment(pts[i-1], pts[i], width), false)
	}
	for i, q := range pts {
		end := i == 0 || i == len(pts)-1
		if end && !roundCaps {
			continue
		}
		p.add(ellipsePts(q.x, q.y, width/2, width/2, 0), false)
	}
	c.fill(&p, src)
}

func (c *canvas) strokeQuad(p0, ctrl, p1 pt, width float64, roundCaps bool, src image.Image) {
	c.strokePolyline(quadPts(p0, ctrl, p1), width, roundCaps, src)
}

func rectPts(x, y, w, h float64) []pt {
	return []pt{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

func (c *canvas) fillRect(x, y, w, h float64, src image.Image) {
	var p path
	p.add(rectPts(x, y, w, h), false)
	c.fill(&p, src)
}

func (c *canvas) strokeRect(x, y, w, h, width float64, src image.Image) {
	var p path
	hw := width / 2
	p.add(rectPts(x-hw, y-hw, w+width, h+width), false)
	if w > width && h > width {
		p.add(rectPts(x+hw, y+hw, w-width, h-width), true)
	}
	c.fill(&p, src)
}
