package render

import "math"

var (
	antShadow    = solid(rgba(0, 0, 0, 0.2))
	antHighlight = solid(rgba(255, 255, 255, 0.1))
	antSegment   = solid(rgba(0, 0, 0, 0.5))
	antOutline   = solid(hex("#0a0a0a"))
	antLimb      = solid(hex("#1a1a1a"))
	antCheek     = solid(rgba(255, 105, 180, 0.6))
	capBrim      = solid(hex("#0c1c2a"))
	capOutline   = solid(hex("#0f172a"))
	boxShadow    = solid(rgba(0, 0, 0, 0.2))
	boxOutline   = solid(hex("#6b5d52"))
	boxHighlight = solid(rgba(255, 255, 255, 0.2))
	boxGrain     = solid(rgba(0, 0, 0, 0.15))
	boxStrap     = solid(hex("#8b7355"))
)

const (
	capTilt       = 0.05
	limbThickness = 2.5
)

type leg struct{ sx, sy, ex, ey float64 }

var legs = [...]leg{
	{sx: -8, sy: 4, ex: -14, ey: 20},
	{sx: 2, sy: 8, ex: 2, ey: 24},
	{sx: 12, sy: 4, ex: 18, ey: 20},
}

// drawMarker draws the courier ant centered at (x, y). It is purely decorative:
// the only input is the interpolated position.
func drawMarker(c *canvas, x, y float64) {
	c.fillEllipse(x, y+20, 20, 8, antShadow)

	// Abdomen with its banding.
	c.fillEllipse(x-8, y+4, 12, 14, radialGradient{
		cx: x - 8, cy: y + 4, r0: 3, r1: 14,
		stops: twoStop(hex("#3a3a3a"), hex("#1a1a1a")),
	})
	c.fillEllipse(x-12, y, 6, 8, antHighlight)
	for i := -2; i <= 2; i++ {
		segWidth := 12 * (1 - math.Abs(float64(i))/3)
		c.strokeEllipse(x-8, y+float64(i)*3.5, segWidth, 1.8, 0.8, antSegment)
	}
	c.strokeEllipse(x-8, y+4, 12, 14, 1, antOutline)

	// Thorax.
	c.fillEllipse(x+6, y, 10, 12, radialGradient{
		cx: x + 6, cy: y, r0: 2, r1: 11,
		stops: twoStop(hex("#2a2a2a"), hex("#0f0f0f")),
	})
	c.strokeEllipse(x+6, y, 10, 12, 1, antOutline)

	// Head, cheeks and antennae.
	c.fillCircle(x+16, y-4, 8, radialGradient{
		cx: x + 16, cy: y - 4, r0: 1, r1: 8,
		stops: twoStop(hex("#3a3a3a"), hex("#1a1a1a")),
	})
	c.strokeCircle(x+16, y-4, 8, 1, antOutline)
	c.fillEllipse(x+9, y-2, 2.5, 1.8, antCheek)
	c.fillEllipse(x+23, y-2, 2.5, 1.8, antCheek)
	c.strokeQuad(pt{x + 14, y - 11}, pt{x + 8, y - 24}, pt{x + 5, y - 32}, limbThickness, false, antLimb)
	c.strokeQuad(pt{x + 18, y - 11}, pt{x + 24, y - 24}, pt{x + 27, y - 32}, limbThickness, false, antLimb)

	drawCap(c, x+16, y-13)

	for _, l := range legs {
		sx, sy := x+l.sx, y+l.sy
		ex, ey := x+l.ex, y+l.ey
		ctrl := pt{sx + (ex-sx)*0.5, sy + (ey-sy)*0.4}
		c.strokeQuad(pt{sx, sy}, ctrl, pt{ex, ey}, limbThickness, true, antLimb)
		c.fillCircle(sx+(ex-sx)*0.6, sy+(ey-sy)*0.6, 1, antOutline)
	}

	drawCargo(c, x-22, y-14)
}

// drawCap draws the courier cap centered at (cx, cy), tilted slightly.
func drawCap(c *canvas, cx, cy float64) {
	c.fillCircle(cx, cy, 10, radialGradient{
		cx: cx - 1, cy: cy - 1, r0: 2, r1: 10,
		stops: []gradientStop{
			{offset: 0, color: hex("#7dd3fc")},
			{offset: 0.5, color: hex("#3b82f6")},
			{offset: 1, color: hex("#1e40af")},
		},
	})

	sin, cos := math.Sincos(capTilt)
	c.fillRotatedEllipse(cx-4*sin, cy+4*cos, 11, 3.5, capTilt, capBrim)
	c.strokeCircle(cx, cy, 10, 2, capOutline)
}

// drawCargo draws the carried box with its top-left corner at (bx, by).
func drawCargo(c *canvas, bx, by float64) {
	const w, h = 24.0, 14.0

	c.fillRect(bx+1, by+h+1, w, 3, boxShadow)
	c.fillRect(bx, by, w, h, linearGradient{
		x0: bx, y0: by, x1: bx, y1: by + h,
		stops: twoStop(hex("#d4a574"), hex("#a0826d")),
	})
	c.strokeRect(bx, by, w, h, 1.5, boxOutline)
	c.fillRect(bx+2, by+1, w-4, 2, boxHighlight)

	for i := 0; i < 3; i++ {
		gy := by + float64(i+1)*3
		c.strokeLine(bx, gy, bx+w, gy, 0.5, boxGrain)
	}

	c.strokeLine(bx+5, by-2, bx+5, by+h+2, 1.5, boxStrap)
	c.strokeLine(bx+w-5, by-2, bx+w-5, by+h+2, 1.5, boxStrap)
}
