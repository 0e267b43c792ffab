package render

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	nameFontSize   = 13
	demandFontSize = 11
)

type faces struct {
	name   font.Face
	demand font.Face
}

func loadFaces() (*faces, error) {
	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("load faces: parse bold font: %w", err)
	}

	newFace := func(size float64) (font.Face, error) {
		return opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}

	name, err := newFace(nameFontSize)
	if err != nil {
		return nil, fmt.Errorf("load faces: name face: %w", err)
	}
	demand, err := newFace(demandFontSize)
	if err != nil {
		return nil, fmt.Errorf("load faces: demand face: %w", err)
	}

	return &faces{name: name, demand: demand}, nil
}

func (f *faces) Close() {
	_ = f.name.Close()
	_ = f.demand.Close()
}

// drawTextCentered draws text horizontally centered on x with its baseline at y.
func drawTextCentered(dst *image.RGBA, face font.Face, x, y float64, text string, c color.Color) {
	width := font.MeasureString(face, text)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x*64) - width/2,
			Y: fixed.Int26_6(y * 64),
		},
	}
	d.DrawString(text)
}

var shadowOffsets = [...][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {1, 1}}

// drawShadowedText approximates a blurred text shadow with a faint halo of offset copies.
func drawShadowedText(dst *image.RGBA, face font.Face, x, y float64, text string, c color.Color) {
	shadow := rgba(0, 0, 0, 0.25)
	for _, off := range shadowOffsets {
		drawTextCentered(dst, face, x+off[0], y+off[1], text, shadow)
	}
	drawTextCentered(dst, face, x, y, text, c)
}
