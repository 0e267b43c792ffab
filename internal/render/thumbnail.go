package render

import (
	"image"

	"github.com/nfnt/resize"
)

// Thumbnail scales img to width pixels, keeping the aspect ratio.
// A zero width or one at least as wide as img returns img unchanged.
func Thumbnail(img image.Image, width uint) image.Image {
	if width == 0 || int(width) >= img.Bounds().Dx() {
		return img
	}
	return resize.Resize(width, 0, img, resize.Lanczos3)
}
