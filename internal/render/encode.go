package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
)

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

func EncodePNG(w io.Writer, img image.Image) error {
	if err := pngEncoder.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// PNGBytes renders img into a standalone PNG byte slice.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
