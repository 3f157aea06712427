package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Ink palette for Reduce: index 0 is paper.
var inkPalette = color.Palette{
	color.White,
	color.Black,
	color.NRGBA{R: 0xcc, G: 0x24, B: 0x1d, A: 0xff},
}

const (
	inkWhite = iota
	inkBlack
	inkRed
)

// classify puts a pixel on paper, black or red ink.
//
//   - translucent (alpha < 128) is paper
//   - red dominance (R - max(G,B) > 32, R > 128) is red
//   - luma below 170 is black
func classify(c color.NRGBA) uint8 {
	if c.A < 128 {
		return inkWhite
	}
	r, g, b := float64(c.R), float64(c.G), float64(c.B)

	maxGB := g
	if b > maxGB {
		maxGB = b
	}
	if r > 128 && r-maxGB > 32 {
		return inkRed
	}

	if 0.299*r+0.587*g+0.114*b < 170 {
		return inkBlack
	}
	return inkWhite
}

// Reduce maps img onto the three-ink palette for printing or e-ink panels.
func Reduce(img image.Image) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(b, inkPalette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetColorIndex(x, y, classify(c))
		}
	}
	return out
}

// reducePNG decodes a PNG screenshot, reduces it and re-encodes it.
func reducePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("capture: decoding screenshot: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, Reduce(img)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
