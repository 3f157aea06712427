package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		c    color.NRGBA
		want uint8
	}{
		{"paper", color.NRGBA{0xfb, 0xf1, 0xc7, 0xff}, inkWhite},
		{"text", color.NRGBA{0x28, 0x28, 0x28, 0xff}, inkBlack},
		{"bar", color.NRGBA{0x83, 0xa5, 0x98, 0xff}, inkBlack},
		{"read-only bar", color.NRGBA{0xd3, 0x86, 0x9b, 0xff}, inkRed},
		{"transparent", color.NRGBA{0, 0, 0, 0x10}, inkWhite},
		{"light grey", color.NRGBA{0xd5, 0xc4, 0xa1, 0xff}, inkWhite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.c))
		})
	}
}

func TestReducePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{0xff, 0xff, 0xff, 0xff})
	src.SetNRGBA(1, 0, color.NRGBA{0x10, 0x10, 0x10, 0xff})
	src.SetNRGBA(2, 0, color.NRGBA{0xe0, 0x20, 0x20, 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := reducePNG(buf.Bytes())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	p, ok := img.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, []uint8{inkWhite, inkBlack, inkRed}, []uint8{p.ColorIndexAt(0, 0), p.ColorIndexAt(1, 0), p.ColorIndexAt(2, 0)})

	_, err = reducePNG([]byte("not a png"))
	assert.Error(t, err)
}
