package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Placeholder renders a vertical gradient in the aesthetic palette. The
// gradient direction shifts with the scene index so consecutive frames differ.
func Placeholder(style Style, index, width, height int) ([]byte, error) {
	from, to := style.Colors()
	if index%2 == 1 {
		from, to = to, from
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		t := float64(y) / float64(max(height-1, 1))
		row := color.RGBA{
			R: lerp(from.R, to.R, t),
			G: lerp(from.G, to.G, t),
			B: lerp(from.B, to.B, t),
			A: 0xff,
		}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, row)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
