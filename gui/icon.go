//go:build gui

package gui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"fyne.io/fyne/v2"
)

// iconResource draws four bells of growing size in the mouth colors.
func iconResource() fyne.Resource {
	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	bells := []struct {
		cx, cy, r float64
		c         color.RGBA
	}{
		{14, 46, 6, color.RGBA{255, 220, 0, 255}},
		{26, 38, 8, color.RGBA{40, 90, 255, 255}},
		{40, 28, 10, color.RGBA{230, 40, 40, 255}},
		{52, 18, 11, color.RGBA{30, 190, 60, 255}},
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			for _, b := range bells {
				dx := float64(x) + 0.5 - b.cx
				dy := float64(y) + 0.5 - b.cy
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < b.r {
					img.Set(x, y, b.c)
				} else if dist < b.r+1.5 {
					img.Set(x, y, color.RGBA{40, 30, 20, 255})
				}
			}
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return fyne.NewStaticResource("agogo.png", buf.Bytes())
}
