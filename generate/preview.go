package generate

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"os"
)

const (
	previewWidth  = 320
	previewHeight = 180
)

// writePreview renders a small raster placeholder for an artifact page: a
// tinted background derived from the label hash with a band per content
// line, enough for a client to show something without opening the artifact.
func writePreview(path, label string, lines int) error {
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	seed := h.Sum32()

	bg := color.RGBA{R: uint8(40 + seed%60), G: uint8(44 + (seed>>8)%60), B: uint8(70 + (seed>>16)%120), A: 255}
	band := color.RGBA{R: 230, G: 230, B: 235, A: 255}

	img := image.NewRGBA(image.Rect(0, 0, previewWidth, previewHeight))
	for y := 0; y < previewHeight; y++ {
		for x := 0; x < previewWidth; x++ {
			img.SetRGBA(x, y, bg)
		}
	}

	if lines < 1 {
		lines = 1
	}
	if lines > 10 {
		lines = 10
	}
	for i := 0; i < lines; i++ {
		y0 := 20 + i*14
		if y0+6 > previewHeight-10 {
			break
		}
		width := previewWidth - 40 - int(seed>>uint(i%16)%80)
		for y := y0; y < y0+6; y++ {
			for x := 20; x < 20+width && x < previewWidth-20; x++ {
				img.SetRGBA(x, y, band)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}
