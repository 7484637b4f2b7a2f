package overlay

import (
	"image"
	"image/draw"
)

// toBGRA converts img to top-down 32-bit BGRA rows, the layout device
// independent bitmaps use.
func toBGRA(img image.Image) ([]byte, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*w {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}

	out := make([]byte, 4*w*h)
	for i := 0; i+3 < len(out); i += 4 {
		out[i+0] = rgba.Pix[i+2]
		out[i+1] = rgba.Pix[i+1]
		out[i+2] = rgba.Pix[i+0]
		out[i+3] = rgba.Pix[i+3]
	}
	return out, w, h
}
