package overlay

import (
	"image"
	"image/color"
	"testing"
)

func TestToBGRA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(2, 3, 4, 4))
	img.Set(2, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(3, 3, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

	pix, w, h := toBGRA(img)
	if w != 2 || h != 1 {
		t.Fatalf("toBGRA() size = %dx%d, want 2x1", w, h)
	}
	want := []byte{30, 20, 10, 255, 60, 50, 40, 255}
	for i := range want {
		if pix[i] != want[i] {
			t.Fatalf("toBGRA() = %v, want %v", pix, want)
		}
	}
}

func TestToBGRA_Empty(t *testing.T) {
	pix, w, h := toBGRA(image.NewRGBA(image.Rectangle{}))
	if pix != nil || w != 0 || h != 0 {
		t.Errorf("toBGRA(empty) = %v, %d, %d; want nil, 0, 0", pix, w, h)
	}
}
