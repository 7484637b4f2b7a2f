package render

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"
)

// Animation renders the frames of an animated GIF to a Surface.
type Animation struct {
	surface Surface
	frames  []*image.RGBA
	delays  []int
	index   int
}

var _ Renderer = (*Animation)(nil)

// NewAnimation creates an animation renderer presenting to surface.
func NewAnimation(surface Surface) *Animation {
	return &Animation{surface: surface}
}

// LoadSource decodes the GIF at path.
func (a *Animation) LoadSource(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open animation: %w", err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return fmt.Errorf("decode animation %s: %w", path, err)
	}

	frames, err := composite(g)
	if err != nil {
		return fmt.Errorf("decode animation %s: %w", path, err)
	}

	a.frames = frames
	a.delays = g.Delay
	a.index = 0
	return nil
}

// composite flattens GIF frames, which may only cover part of the canvas,
// into full canvas images.
func composite(g *gif.GIF) ([]*image.RGBA, error) {
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	canvas := image.NewRGBA(bounds)
	frames := make([]*image.RGBA, 0, len(g.Image))
	for i, src := range g.Image {
		var previous *image.RGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = cloneRGBA(canvas)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)
		frames = append(frames, cloneRGBA(canvas))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return frames, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

// RenderFrame presents the current frame.
func (a *Animation) RenderFrame() error {
	if len(a.frames) == 0 {
		return ErrNotLoaded
	}
	if a.surface == nil {
		return nil
	}
	return a.surface.Present(a.frames[a.index])
}

// AdvanceFrame moves to the next frame. With no frames loaded it does nothing.
func (a *Animation) AdvanceFrame() error {
	if len(a.frames) == 0 {
		return nil
	}
	a.index = (a.index + 1) % len(a.frames)
	return nil
}

// Index returns the current frame index.
func (a *Animation) Index() int { return a.index }

// FrameCount returns the number of loaded frames.
func (a *Animation) FrameCount() int { return len(a.frames) }

// Delay returns the display time of the current frame in hundredths of a
// second, as stored in the GIF. Playback does not use it: frames advance on
// every paint tick, so the paint interval sets the pace.
func (a *Animation) Delay() int {
	if a.index < len(a.delays) {
		return a.delays[a.index]
	}
	return 0
}
