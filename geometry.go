package overlay

// baseDPI is the DPI at which one logical pixel equals one physical pixel.
const baseDPI = 96

const (
	anchorInset  = 20 // vertical space left free inside the anchor
	anchorMargin = 10 // gap between the overlay and the anchor's left edge
	aspectRatio  = 3  // width / height of the overlay
)

// ComputeGeometry places the overlay to the left of the anchor, vertically
// inset and scaled by the system DPI.
func ComputeGeometry(anchor Rect, dpi uint32) Rect {
	if dpi == 0 {
		dpi = baseDPI
	}
	scale := float32(dpi) / baseDPI

	height := int32(float32(anchor.H-anchorInset) * scale)
	if height < 1 {
		height = 1
	}
	width := int32(float32(height) * aspectRatio)

	return Rect{
		X: anchor.X - width - anchorMargin,
		Y: anchor.Y + anchorMargin,
		W: width,
		H: height,
	}
}
