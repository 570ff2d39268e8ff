package placement

import "math"

const (
	MinZoom     = 0.5
	MaxZoom     = 3.0
	ZoomStep    = 0.25
	DefaultZoom = 1.0
)

// Viewport maps between client (screen) coordinates and page coordinates.
// Left and Top are the client position of the page container's top-left.
type Viewport struct {
	Zoom float64
	Left float64
	Top  float64
}

// NewViewport returns a viewport at 100% with the container at the origin
func NewViewport() Viewport {
	return Viewport{Zoom: DefaultZoom}
}

// ClampZoom snaps z to the nearest ZoomStep and restricts it to
// [MinZoom, MaxZoom]
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) || z <= 0 {
		return DefaultZoom
	}
	z = math.Round(z/ZoomStep) * ZoomStep
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// WithZoom returns v at zoom z, snapped and clamped
func (v Viewport) WithZoom(z float64) Viewport {
	v.Zoom = ClampZoom(z)
	return v
}

func (v Viewport) ZoomIn() Viewport    { return v.WithZoom(v.Zoom + ZoomStep) }
func (v Viewport) ZoomOut() Viewport   { return v.WithZoom(v.Zoom - ZoomStep) }
func (v Viewport) ResetZoom() Viewport { return v.WithZoom(DefaultZoom) }

// ToDocument converts a client point into page space
func (v Viewport) ToDocument(clientX, clientY float64) (x, y float64) {
	z := ClampZoom(v.Zoom)
	return (clientX - v.Left) / z, (clientY - v.Top) / z
}

// ToClient converts a page-space point into client coordinates
func (v Viewport) ToClient(x, y float64) (clientX, clientY float64) {
	z := ClampZoom(v.Zoom)
	return x*z + v.Left, y*z + v.Top
}
