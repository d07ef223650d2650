package render

import (
	"image"
	"math"
)

// Camera represents the viewport onto an image plane
type Camera struct {
	X, Y    float64 // camera center position (image pixels)
	Zoom    float64 // zoom level (1.0 = one image pixel per screen pixel)
	MinZoom float64
	MaxZoom float64
	ScreenW int     // viewport width in pixels
	ScreenH int     // viewport height in pixels
	Speed   float64 // pan speed (screen pixels per second)
}

// NewCamera creates a camera with default settings
func NewCamera(screenW, screenH int) *Camera {
	return &Camera{
		Zoom:    1.0,
		MinZoom: 0.125,
		MaxZoom: 32.0,
		ScreenW: screenW,
		ScreenH: screenH,
		Speed:   500,
	}
}

// Pan moves the camera by a screen pixel delta
func (c *Camera) Pan(dx, dy float64) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
}

// SetZoom sets zoom level with clamping
func (c *Camera) SetZoom(z float64) {
	c.Zoom = math.Max(c.MinZoom, math.Min(c.MaxZoom, z))
}

// ZoomAt multiplies the zoom by factor, keeping the image point under the
// given screen point fixed.
func (c *Camera) ZoomAt(factor float64, screenX, screenY int) {
	wx, wy := c.ScreenToWorld(screenX, screenY)
	c.SetZoom(c.Zoom * factor)
	wx2, wy2 := c.ScreenToWorld(screenX, screenY)
	c.X += wx - wx2
	c.Y += wy - wy2
}

// CenterOn centers the camera on an image position
func (c *Camera) CenterOn(wx, wy float64) {
	c.X = wx
	c.Y = wy
}

// Fit centers a w x h image and picks the largest power-of-two zoom that
// shows it whole, leaving a margin of pad screen pixels.
func (c *Camera) Fit(w, h, pad int) {
	c.CenterOn(float64(w)/2, float64(h)/2)
	if w <= 0 || h <= 0 {
		c.SetZoom(1)
		return
	}
	availW := float64(c.ScreenW - 2*pad)
	availH := float64(c.ScreenH - 2*pad)
	z := math.Min(availW/float64(w), availH/float64(h))
	if z <= 0 {
		c.SetZoom(c.MinZoom)
		return
	}
	c.SetZoom(math.Pow(2, math.Floor(math.Log2(z))))
}

// Transform returns scale and translation mapping image pixels to screen
// pixels: screen = image*scale + (tx, ty).
func (c *Camera) Transform() (scale, tx, ty float64) {
	return c.Zoom,
		float64(c.ScreenW)/2 - c.X*c.Zoom,
		float64(c.ScreenH)/2 - c.Y*c.Zoom
}

// WorldToScreen converts an image position to a screen position
func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	s, tx, ty := c.Transform()
	return wx*s + tx, wy*s + ty
}

// ScreenToWorld converts a screen pixel to an image position
func (c *Camera) ScreenToWorld(sx, sy int) (float64, float64) {
	wx := (float64(sx)-float64(c.ScreenW)/2)/c.Zoom + c.X
	wy := (float64(sy)-float64(c.ScreenH)/2)/c.Zoom + c.Y
	return wx, wy
}

// VisibleRect returns the part of a w x h image currently on screen.
func (c *Camera) VisibleRect(w, h int) image.Rectangle {
	x0, y0 := c.ScreenToWorld(0, 0)
	x1, y1 := c.ScreenToWorld(c.ScreenW, c.ScreenH)
	r := image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	)
	return r.Intersect(image.Rect(0, 0, w, h))
}
