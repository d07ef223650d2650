// Package compose stacks sprite layers into a scene and rasterizes the scene
// into a tightly cropped atlas image.
package compose

import (
	"fmt"
	"image"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/1siamBot/spritebake/engine/texture"
)

// Layer is one positioned sprite in render space (Y down). Anchor is
// normalized inside the source image; Angle is degrees, clockwise on screen.
type Layer struct {
	Name           string
	Src            *image.NRGBA
	AnchorX        float64
	AnchorY        float64
	X, Y           float64
	ScaleX, ScaleY float64
	Angle          float64
	Depth          float64
}

// Matrix maps source pixel coordinates (including the sub-image offset) to
// scene coordinates.
func (l *Layer) Matrix() f64.Aff3 {
	b := l.Src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rad := l.Angle * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)

	a00, a01 := c*l.ScaleX, -s*l.ScaleY
	a10, a11 := s*l.ScaleX, c*l.ScaleY

	ox := -l.AnchorX*w - float64(b.Min.X)
	oy := -l.AnchorY*h - float64(b.Min.Y)
	return f64.Aff3{
		a00, a01, l.X + a00*ox + a01*oy,
		a10, a11, l.Y + a10*ox + a11*oy,
	}
}

// Box is an axis-aligned rectangle in scene space.
type Box struct {
	X, Y, W, H float64
}

func (b Box) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Bounds is the axis-aligned box around the transformed layer.
func (l *Layer) Bounds() Box {
	m := l.Matrix()
	b := l.Src.Bounds()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{
		{float64(b.Min.X), float64(b.Min.Y)},
		{float64(b.Max.X), float64(b.Min.Y)},
		{float64(b.Min.X), float64(b.Max.Y)},
		{float64(b.Max.X), float64(b.Max.Y)},
	} {
		x := m[0]*p[0] + m[1]*p[1] + m[2]
		y := m[3]*p[0] + m[4]*p[1] + m[5]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Scene is an ordered stack of layers.
type Scene struct {
	Layers []*Layer
}

func (s *Scene) Add(l *Layer) { s.Layers = append(s.Layers, l) }

// Bounds returns the pixel-aligned box enclosing every layer: the float
// extent widened to whole pixels.
func (s *Scene) Bounds() Box {
	if len(s.Layers) == 0 {
		return Box{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, l := range s.Layers {
		b := l.Bounds()
		minX, minY = math.Min(minX, b.X), math.Min(minY, b.Y)
		maxX, maxY = math.Max(maxX, b.X+b.W), math.Max(maxY, b.Y+b.H)
	}
	x0, y0 := math.Floor(snap(minX)), math.Floor(snap(minY))
	x1, y1 := math.Ceil(snap(maxX)), math.Ceil(snap(maxY))
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// snap absorbs float noise so an edge at 14.9999999 lands on 15.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		return r
	}
	return v
}

// Reorigin shifts every layer so that (dx, dy) becomes the scene origin.
func (s *Scene) Reorigin(dx, dy float64) {
	for _, l := range s.Layers {
		l.X -= dx
		l.Y -= dy
	}
}

// Rasterize draws the scene into a new w x h image. Layers are painted in
// ascending Depth; equal depths keep insertion order.
func (s *Scene) Rasterize(w, h int) (img *image.NRGBA, err error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster %dx%d: %w", w, h, ErrDegenerateGeometry)
	}
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: %v", ErrRender, r)
		}
	}()

	order := make([]*Layer, len(s.Layers))
	copy(order, s.Layers)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Depth < order[j].Depth })

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for _, l := range order {
		xdraw.BiLinear.Transform(dst, l.Matrix(), l.Src, l.Src.Bounds(), xdraw.Over, nil)
	}
	return texture.ToNRGBA(dst), nil
}

// Release drops the layer references so their source views can be collected.
func (s *Scene) Release() {
	clear(s.Layers)
	s.Layers = nil
}
