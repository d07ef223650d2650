// Package preview is an ebiten app for browsing generated atlases with their
// pivots marked.
package preview

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/1siamBot/spritebake/engine/input"
	"github.com/1siamBot/spritebake/engine/logging"
	"github.com/1siamBot/spritebake/engine/render"
	"github.com/1siamBot/spritebake/engine/texture"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
	fitPadding   = 40
	missingText  = "could not load image"
)

var (
	background = color.RGBA{30, 30, 40, 255}
	outline    = color.RGBA{90, 90, 120, 255}
	pivotColor = color.RGBA{255, 60, 60, 255}
)

// Viewer implements ebiten.Game.
type Viewer struct {
	gallery *render.Gallery
	camera  *render.Camera
	input   *input.InputState
	log     *logging.Logger

	// images caches decoded slides by path; a nil entry marks a failed load.
	images map[string]*ebiten.Image
	shown  int
}

func NewViewer(g *render.Gallery, log *logging.Logger) *Viewer {
	v := &Viewer{
		gallery: g,
		camera:  render.NewCamera(ScreenWidth, ScreenHeight),
		input:   input.NewInputState(),
		log:     log,
		images:  make(map[string]*ebiten.Image),
		shown:   -1,
	}
	return v
}

func (v *Viewer) image(s render.Slide) *ebiten.Image {
	if img, ok := v.images[s.Path]; ok {
		return img
	}
	nrgba, err := texture.DecodeFile(s.Path)
	if err != nil {
		v.log.Warnf("could not decode %s: %v", s.Path, err)
		v.images[s.Path] = nil
		return nil
	}
	img := ebiten.NewImageFromImage(nrgba)
	v.images[s.Path] = img
	return img
}

// size returns the slide's pixel size, falling back to the snapshot's.
func (v *Viewer) size(s render.Slide) (int, int) {
	if img := v.image(s); img != nil {
		b := img.Bounds()
		return b.Dx(), b.Dy()
	}
	return s.W, s.H
}

func (v *Viewer) Update() error {
	v.input.Update()
	if v.input.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if v.input.IsKeyJustPressed(ebiten.KeyRight) || v.input.IsKeyJustPressed(ebiten.KeyPageDown) {
		v.gallery.Next()
	}
	if v.input.IsKeyJustPressed(ebiten.KeyLeft) || v.input.IsKeyJustPressed(ebiten.KeyPageUp) {
		v.gallery.Prev()
	}

	s, ok := v.gallery.Current()
	if ok && (v.shown != v.gallery.Index() || v.input.IsKeyJustPressed(ebiten.KeyF)) {
		w, h := v.size(s)
		v.camera.Fit(w, h, fitPadding)
		v.shown = v.gallery.Index()
	}

	speed := v.camera.Speed / 60.0
	if v.input.Held(ebiten.KeyW, ebiten.KeyUp) {
		v.camera.Pan(0, -speed)
	}
	if v.input.Held(ebiten.KeyS, ebiten.KeyDown) {
		v.camera.Pan(0, speed)
	}
	if v.input.Held(ebiten.KeyA) {
		v.camera.Pan(-speed, 0)
	}
	if v.input.Held(ebiten.KeyD) {
		v.camera.Pan(speed, 0)
	}
	if v.input.ScrollY > 0 {
		v.camera.ZoomAt(1.25, v.input.MouseX, v.input.MouseY)
	} else if v.input.ScrollY < 0 {
		v.camera.ZoomAt(0.8, v.input.MouseX, v.input.MouseY)
	}
	if v.input.MiddlePressed || v.input.Dragging {
		v.camera.Pan(float64(-v.input.MouseDX), float64(-v.input.MouseDY))
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	s, ok := v.gallery.Current()
	if !ok {
		ebitenutil.DebugPrintAt(screen, "no generated atlases or icons found", 5, 5)
		return
	}

	scale, tx, ty := v.camera.Transform()
	w, h := v.size(s)
	if img := v.image(s); img != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(tx, ty)
		op.Filter = ebiten.FilterNearest
		screen.DrawImage(img, op)
	} else {
		ebitenutil.DebugPrintAt(screen, missingText, 5, 25)
	}
	vector.StrokeRect(screen, float32(tx), float32(ty), float32(float64(w)*scale), float32(float64(h)*scale), 1, outline, false)

	// Crosshair on the pivot.
	ax, ay := s.Anchor()
	if s.W == 0 {
		ax, ay = s.Pivot.X*float64(w), (1-s.Pivot.Y)*float64(h)
	}
	px, py := v.camera.WorldToScreen(ax, ay)
	const arm = 10
	vector.StrokeLine(screen, float32(px-arm), float32(py), float32(px+arm), float32(py), 1, pivotColor, false)
	vector.StrokeLine(screen, float32(px), float32(py-arm), float32(px), float32(py+arm), 1, pivotColor, false)

	mx, my := v.camera.ScreenToWorld(v.input.MouseX, v.input.MouseY)
	info := fmt.Sprintf("%d/%d %s %s %dx%d pivot(%.3f,%.3f) | px(%d,%d) zoom %.2gx | [Left/Right]Next [WASD]Pan [Scroll]Zoom [F]Fit",
		v.gallery.Index()+1, v.gallery.Len(), s.Kind, s.Name, w, h, s.Pivot.X, s.Pivot.Y,
		int(mx), int(my), v.camera.Zoom)
	ebitenutil.DebugPrintAt(screen, info, 5, ScreenHeight-20)
}

func (v *Viewer) Layout(_, _ int) (int, int) {
	return ScreenWidth, ScreenHeight
}
