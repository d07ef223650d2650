package main

import (
	"image"
	"image/color"
	"math"
)

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	return color.RGBA{
		R: uint8(float64(a.R)*(1-t) + float64(b.R)*t),
		G: uint8(float64(a.G)*(1-t) + float64(b.G)*t),
		B: uint8(float64(a.B)*(1-t) + float64(b.B)*t),
		A: uint8(float64(a.A)*(1-t) + float64(b.A)*t),
	}
}

func setPixelBlend(img *image.RGBA, x, y int, c color.RGBA) {
	if !image.Pt(x, y).In(img.Bounds()) {
		return
	}
	existing := img.RGBAAt(x, y)
	if existing.A == 0 {
		img.SetRGBA(x, y, c)
		return
	}
	alpha := float64(c.A) / 255.0
	img.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(existing.R)*(1-alpha) + float64(c.R)*alpha),
		G: uint8(float64(existing.G)*(1-alpha) + float64(c.G)*alpha),
		B: uint8(float64(existing.B)*(1-alpha) + float64(c.B)*alpha),
		A: 255,
	})
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	steps := int(math.Max(dx, dy))
	if steps == 0 {
		setPixelBlend(img, x0, y0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := float64(x0) + t*float64(x1-x0)
		y := float64(y0) + t*float64(y1-y0)
		setPixelBlend(img, int(math.Round(x)), int(math.Round(y)), c)
	}
}

// fillRect shades vertically from top to bottom.
func fillRect(img *image.RGBA, r image.Rectangle, top, bottom color.RGBA) {
	for py := r.Min.Y; py < r.Max.Y; py++ {
		c := lerpColor(top, bottom, float64(py-r.Min.Y)/float64(max(1, r.Dy()-1)))
		for px := r.Min.X; px < r.Max.X; px++ {
			setPixelBlend(img, px, py, c)
		}
	}
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	drawLine(img, x0, y0, x1, y0, c)
	drawLine(img, x1, y0, x1, y1, c)
	drawLine(img, x1, y1, x0, y1, c)
	drawLine(img, x0, y1, x0, y0, c)
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for py := cy - r; py <= cy+r; py++ {
		for px := cx - r; px <= cx+r; px++ {
			dx := float64(px - cx)
			dy := float64(py - cy)
			if math.Sqrt(dx*dx+dy*dy) <= float64(r) {
				setPixelBlend(img, px, py, c)
			}
		}
	}
}

// fillTriangle fills a triangle
func fillTriangle(img *image.RGBA, x0, y0, x1, y1, x2, y2 int, c color.RGBA) {
	minX, maxX := min(x0, x1, x2), max(x0, x1, x2)
	minY, maxY := min(y0, y1, y2), max(y0, y1, y2)
	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			if pointInTriangle(px, py, x0, y0, x1, y1, x2, y2) {
				setPixelBlend(img, px, py, c)
			}
		}
	}
}

func pointInTriangle(px, py, x0, y0, x1, y1, x2, y2 int) bool {
	d1 := sign(px, py, x0, y0, x1, y1)
	d2 := sign(px, py, x1, y1, x2, y2)
	d3 := sign(px, py, x2, y2, x0, y0)
	hasNeg := (d1 < 0) || (d2 < 0) || (d3 < 0)
	hasPos := (d1 > 0) || (d2 > 0) || (d3 > 0)
	return !(hasNeg && hasPos)
}

func sign(px, py, x0, y0, x1, y1 int) float64 {
	return float64((px-x1)*(y0-y1) - (x0-x1)*(py-y1))
}

// bottomCentered is a w x h rect resting on the bottom edge of cell,
// centered horizontally.
func bottomCentered(cell image.Rectangle, w, h int) image.Rectangle {
	x := cell.Min.X + (cell.Dx()-w)/2
	return image.Rect(x, cell.Max.Y-h, x+w, cell.Max.Y)
}

// Part painters. Each draws inside cell and touches its bottom edge.

func wallPart(w, h int, top, bottom color.RGBA) painter {
	return func(img *image.RGBA, cell image.Rectangle) {
		r := bottomCentered(cell, w, h)
		fillRect(img, r, top, bottom)
		outline(img, r, color.RGBA{40, 30, 20, 255})
		// Door
		door := bottomCentered(r, w/5, h/2)
		fillRect(img, door, color.RGBA{70, 45, 25, 255}, color.RGBA{50, 30, 15, 255})
	}
}

func roofPart(w, h int, c color.RGBA) painter {
	return func(img *image.RGBA, cell image.Rectangle) {
		r := bottomCentered(cell, w, h)
		fillTriangle(img, r.Min.X, r.Max.Y-1, r.Max.X-1, r.Max.Y-1, r.Min.X+w/2, r.Min.Y, c)
	}
}

func chimneyPart(img *image.RGBA, cell image.Rectangle) {
	r := bottomCentered(cell, 8, 18)
	fillRect(img, r, color.RGBA{150, 70, 60, 255}, color.RGBA{110, 50, 40, 255})
	fillCircle(img, r.Min.X+4, r.Min.Y-6, 4, color.RGBA{200, 200, 205, 200})
}

func flagPart(img *image.RGBA, cell image.Rectangle) {
	pole := bottomCentered(cell, 2, 28)
	fillRect(img, pole, color.RGBA{90, 90, 90, 255}, color.RGBA{60, 60, 60, 255})
	fillTriangle(img, pole.Max.X, pole.Min.Y, pole.Max.X+14, pole.Min.Y+5, pole.Max.X, pole.Min.Y+10, color.RGBA{220, 40, 40, 255})
}

func fencePart(img *image.RGBA, cell image.Rectangle) {
	r := bottomCentered(cell, 32, 8)
	for x := r.Min.X; x < r.Max.X; x += 6 {
		fillRect(img, image.Rect(x, r.Min.Y, x+2, r.Max.Y), color.RGBA{140, 110, 70, 255}, color.RGBA{110, 80, 50, 255})
	}
	drawLine(img, r.Min.X, r.Min.Y+2, r.Max.X-1, r.Min.Y+2, color.RGBA{120, 95, 60, 255})
}

func gearIcon(img *image.RGBA, cell image.Rectangle) {
	c := cell.Min.Add(image.Pt(cell.Dx()/2, cell.Dy()/2))
	fillCircle(img, c.X, c.Y, 18, color.RGBA{160, 160, 170, 255})
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		fillCircle(img, c.X+int(22*math.Cos(a)), c.Y+int(22*math.Sin(a)), 4, color.RGBA{160, 160, 170, 255})
	}
	fillCircle(img, c.X, c.Y, 7, color.RGBA{60, 60, 70, 255})
}

func panelIcon(img *image.RGBA, cell image.Rectangle) {
	r := image.Rect(cell.Min.X+7, cell.Min.Y+17, cell.Min.X+57, cell.Min.Y+47)
	fillRect(img, r, color.RGBA{60, 80, 140, 230}, color.RGBA{30, 40, 90, 230})
	outline(img, r, color.RGBA{200, 210, 255, 255})
}

func portIcon(img *image.RGBA, cell image.Rectangle) {
	c := cell.Min.Add(image.Pt(cell.Dx()/2, cell.Dy()/2))
	fillTriangle(img, c.X-10, c.Y-14, c.X+12, c.Y, c.X-10, c.Y+14, color.RGBA{60, 200, 90, 255})
}
