package detection

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// palette returns n visually distinct colours. Hues are spaced by the golden
// angle so that neighbouring labels never get similar colours.
func palette(n int) []color.RGBA {
	colors := make([]color.RGBA, n)
	const goldenAngle = 137.508
	for i := range colors {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		r, g, b := colorful.Hsv(hue, 0.75, 0.95).Clamped().RGB255()
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// RenderLabels draws the components of res that passed size rejection, one
// colour per label, on a black background. Rejected components and edge
// pixels stay black.
func RenderLabels(res *Result) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)
	if res.Labels == nil {
		return img
	}

	colors := palette(len(res.Components))
	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			g := FrameToGrid(image.Pt(x, y))
			label := res.Labels.At(g.X, g.Y)
			if label < 0 || int(label) >= len(res.Components) {
				continue
			}
			if !res.Components[label].Accepted {
				continue
			}
			img.SetRGBA(x, y, colors[label])
		}
	}
	return img
}

// RenderCandidates copies frame and outlines every candidate quadrilateral of
// res on it, marking each vertex with a small square.
func RenderCandidates(frame image.Image, res *Result) *image.RGBA {
	b := frame.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), frame, b.Min, draw.Src)

	quads := res.Quads()
	colors := palette(len(quads))
	for i, q := range quads {
		c := colors[i]
		for k := range q {
			drawLine(img, q[k].Pt(), q[(k+1)%len(q)].Pt(), c)
		}
		for _, v := range q {
			p := v.Pt()
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					setIfInside(img, p.X+dx, p.Y+dy, c)
				}
			}
		}
	}
	return img
}

// drawLine draws a line from a to b using Bresenham's algorithm.
func drawLine(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		setIfInside(img, x, y, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func setIfInside(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
