package installart

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
)

// Arrow is a horizontal line segment ending in a triangular head, in
// canvas pixels.
type Arrow struct {
	Start image.Point
	End   image.Point
	// Head holds the tip (always End) followed by the two base vertices.
	Head  [3]image.Point
	Width int
}

// ArrowGeometry places the arrow described by o on the canvas: centered
// horizontally, Arrow.OffsetY below the vertical center, with every
// length multiplied by o.Scale.
func ArrowGeometry(o *Options) Arrow {
	s := o.Scale
	w, h := o.Width*s, o.Height*s
	cx := w / 2
	y := h/2 + o.Arrow.OffsetY*s
	end := image.Pt(cx+o.Arrow.HalfLength*s, y)
	headL := o.Arrow.HeadLength * s
	headW := o.Arrow.HeadHalfWidth * s
	return Arrow{
		Start: image.Pt(cx-o.Arrow.HalfLength*s, y),
		End:   end,
		Head: [3]image.Point{
			end,
			image.Pt(end.X-headL, y-headW),
			image.Pt(end.X-headL, y+headW),
		},
		Width: o.Arrow.Width * s,
	}
}

// Add returns the arrow translated by d.
func (a Arrow) Add(d image.Point) Arrow {
	out := a
	out.Start = a.Start.Add(d)
	out.End = a.End.Add(d)
	for i := range a.Head {
		out.Head[i] = a.Head[i].Add(d)
	}
	return out
}

// Shaft returns the pixels covered by the line: Start.X through End.X
// inclusive, Width rows tall. Even widths put the extra row below Y, so
// a 2x band covers exactly the rows of the 1x band scaled up. A width
// below one draws a single row.
func (a Arrow) Shaft() image.Rectangle {
	w := max(a.Width, 1)
	top := a.Start.Y - (w-1)/2
	x0, x1 := min(a.Start.X, a.End.X), max(a.Start.X, a.End.X)
	return image.Rect(x0, top, x1+1, top+w)
}

// drawArrow composites the arrow onto dst in c. The line and head are
// rasterized into one coverage mask first so a translucent color is
// blended exactly once per pixel.
func drawArrow(dst *image.RGBA, a Arrow, c Color) {
	m := newMask(dst.Bounds())
	m.fillRect(a.Shaft())
	m.fillPolygon(a.Head[:])
	draw.DrawMask(dst, dst.Bounds(), image.NewUniform(c.RGBA()), image.Point{}, m.img, dst.Bounds().Min, draw.Over)
}

// --- Coverage mask primitives ---

type mask struct {
	img *image.Alpha
}

func newMask(r image.Rectangle) *mask {
	return &mask{img: image.NewAlpha(r)}
}

func (m *mask) setPixel(x, y int) {
	if image.Pt(x, y).In(m.img.Bounds()) {
		m.img.SetAlpha(x, y, color.Alpha{A: 0xFF})
	}
}

func (m *mask) fillRect(r image.Rectangle) {
	r = r.Intersect(m.img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.img.SetAlpha(x, y, color.Alpha{A: 0xFF})
		}
	}
}

func (m *mask) drawLine(x1, y1, x2, y2 int) {
	// Bresenham's line algorithm
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		m.setPixel(x1, y1)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// fillPolygon fills pts with the even-odd rule, sampling at pixel
// centers, then traces the outline so vertices and edges are covered.
func (m *mask) fillPolygon(pts []image.Point) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	var xs []float64
	for y := minY; y <= maxY; y++ {
		cy := float64(y) + 0.5
		xs = xs[:0]
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			ay, by := float64(a.Y), float64(b.Y)
			if (ay <= cy && by > cy) || (by <= cy && ay > cy) {
				t := (cy - ay) / (by - ay)
				xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Ceil(xs[i] - 0.5))
			x1 := int(math.Floor(xs[i+1] - 0.5))
			for x := x0; x <= x1; x++ {
				m.setPixel(x, y)
			}
		}
	}

	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		m.drawLine(a.X, a.Y, b.X, b.Y)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
