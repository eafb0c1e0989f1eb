package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"github.com/opd-ai/go-shipyard/pkg/physics"
)

const diskSegments = 48

type point struct{ X, Y float64 }

// toPixel maps ship space to canvas pixels
func toPixel(v physics.Vector2D) point {
	return point{
		X: (v.X + GridOffset) * TilePixels,
		Y: (v.Y + GridOffset) * TilePixels,
	}
}

// fillPolygon rasterises a closed polygon onto dst, restricted to the
// polygon's bounding box.
func fillPolygon(dst *image.RGBA, pts []point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	box = box.Intersect(dst.Bounds())
	if box.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()
	z.Draw(dst, box, image.NewUniform(c), image.Point{})
}

func fillDisk(dst *image.RGBA, center point, radius float64, c color.Color) {
	pts := make([]point, diskSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / diskSegments
		pts[i] = point{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
	}
	fillPolygon(dst, pts, c)
}

// strokeLine draws a segment of the given width as a quad with round caps
func strokeLine(dst *image.RGBA, a, b point, width float64, c color.Color) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	half := width / 2
	if length == 0 {
		fillDisk(dst, a, half, c)
		return
	}
	nx, ny := -dy/length*half, dx/length*half
	fillPolygon(dst, []point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}, c)
	fillDisk(dst, a, half, c)
	fillDisk(dst, b, half, c)
}

// strokeArrow draws a line with two head strokes at 45 degrees whose length
// is tip times the arrow length.
func strokeArrow(dst *image.RGBA, from, to point, width, tip float64, c color.Color) {
	strokeLine(dst, from, to, width, c)
	dx, dy := from.X-to.X, from.Y-to.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	head := length * tip
	ux, uy := dx/length, dy/length
	for _, sign := range []float64{1, -1} {
		cos, sin := math.Cos(math.Pi/4), sign*math.Sin(math.Pi/4)
		hx := ux*cos - uy*sin
		hy := ux*sin + uy*cos
		strokeLine(dst, to, point{to.X + hx*head, to.Y + hy*head}, width, c)
	}
}

// darken scales every color channel by factor
func darken(img *image.RGBA, factor float64) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * factor)
		img.Pix[i+1] = uint8(float64(img.Pix[i+1]) * factor)
		img.Pix[i+2] = uint8(float64(img.Pix[i+2]) * factor)
	}
}

// cropSquare trims the black border around the drawing, keeps margin
// pixels around it and widens the shorter side so the result is square.
// It returns false when nothing was drawn.
func cropSquare(img *image.RGBA, margin int) (image.Rectangle, bool) {
	b := img.Bounds()
	xmin, ymin := b.Max.X, b.Max.Y
	xmax, ymax := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X-1, y)+4]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+3]
			if p[0] == 0 && p[1] == 0 && p[2] == 0 {
				continue
			}
			px := b.Min.X + x
			if px < xmin {
				xmin = px
			}
			if px > xmax {
				xmax = px
			}
			if y < ymin {
				ymin = y
			}
			if y > ymax {
				ymax = y
			}
		}
	}
	if xmax < xmin {
		return image.Rectangle{}, false
	}

	xmin, xmax = xmin-margin, xmax+margin
	ymin, ymax = ymin-margin, ymax+margin
	w, h := xmax-xmin, ymax-ymin
	switch {
	case w > h:
		grow := (w - h) / 2
		ymin -= grow
		ymax += w - h - grow
	case h > w:
		grow := (h - w) / 2
		xmin -= grow
		xmax += h - w - grow
	}
	return image.Rect(xmin, ymin, xmax, ymax).Intersect(b), true
}
