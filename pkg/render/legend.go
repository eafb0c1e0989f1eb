package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/pricing"
)

func drawText(dst *image.RGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Round()
}

// TextPanel draws lines of text on a solid background
func TextPanel(lines []string, fg, bg color.Color) *image.RGBA {
	const (
		pad    = 6
		lineHt = 15
	)
	w := 0
	for _, l := range lines {
		w = max(w, textWidth(l))
	}
	img := image.NewRGBA(image.Rect(0, 0, w+2*pad, len(lines)*lineHt+2*pad))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)
	for i, l := range lines {
		drawText(img, pad, pad+(i+1)*lineHt-4, l, fg)
	}
	return img
}

// Legend draws the key explaining the overlay colors
func Legend() *image.RGBA {
	const (
		lineSep    = 40
		leftMargin = 300
	)
	img := image.NewRGBA(image.Rect(0, 0, 600, lineSep*5))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)

	rows := []struct {
		label string
		color color.RGBA
	}{
		{"Center of Thrust", ColorFlight},
		{"Strafe Center of Thrust", ColorStrafe},
		{"Engine Center of Thrust", ColorEngine},
	}
	notes := []string{"length of vector", "depends on thrust", "on that direction"}

	for i, row := range rows {
		y := float64(lineSep * (i + 1))
		from := point{leftMargin, y}
		strokeArrow(img, from, point{leftMargin + 100, y}, 3, 0.3, row.color)
		fillDisk(img, from, 6, row.color)

		drawText(img, leftMargin-60-textWidth(row.label), int(y)+5, row.label, colorText)
		strokeArrow(img, point{leftMargin - 50, y}, from, 2, 0.2, colorText)
		drawText(img, leftMargin+120, int(y)+5, notes[i], colorText)
	}

	y := float64(lineSep * 4)
	fillDisk(img, point{leftMargin, y}, 10, ColorMass)
	strokeArrow(img, point{leftMargin + 20, y}, point{leftMargin, y}, 2, 0.2, colorText)
	drawText(img, leftMargin+25, int(y)+5, "Center of Mass", colorText)
	return img
}

// chartCategories are the radar chart axes, clockwise from the right
var chartCategories = []catalog.Category{
	catalog.Shield,
	catalog.Weapons,
	catalog.Movement,
	catalog.Utility,
	catalog.Crew,
	catalog.Power,
	catalog.Armor,
}

var (
	chartFill  = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	chartPoint = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// PriceChart draws a radar chart of the price breakdown with the total in
// the title.
func PriceChart(b pricing.Breakdown) *image.RGBA {
	const size = 800
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	center := point{size / 2, size / 2}
	radius := float64(size/2 - 150)
	step := 2 * math.Pi / float64(len(chartCategories))
	at := func(i int, r float64) point {
		a := float64(i) * step
		return point{center.X + r*math.Cos(a), center.Y + r*math.Sin(a)}
	}

	for i := range chartCategories {
		strokeLine(img, center, at(i, radius), 1, colorFrame)
		strokeLine(img, at(i, radius), at(i+1, radius), 1, colorFrame)
	}

	var maxValue float64
	for _, c := range chartCategories {
		maxValue = math.Max(maxValue, b.Categories[c])
	}

	points := make([]point, len(chartCategories))
	for i, c := range chartCategories {
		r := 0.0
		if maxValue > 0 {
			r = radius * b.Categories[c] / maxValue
		}
		points[i] = at(i, r)
	}
	if maxValue > 0 {
		fillPolygon(img, points, chartFill)
		for i := range points {
			strokeLine(img, points[i], points[(i+1)%len(points)], 1, colorFrame)
		}
	}
	for i, c := range chartCategories {
		fillDisk(img, points[i], 5, chartPoint)
		label := at(i, radius+20)
		text := fmt.Sprintf("%s: %.0f | %.2f%%", categoryTitle(c), b.Categories[c], 100*b.Share(c))
		x := min(int(label.X), size-textWidth(text)-5)
		drawText(img, x, int(label.Y), text, colorDarkText)
	}

	title := fmt.Sprintf("Price Analysis - Total cost : %.0f", b.Total)
	drawText(img, size/2-textWidth(title)/2, 50, title, colorDarkText)
	return img
}

func categoryTitle(c catalog.Category) string {
	s := string(c)
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
