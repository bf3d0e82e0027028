package wheel

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	svg "github.com/ajstarks/svgo"
)

// EaseOut is the deceleration curve of the spin animation.
const EaseOut = "cubic-bezier(0.1, 0, 0, 1)"

// Motion is the whole-wheel transform: where the wheel should end up and how
// long it takes to get there.
type Motion struct {
	Rotation float64
	Duration time.Duration
}

// SVG renders the wheel as an SVG document. The drawing is built in
// unrotated space and the rotation is a single transform on the rotor group.
func SVG(catalog Catalog, l Layout, m Motion) string {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	size := int(math.Round(l.Size))
	canvas.Start(size, size,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, size, size),
		`class="wheel"`, `role="img"`, `aria-label="prize wheel"`)
	canvas.Group(`class="wheel-rotor"`,
		fmt.Sprintf(`data-rotation="%s"`, degrees(m.Rotation)),
		fmt.Sprintf(`data-duration-ms="%d"`, m.Duration.Milliseconds()),
		fmt.Sprintf(`style="%s"`, RotorStyle(m)))
	Render(&svgSurface{canvas: canvas}, catalog, l)
	canvas.Gend()
	canvas.End()
	return buf.String()
}

// RotorStyle is the inline CSS for the rotor group.
func RotorStyle(m Motion) string {
	return fmt.Sprintf("transform-box:view-box;transform-origin:50%% 50%%;transform:rotate(%sdeg);transition:transform %dms %s",
		degrees(m.Rotation), m.Duration.Milliseconds(), EaseOut)
}

func degrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// svgSurface draws on an svgo canvas. Colours reaching it have been through
// FillFor or are package constants, so they are safe inside attributes;
// svgo escapes text content.
type svgSurface struct {
	canvas *svg.SVG
}

func (s *svgSurface) Sector(c Point, r, startDeg, endDeg float64, fill string) {
	paint := []string{`class="sector"`, `fill="` + fill + `"`, `stroke="#ffffff"`, `stroke-width="5"`}
	if endDeg-startDeg >= 360 {
		s.canvas.Circle(px(c.X), px(c.Y), px(r), paint...)
		return
	}
	p1 := Polar(c, r, startDeg)
	p2 := Polar(c, r, endDeg)
	large := 0
	if endDeg-startDeg > 180 {
		large = 1
	}
	d := fmt.Sprintf("M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z",
		c.X, c.Y, p1.X, p1.Y, r, r, large, p2.X, p2.Y)
	s.canvas.Path(d, paint...)
}

func (s *svgSurface) Label(c Point, angleDeg, dist float64, text, color string) {
	s.canvas.Text(px(dist), 0, text,
		`class="label"`, `dy="0.35em"`, `text-anchor="end"`,
		fmt.Sprintf(`transform="translate(%.2f %.2f) rotate(%.2f)"`, c.X, c.Y, angleDeg),
		`fill="`+color+`"`, `font-family="Inter, sans-serif"`, `font-weight="900"`, `font-size="38"`)
}

func (s *svgSurface) Rim(c Point, r, width float64, color string) {
	s.canvas.Circle(px(c.X), px(c.Y), px(r),
		`class="rim"`, `fill="none"`, `stroke="`+color+`"`, fmt.Sprintf(`stroke-width="%d"`, px(width)))
}

func (s *svgSurface) Hub(c Point, r float64, fill, stroke, mark string) {
	s.canvas.Circle(px(c.X), px(c.Y), px(r),
		`class="hub"`, `fill="`+fill+`"`, `stroke="`+stroke+`"`, `stroke-width="10"`)
	if mark != "" {
		s.canvas.Text(px(c.X), px(c.Y), mark,
			`class="mark"`, `dy="0.35em"`, `text-anchor="middle"`, `fill="`+darkText+`"`, `font-weight="700"`, `font-size="55"`)
	}
}

func px(v float64) int {
	return int(math.Round(v))
}
