package wheel

import (
	"math"
	"regexp"
	"strings"
)

// Point is a position in surface coordinates (y grows downwards).
type Point struct {
	X, Y float64
}

// Layout fixes the wheel's proportions in surface units.
type Layout struct {
	Size       float64
	Radius     float64
	RimOffset  float64
	RimWidth   float64
	HubRadius  float64
	LabelInset float64
	Mark       string
}

// DefaultLayout matches a 1000-unit square canvas.
func DefaultLayout(mark string) Layout {
	return Layout{
		Size:       1000,
		Radius:     460,
		RimOffset:  15,
		RimWidth:   25,
		HubRadius:  65,
		LabelInset: 50,
		Mark:       mark,
	}
}

// Center returns the wheel centre.
func (l Layout) Center() Point {
	return Point{X: l.Size / 2, Y: l.Size / 2}
}

// Surface receives draw calls in the wheel's unrotated local space.
// Angles are degrees, clockwise from 3 o'clock.
type Surface interface {
	Sector(c Point, r, startDeg, endDeg float64, fill string)
	Label(c Point, angleDeg, dist float64, text, color string)
	Rim(c Point, r, width float64, color string)
	Hub(c Point, r float64, fill, stroke, mark string)
}

const (
	rimColor  = "#f1f5f9"
	hubFill   = "#ffffff"
	hubStroke = "#f8fafc"
	darkText  = "#0f172a"
	lightText = "#ffffff"
)

// SectorSpan returns the start and end angle of sector i of n. Sector 0
// starts at 12 o'clock.
func SectorSpan(i, n int) (float64, float64) {
	slice := 360 / float64(n)
	start := float64(i)*slice - 90
	return start, start + slice
}

// Render draws the whole wheel. Rotation is not applied here; surfaces apply
// it once to the finished drawing.
func Render(s Surface, catalog Catalog, l Layout) {
	c := l.Center()
	n := len(catalog)
	for i, prize := range catalog {
		start, end := SectorSpan(i, n)
		fill := FillFor(prize.Color)
		s.Sector(c, l.Radius, start, end, fill)
		s.Label(c, (start+end)/2, l.Radius-l.LabelInset, strings.ToUpper(prize.Label), LabelColor(fill))
	}
	s.Rim(c, l.Radius+l.RimOffset, l.RimWidth, rimColor)
	s.Hub(c, l.HubRadius, hubFill, hubStroke, l.Mark)
}

var fillPalette = map[string]string{
	"#00f3ff": "#e0faff",
	"#000000": "#0f172a",
	"#1a1a1a": "#1e293b",
	"#333333": "#334155",
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-f]{3}|[0-9a-f]{6}|[0-9a-f]{8})$`)

const neutralFill = "#e2e8f0"

// FillFor maps a catalog colour token to the fill actually painted. Anything
// that is not a hex colour paints neutral.
func FillFor(color string) string {
	key := strings.ToLower(strings.TrimSpace(color))
	if fill, ok := fillPalette[key]; ok {
		return fill
	}
	if !hexColor.MatchString(key) {
		return neutralFill
	}
	return key
}

var darkFills = map[string]bool{
	"#0f172a": true,
	"#1e293b": true,
	"#334155": true,
	"#0088cc": true,
}

// LabelColor picks a readable text colour for a painted fill.
func LabelColor(fill string) string {
	if darkFills[strings.ToLower(fill)] {
		return lightText
	}
	return darkText
}

// Polar converts an angle and distance from c into surface coordinates.
func Polar(c Point, r, deg float64) Point {
	rad := deg * math.Pi / 180
	return Point{X: c.X + r*math.Cos(rad), Y: c.Y + r*math.Sin(rad)}
}

// PointerIndex returns the sector under the 12 o'clock pointer once the
// wheel has turned by rotation degrees clockwise.
func PointerIndex(n int, rotation float64) int {
	slice := 360 / float64(n)
	local := math.Mod(360-math.Mod(rotation, 360), 360)
	idx := int(local / slice)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
