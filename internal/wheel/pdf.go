package wheel

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
)

// Voucher is the printable proof of a claimed prize.
type Voucher struct {
	Brand      string
	Catalog    Catalog
	Layout     Layout
	Rotation   float64
	Prize      string
	RewardCode string
	Claimant   string
	IssuedAt   time.Time
}

const (
	voucherWheelSize = 340.0
	voucherMargin    = 48.0
)

// VoucherPDF writes a one-page voucher with the wheel stopped on the prize.
func VoucherPDF(w io.Writer, v Voucher) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(voucherMargin, voucherMargin, voucherMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()

	pdf.SetTextColor(15, 23, 42)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(voucherMargin, voucherMargin)
	pdf.CellFormat(pageW-2*voucherMargin, 26, tr(strings.ToUpper(v.Brand)), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(voucherMargin, voucherMargin+28)
	pdf.CellFormat(pageW-2*voucherMargin, 14, "Prize voucher", "", 0, "C", false, 0, "")

	scale := voucherWheelSize / v.Layout.Size
	origin := Point{X: (pageW - voucherWheelSize) / 2, Y: voucherMargin + 70}
	surface := &pdfSurface{pdf: pdf, tr: tr, origin: origin, scale: scale}
	c := surface.at(v.Layout.Center())

	// Rotation in gofpdf is counter-clockwise.
	pdf.TransformBegin()
	pdf.TransformRotate(-math.Mod(v.Rotation, 360), c.X, c.Y)
	Render(surface, v.Catalog, v.Layout)
	pdf.TransformEnd()

	drawPointer(pdf, c.X, origin.Y-6)

	y := origin.Y + voucherWheelSize + 40
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(100, 116, 139)
	pdf.SetXY(voucherMargin, y)
	pdf.CellFormat(pageW-2*voucherMargin, 16, tr("Awarded to "+v.Claimant), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(0, 136, 204)
	pdf.SetXY(voucherMargin, y+24)
	pdf.CellFormat(pageW-2*voucherMargin, 32, tr(strings.ToUpper(v.Prize)), "", 0, "C", false, 0, "")

	pdf.SetDrawColor(0, 136, 204)
	pdf.SetLineWidth(2)
	pdf.SetDashPattern([]float64{8, 5}, 0)
	boxW := 260.0
	pdf.Rect((pageW-boxW)/2, y+70, boxW, 56, "D")
	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetFont("Courier", "B", 24)
	pdf.SetTextColor(15, 23, 42)
	pdf.SetXY((pageW-boxW)/2, y+82)
	pdf.CellFormat(boxW, 32, tr(v.RewardCode), "", 0, "C", false, 0, "")

	if !v.IssuedAt.IsZero() {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(148, 163, 184)
		pdf.SetXY(voucherMargin, y+140)
		pdf.CellFormat(pageW-2*voucherMargin, 12, "Issued "+v.IssuedAt.UTC().Format("2006-01-02 15:04 MST"), "", 0, "C", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build voucher: %w", err)
	}
	return pdf.Output(w)
}

func drawPointer(pdf *gofpdf.Fpdf, x, y float64) {
	pdf.SetFillColor(0, 136, 204)
	pdf.SetDrawColor(255, 255, 255)
	pdf.SetLineWidth(2)
	pdf.Polygon([]gofpdf.PointType{
		{X: x - 14, Y: y - 18},
		{X: x + 14, Y: y - 18},
		{X: x, Y: y + 10},
	}, "FD")
}

type pdfSurface struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	origin Point
	scale  float64
}

func (s *pdfSurface) at(p Point) Point {
	return Point{X: s.origin.X + p.X*s.scale, Y: s.origin.Y + p.Y*s.scale}
}

func (s *pdfSurface) Sector(c Point, r, startDeg, endDeg float64, fill string) {
	center := s.at(c)
	radius := r * s.scale
	pts := []gofpdf.PointType{{X: center.X, Y: center.Y}}
	for deg := startDeg; deg < endDeg; deg += 2 {
		p := Polar(center, radius, deg)
		pts = append(pts, gofpdf.PointType{X: p.X, Y: p.Y})
	}
	end := Polar(center, radius, endDeg)
	pts = append(pts, gofpdf.PointType{X: end.X, Y: end.Y})
	s.pdf.SetFillColor(hexRGB(fill))
	s.pdf.SetDrawColor(255, 255, 255)
	s.pdf.SetLineWidth(5 * s.scale)
	s.pdf.Polygon(pts, "FD")
}

func (s *pdfSurface) Label(c Point, angleDeg, dist float64, text, color string) {
	center := s.at(c)
	d := dist * s.scale
	const boxW, boxH = 140.0, 14.0
	s.pdf.TransformBegin()
	s.pdf.TransformRotate(-angleDeg, center.X, center.Y)
	s.pdf.SetFont("Helvetica", "B", 38*s.scale)
	s.pdf.SetTextColor(hexRGB(color))
	s.pdf.SetXY(center.X+d-boxW, center.Y-boxH/2)
	s.pdf.CellFormat(boxW, boxH, s.tr(text), "", 0, "R", false, 0, "")
	s.pdf.TransformEnd()
}

func (s *pdfSurface) Rim(c Point, r, width float64, color string) {
	center := s.at(c)
	s.pdf.SetDrawColor(hexRGB(color))
	s.pdf.SetLineWidth(width * s.scale)
	s.pdf.Circle(center.X, center.Y, r*s.scale, "D")
}

func (s *pdfSurface) Hub(c Point, r float64, fill, stroke, mark string) {
	center := s.at(c)
	s.pdf.SetFillColor(hexRGB(fill))
	s.pdf.SetDrawColor(hexRGB(stroke))
	s.pdf.SetLineWidth(10 * s.scale)
	s.pdf.Circle(center.X, center.Y, r*s.scale, "FD")
	if mark == "" {
		return
	}
	size := r * s.scale
	s.pdf.SetFont("Helvetica", "B", 55*s.scale)
	s.pdf.SetTextColor(hexRGB(darkText))
	s.pdf.SetXY(center.X-size, center.Y-size/2)
	s.pdf.CellFormat(2*size, size, s.tr(mark), "", 0, "C", false, 0, "")
}

// hexRGB parses #rgb or #rrggbb. Anything else is mid grey.
func hexRGB(color string) (int, int, int) {
	h := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 128, 128, 128
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 128, 128, 128
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
