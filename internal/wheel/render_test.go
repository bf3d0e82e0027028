package wheel

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type drawCall struct {
	kind  string
	start float64
	end   float64
	angle float64
	text  string
	color string
}

type recordingSurface struct {
	calls []drawCall
}

func (s *recordingSurface) Sector(_ Point, _ float64, startDeg, endDeg float64, fill string) {
	s.calls = append(s.calls, drawCall{kind: "sector", start: startDeg, end: endDeg, color: fill})
}

func (s *recordingSurface) Label(_ Point, angleDeg, _ float64, text, color string) {
	s.calls = append(s.calls, drawCall{kind: "label", angle: angleDeg, text: text, color: color})
}

func (s *recordingSurface) Rim(_ Point, _, _ float64, color string) {
	s.calls = append(s.calls, drawCall{kind: "rim", color: color})
}

func (s *recordingSurface) Hub(_ Point, _ float64, fill, _ string, mark string) {
	s.calls = append(s.calls, drawCall{kind: "hub", color: fill, text: mark})
}

func TestSectorSpan(t *testing.T) {
	tests := []struct {
		i, n       int
		start, end float64
	}{
		{0, 6, -90, -30},
		{1, 6, -30, 30},
		{5, 6, 210, 270},
		{0, 2, -90, 90},
		{1, 2, 90, 270},
	}
	for _, tt := range tests {
		start, end := SectorSpan(tt.i, tt.n)
		if start != tt.start || end != tt.end {
			t.Errorf("SectorSpan(%d, %d) = [%v, %v], want [%v, %v]", tt.i, tt.n, start, end, tt.start, tt.end)
		}
	}
}

func TestRender_DrawOrder(t *testing.T) {
	catalog := Catalog{
		{Label: "Free Tee", Color: "#0088cc"},
		{Label: "10% off", Color: "#00f3ff", Weight: 9},
		{Label: "Ship", Color: "#000000"},
	}
	s := &recordingSurface{}
	Render(s, catalog, DefaultLayout("Y"))

	if len(s.calls) != 2*len(catalog)+2 {
		t.Fatalf("len(calls) %d, want %d", len(s.calls), 2*len(catalog)+2)
	}
	for i := range catalog {
		sector := s.calls[2*i]
		label := s.calls[2*i+1]
		if sector.kind != "sector" || label.kind != "label" {
			t.Fatalf("call %d kinds %q/%q", i, sector.kind, label.kind)
		}
		if sector.end-sector.start != 120 {
			t.Errorf("sector %d width %v, want 120", i, sector.end-sector.start)
		}
		if label.angle != (sector.start+sector.end)/2 {
			t.Errorf("label %d angle %v, want bisector", i, label.angle)
		}
	}
	if s.calls[1].text != "FREE TEE" {
		t.Errorf("label %q, want FREE TEE", s.calls[1].text)
	}
	if s.calls[2].color != "#e0faff" {
		t.Errorf("fill %q, want #e0faff", s.calls[2].color)
	}
	if s.calls[1].color != "#ffffff" {
		t.Errorf("label colour on dark fill %q, want #ffffff", s.calls[1].color)
	}
	if s.calls[3].color != "#0f172a" {
		t.Errorf("label colour on light fill %q, want #0f172a", s.calls[3].color)
	}
	if s.calls[len(s.calls)-2].kind != "rim" || s.calls[len(s.calls)-1].kind != "hub" {
		t.Error("rim and hub should be drawn last")
	}
}

func TestPointerIndex(t *testing.T) {
	if got := PointerIndex(6, 3210); got != 0 {
		t.Errorf("PointerIndex(6, 3210) = %d, want 0", got)
	}
	if got := PointerIndex(2, 3690); got != 1 {
		t.Errorf("PointerIndex(2, 3690) = %d, want 1", got)
	}
}

func TestSVG_SingleTransform(t *testing.T) {
	catalog := sixPrizes()
	m := Motion{Rotation: 3210, Duration: 6 * time.Second}
	out := SVG(catalog, DefaultLayout("Y"), m)

	if strings.Count(out, "rotate(3210deg)") != 1 {
		t.Errorf("expected exactly one whole-wheel rotation, got:\n%s", out)
	}
	if !strings.Contains(out, "transition:transform 6000ms "+EaseOut) {
		t.Error("missing ease-out transition with the spin duration")
	}
	if strings.Count(out, `class="sector"`) != len(catalog) {
		t.Errorf("sector count %d, want %d", strings.Count(out, `class="sector"`), len(catalog))
	}
	if !strings.Contains(out, `class="rim"`) || !strings.Contains(out, `class="hub"`) {
		t.Error("rim and hub must always be drawn")
	}
	if !strings.Contains(out, `text-anchor="end"`) {
		t.Error("labels should anchor at the rim end")
	}
	if out != SVG(catalog, DefaultLayout("Y"), m) {
		t.Error("SVG should be deterministic")
	}
}

func TestSVG_EscapesLabels(t *testing.T) {
	catalog := Catalog{{Label: "<b>"}, {Label: "a&b"}}
	out := SVG(catalog, DefaultLayout(""), Motion{})
	if strings.Contains(out, "<B>") {
		t.Error("label was not escaped")
	}
	if !strings.Contains(out, "A&amp;B") {
		t.Error("ampersand was not escaped")
	}
}

func TestSVG_Document(t *testing.T) {
	out := SVG(sixPrizes(), DefaultLayout("Y"), Motion{Rotation: 90})
	if !strings.Contains(out, `viewBox="0 0 1000 1000"`) {
		t.Error("missing viewBox for the 1000-unit canvas")
	}
	if !strings.Contains(out, `data-rotation="90"`) {
		t.Error("rotor should carry its rotation")
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
		t.Error("document is not closed")
	}
	if strings.Count(out, "<g ") != strings.Count(out, "</g>") {
		t.Error("unbalanced groups")
	}
}

func TestFillFor(t *testing.T) {
	tests := map[string]string{
		"#00F3FF":                 "#e0faff",
		"#0088cc":                 "#0088cc",
		"#abc":                    "#abc",
		"":                        neutralFill,
		"red":                     neutralFill,
		`#fff" onload="alert(1)`: neutralFill,
	}
	for in, want := range tests {
		if got := FillFor(in); got != want {
			t.Errorf("FillFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSVG_HostileColourStaysInAttribute(t *testing.T) {
	catalog := Catalog{{Label: "a", Color: `#fff" onload="x`}, {Label: "b", Color: "#000000"}}
	out := SVG(catalog, DefaultLayout("Y"), Motion{})
	if strings.Contains(out, "onload") {
		t.Errorf("colour escaped its attribute:\n%s", out)
	}
}

func TestVoucherPDF(t *testing.T) {
	var buf bytes.Buffer
	err := VoucherPDF(&buf, Voucher{
		Brand:      "yuedpao",
		Catalog:    sixPrizes(),
		Layout:     DefaultLayout("Y"),
		Rotation:   3210,
		Prize:      "a",
		RewardCode: "ULTRA2026",
		Claimant:   "Somchai",
		IssuedAt:   time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("VoucherPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestHexRGB(t *testing.T) {
	r, g, b := hexRGB("#0088cc")
	if r != 0 || g != 136 || b != 204 {
		t.Errorf("hexRGB = %d,%d,%d, want 0,136,204", r, g, b)
	}
	r, g, b = hexRGB("#fff")
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("hexRGB short = %d,%d,%d", r, g, b)
	}
	r, _, _ = hexRGB("bogus")
	if r != 128 {
		t.Errorf("hexRGB fallback r=%d, want 128", r)
	}
}
