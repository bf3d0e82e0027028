package wheel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if err := s.Catalog.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	if s.RewardCode != "ULTRA2026" {
		t.Errorf("RewardCode %q, want ULTRA2026", s.RewardCode)
	}
	s.Catalog[0].Label = "mutated"
	if DefaultCatalog()[0].Label == "mutated" {
		t.Error("DefaultSettings should return a copy")
	}
}

func TestLoadSettings_EmptyPath(t *testing.T) {
	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if len(s.Catalog) != len(DefaultCatalog()) {
		t.Errorf("len(Catalog) %d, want default %d", len(s.Catalog), len(DefaultCatalog()))
	}
}

func TestLoadSettings_MissingFileFallsBack(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if len(s.Catalog) != len(DefaultCatalog()) {
		t.Errorf("len(Catalog) %d, want default", len(s.Catalog))
	}
	if s.RewardCode != DefaultSettings().RewardCode {
		t.Errorf("RewardCode %q, want default", s.RewardCode)
	}
}

func TestLoadSettings_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "reward_code: SPRING\nprizes:\n  - label: A\n    color: \"#111111\"\n  - label: B\n    color: \"#222222\"\n    weight: 3\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.RewardCode != "SPRING" {
		t.Errorf("RewardCode %q, want SPRING", s.RewardCode)
	}
	if len(s.Catalog) != 2 {
		t.Fatalf("len(Catalog) %d, want 2", len(s.Catalog))
	}
	if s.Catalog[0].EffectiveWeight() != 1 {
		t.Errorf("default weight %v, want 1", s.Catalog[0].EffectiveWeight())
	}
	if !s.Catalog.Weighted() {
		t.Error("catalog should be weighted")
	}
}

func TestParseSettings_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"malformed", "prizes: [", nil},
		{"single prize", "prizes:\n  - label: only\n", ErrCatalogTooSmall},
		{"negative weight", "prizes:\n  - label: a\n    weight: -1\n  - label: b\n", ErrInvalidWeight},
		{"empty label", "prizes:\n  - label: a\n  - color: \"#fff\"\n", ErrEmptyLabel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSettings([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err %v, want %v", err, tt.wantErr)
			}
			if len(s.Catalog) != len(DefaultCatalog()) {
				t.Errorf("len(Catalog) %d, want default", len(s.Catalog))
			}
		})
	}
}

func TestParseSettings_RewardOnly(t *testing.T) {
	s, err := ParseSettings([]byte("reward_code: ONLY\n"))
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.RewardCode != "ONLY" {
		t.Errorf("RewardCode %q, want ONLY", s.RewardCode)
	}
	if len(s.Catalog) != len(DefaultCatalog()) {
		t.Errorf("len(Catalog) %d, want default", len(s.Catalog))
	}
}

func TestCatalog_SliceAngle(t *testing.T) {
	c := Catalog{{Label: "a", Weight: 1}, {Label: "b", Weight: 5}, {Label: "c", Weight: 1}, {Label: "d"}}
	if got := c.SliceAngle(); got != 90 {
		t.Errorf("SliceAngle %v, want 90", got)
	}
}
