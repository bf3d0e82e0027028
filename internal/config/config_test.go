package config

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "BRAND", "BRAND_MARK", "CATALOG_PATH", "PG_DSN", "REDIS_ADDR", "LOG_LEVEL", "CORS_ORIGINS", "SPIN_SEED"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr %q, want :8080", cfg.Addr)
	}
	if cfg.Brand != "yuedpao" {
		t.Errorf("Brand %q, want yuedpao", cfg.Brand)
	}
	if cfg.Mark != "Y" {
		t.Errorf("Mark %q, want Y", cfg.Mark)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.Seed != 0 {
		t.Errorf("Seed %d, want 0", cfg.Seed)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BRAND", "acme")
	t.Setenv("BRAND_MARK", "")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SPIN_SEED", "42")
	cfg := FromEnv()
	if cfg.Addr != ":9090" {
		t.Errorf("Addr %q, want :9090", cfg.Addr)
	}
	if cfg.Mark != "A" {
		t.Errorf("Mark %q, want A", cfg.Mark)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins %v", cfg.CORSOrigins)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed %d, want 42", cfg.Seed)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SPINLAB_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPINLAB_TEST_KEY", "")
	os.Unsetenv("SPINLAB_TEST_KEY")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("SPINLAB_TEST_KEY"); got != "from-file" {
		t.Errorf("SPINLAB_TEST_KEY %q, want from-file", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMarkFor(t *testing.T) {
	tests := []struct {
		brand, want string
	}{
		{"yuedpao", "Y"},
		{"ยืดเปา", "ย"},
		{"émile", "É"},
		{"", ""},
	}
	for _, tt := range tests {
		got := markFor(tt.brand)
		if got != tt.want {
			t.Errorf("markFor(%q) = %q, want %q", tt.brand, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("markFor(%q) = %q is not valid UTF-8", tt.brand, got)
		}
	}
}
