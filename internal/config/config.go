package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Addr        string
	Brand       string
	Mark        string
	CatalogPath string
	PGDSN       string
	RedisAddr   string
	LogLevel    string
	CORSOrigins []string
	BaseURL     string
	Seed        int64
}

// LoadDotEnv loads path into the environment if it exists. Variables already
// set win over the file.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// FromEnv reads Config from environment variables with defaults.
func FromEnv() Config {
	brand := envOr("BRAND", "yuedpao")
	cfg := Config{
		Addr:        ":" + envOr("PORT", "8080"),
		Brand:       brand,
		Mark:        envOr("BRAND_MARK", markFor(brand)),
		CatalogPath: os.Getenv("CATALOG_PATH"),
		PGDSN:       os.Getenv("PG_DSN"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		BaseURL:     strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		CORSOrigins: splitList(envOr("CORS_ORIGINS", "*")),
	}
	if seed, err := strconv.ParseInt(os.Getenv("SPIN_SEED"), 10, 64); err == nil {
		cfg.Seed = seed
	}
	return cfg
}

// NewLogger builds a production zap logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(parseLevel(c.LogLevel))
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func parseLevel(v string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// markFor is the hub letter: the brand's first character, upper-cased.
func markFor(brand string) string {
	r, _ := utf8.DecodeRuneInString(brand)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
