package wheel

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is what an operator may override at startup.
type Settings struct {
	Catalog    Catalog
	RewardCode string
}

type settingsDoc struct {
	RewardCode string  `yaml:"reward_code"`
	Prizes     Catalog `yaml:"prizes"`
}

// LoadSettings reads the catalog and reward code from a YAML file.
// It always returns usable settings: on any problem it returns the built-in
// defaults together with the error, which callers only log.
func LoadSettings(path string) (Settings, error) {
	defaults := DefaultSettings()
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes a YAML settings document, falling back to defaults
// the same way LoadSettings does.
func ParseSettings(data []byte) (Settings, error) {
	defaults := DefaultSettings()
	var doc settingsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return defaults, fmt.Errorf("parse catalog: %w", err)
	}
	out := Settings{Catalog: doc.Prizes, RewardCode: strings.TrimSpace(doc.RewardCode)}
	if len(out.Catalog) == 0 {
		out.Catalog = defaults.Catalog
	} else if err := out.Catalog.Validate(); err != nil {
		return defaults, fmt.Errorf("invalid catalog: %w", err)
	}
	if out.RewardCode == "" {
		out.RewardCode = defaults.RewardCode
	}
	return out, nil
}
