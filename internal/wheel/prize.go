package wheel

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrCatalogTooSmall = errors.New("catalog needs at least 2 prizes")
	ErrInvalidWeight   = errors.New("prize weight must be positive")
	ErrEmptyLabel      = errors.New("prize label is empty")
)

// Prize is one sector of the wheel.
type Prize struct {
	Label  string  `yaml:"label" json:"label"`
	Color  string  `yaml:"color" json:"color"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// EffectiveWeight returns the selection weight, treating an unset weight as 1.
func (p Prize) EffectiveWeight() float64 {
	if p.Weight == 0 {
		return 1
	}
	return p.Weight
}

// Catalog is the ordered list of prizes. Sector i on the wheel is Catalog[i].
type Catalog []Prize

// Validate checks the catalog can drive a spin.
func (c Catalog) Validate() error {
	if len(c) < 2 {
		return ErrCatalogTooSmall
	}
	for i, p := range c {
		if p.Label == "" {
			return fmt.Errorf("prize %d: %w", i, ErrEmptyLabel)
		}
		if p.Weight < 0 {
			return fmt.Errorf("prize %d (%s): %w", i, p.Label, ErrInvalidWeight)
		}
	}
	return nil
}

// SliceAngle is the angular width of every sector in degrees.
// Weights never change it.
func (c Catalog) SliceAngle() float64 {
	return 360 / float64(len(c))
}

// Weighted reports whether the prizes carry differing weights.
func (c Catalog) Weighted() bool {
	if len(c) == 0 {
		return false
	}
	first := c[0].EffectiveWeight()
	for _, p := range c[1:] {
		if p.EffectiveWeight() != first {
			return true
		}
	}
	return false
}

// TotalWeight sums the effective weights.
func (c Catalog) TotalWeight() float64 {
	total := 0.0
	for _, p := range c {
		total += p.EffectiveWeight()
	}
	return total
}

// Labels returns the prize labels in wheel order.
func (c Catalog) Labels() []string {
	out := make([]string, 0, len(c))
	for _, p := range c {
		out = append(out, p.Label)
	}
	return out
}

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

var (
	defaultOnce     sync.Once
	defaultSettings Settings
)

// DefaultSettings returns the built-in catalog and reward code.
func DefaultSettings() Settings {
	defaultOnce.Do(func() {
		var doc settingsDoc
		if err := yaml.Unmarshal(defaultCatalogYAML, &doc); err != nil {
			panic("wheel: embedded default catalog: " + err.Error())
		}
		defaultSettings = Settings{Catalog: doc.Prizes, RewardCode: doc.RewardCode}
		if err := defaultSettings.Catalog.Validate(); err != nil {
			panic("wheel: embedded default catalog: " + err.Error())
		}
	})
	out := defaultSettings
	out.Catalog = append(Catalog(nil), defaultSettings.Catalog...)
	return out
}

// DefaultCatalog returns a copy of the built-in catalog.
func DefaultCatalog() Catalog {
	return DefaultSettings().Catalog
}
