package wheel

import (
	"math/rand"
	"time"
)

const (
	MinExtraSpins = 8
	MaxExtraSpins = 11
)

// RNG is the randomness the selector needs. *rand.Rand satisfies it.
type RNG interface {
	Intn(n int) int
	Float64() float64
}

// NewRNG returns a math/rand source. A zero seed uses the clock.
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Outcome is the result of one spin.
type Outcome struct {
	WinningIndex   int     `json:"winningIndex"`
	ExtraSpins     int     `json:"extraSpins"`
	TargetRotation float64 `json:"targetRotation"`
}

// SelectOutcome picks a winner and the absolute rotation that lands the top
// pointer on it. The catalog must hold at least one prize.
func SelectOutcome(rng RNG, catalog Catalog, previousRotation float64) Outcome {
	idx := pickIndex(rng, catalog)
	extra := MinExtraSpins + rng.Intn(MaxExtraSpins-MinExtraSpins+1)
	return Outcome{
		WinningIndex:   idx,
		ExtraSpins:     extra,
		TargetRotation: TargetRotation(len(catalog), idx, extra, previousRotation),
	}
}

// TargetRotation returns prev + extraSpins full turns + the delta that centres
// sector idx under the pointer.
func TargetRotation(n, idx, extraSpins int, previousRotation float64) float64 {
	slice := 360 / float64(n)
	delta := (360 - float64(idx)*slice) - slice/2
	return previousRotation + float64(extraSpins)*360 + delta
}

func pickIndex(rng RNG, catalog Catalog) int {
	if !catalog.Weighted() {
		return rng.Intn(len(catalog))
	}
	r := rng.Float64() * catalog.TotalWeight()
	cumulative := 0.0
	for i, p := range catalog {
		cumulative += p.EffectiveWeight()
		if cumulative > r {
			return i
		}
	}
	// Rounding can leave r at the total.
	return len(catalog) - 1
}
