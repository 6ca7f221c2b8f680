// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/tablemix/internal/models"
)

// ErrInvalidWeights indicates sub-score weights that do not sum to 1 or
// contain negative entries.
var ErrInvalidWeights = errors.New("invalid score weights")

// NeutralMidpoint is the sub-score used when an axis has no data to
// compute from. Missing data is neutral, never null and never zero.
const NeutralMidpoint = 50.0

// weightTolerance absorbs float rounding when checking the sum.
const weightTolerance = 1e-6

// Weights is the fixed-weight blend of the four sub-scores into the
// overall score. Weights must be non-negative and sum to 1.
type Weights struct {
	ValuesAlignment        float64 `json:"values_alignment" koanf:"values_alignment"`
	LifestyleCompatibility float64 `json:"lifestyle_compatibility" koanf:"lifestyle_compatibility"`
	CommunicationFit       float64 `json:"communication_fit" koanf:"communication_fit"`
	InterestChemistry      float64 `json:"interest_chemistry" koanf:"interest_chemistry"`
}

// DefaultWeights returns the equal-weight blend.
func DefaultWeights() Weights {
	return Weights{
		ValuesAlignment:        0.25,
		LifestyleCompatibility: 0.25,
		CommunicationFit:       0.25,
		InterestChemistry:      0.25,
	}
}

// Validate checks that the weights form a proper convex combination.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"values_alignment":        w.ValuesAlignment,
		"lifestyle_compatibility": w.LifestyleCompatibility,
		"communication_fit":       w.CommunicationFit,
		"interest_chemistry":      w.InterestChemistry,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s is negative (%v)", ErrInvalidWeights, name, v)
		}
	}

	sum := w.ValuesAlignment + w.LifestyleCompatibility + w.CommunicationFit + w.InterestChemistry
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, must sum to 1", ErrInvalidWeights, sum)
	}
	return nil
}

// Config carries the full scoring parameterization. It is passed
// explicitly into each scorer rather than read from ambient settings so
// scoring runs are reproducible.
type Config struct {
	// Weights blends the four sub-scores into the overall score.
	Weights Weights `json:"weights" koanf:"weights"`

	// SaturationK shapes the chemistry curve 100*w/(w+K): higher K means
	// more total weighted strength is needed to approach 100.
	SaturationK float64 `json:"saturation_k" koanf:"saturation_k"`

	// KindWeights scales each signal kind's contribution to the weighted
	// strength total.
	KindWeights map[models.SignalKind]float64 `json:"kind_weights" koanf:"kind_weights"`
}

// DefaultConfig returns the standard scoring parameterization: equal
// sub-score weights, saturation constant 2, and kind weights favoring
// shared values and deep conversation over humor and surface interest.
func DefaultConfig() Config {
	return Config{
		Weights:     DefaultWeights(),
		SaturationK: 2.0,
		KindWeights: map[models.SignalKind]float64{
			models.SignalSharedValue:      1.5,
			models.SignalDeepConversation: 1.4,
			models.SignalRapport:          1.0,
			models.SignalInterest:         0.8,
			models.SignalHumor:            0.7,
		},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.SaturationK <= 0 {
		return fmt.Errorf("%w: saturation_k must be positive, got %v", ErrInvalidWeights, c.SaturationK)
	}
	for kind, w := range c.KindWeights {
		if !kind.Valid() {
			return fmt.Errorf("%w: unknown signal kind %q", ErrInvalidWeights, kind)
		}
		if w < 0 {
			return fmt.Errorf("%w: kind weight for %q is negative", ErrInvalidWeights, kind)
		}
	}
	return nil
}

// toneCompatibility maps declared tone pairs that work well together but
// are not identical. Keys use models.PairKey ordering.
var toneCompatibility = map[string]struct{}{
	"playful|thoughtful":   {},
	"direct|thoughtful":    {},
	"enthusiastic|playful": {},
	"direct|enthusiastic":  {},
}

// toneScore rates declared tones: exact match 100, compatible pair 70,
// anything else 40. Unknown (empty) tones yield the neutral midpoint.
func toneScore(a, b string) float64 {
	if a == "" || b == "" {
		return NeutralMidpoint
	}
	if a == b {
		return 100
	}
	if _, ok := toneCompatibility[models.PairKey(a, b)]; ok {
		return 70
	}
	return 40
}
