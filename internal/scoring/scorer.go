// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package scoring converts aggregated interaction signals plus static
// profile compatibility into bounded 0-100 match scores.
//
// Scoring is a pure, synchronous computation over an immutable input
// snapshot. Every sub-score is clamped to [0,100], axes lacking data
// default to the neutral midpoint, and the overall score is a validated
// fixed-weight blend of the four axes. Identical inputs always produce
// identical scores.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/tablemix/internal/models"
	"github.com/tomtom215/tablemix/internal/signals"
)

// ErrNoSignalsAndNoProfile indicates a score request with neither a
// partner profile nor any aggregated signal data. Partial data is fine;
// total absence is not.
var ErrNoSignalsAndNoProfile = errors.New("no signals and no partner profile")

// Scorer computes match scores under one validated configuration.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer, rejecting invalid configurations.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score computes the match score between a profile and one partner given
// the aggregated signals between them. Either input may be partial;
// missing axes default to the neutral midpoint. Only a fully absent
// partner (nil profile and nil aggregate) is an error.
func (s *Scorer) Score(profile models.Participant, partner *models.Participant, pair signals.PairAggregate) (models.MatchScore, error) {
	if partner == nil && len(pair) == 0 {
		return models.MatchScore{}, fmt.Errorf("%w: partner %s", ErrNoSignalsAndNoProfile, "unknown")
	}

	sub := models.SubScores{
		ValuesAlignment:        NeutralMidpoint,
		LifestyleCompatibility: NeutralMidpoint,
		CommunicationFit:       NeutralMidpoint,
		InterestChemistry:      s.interestChemistry(pair),
	}
	partnerID := ""
	if partner != nil {
		partnerID = partner.ProfileID
		sub.ValuesAlignment = s.valuesAlignment(profile, *partner)
		sub.LifestyleCompatibility = s.lifestyleCompatibility(profile, *partner)
		sub.CommunicationFit = s.communicationFit(profile, *partner)
	}

	w := s.cfg.Weights
	overall := clamp(w.ValuesAlignment*sub.ValuesAlignment +
		w.LifestyleCompatibility*sub.LifestyleCompatibility +
		w.CommunicationFit*sub.CommunicationFit +
		w.InterestChemistry*sub.InterestChemistry)

	return models.MatchScore{
		PartnerID: partnerID,
		Overall:   round1(overall),
		SubScores: models.SubScores{
			ValuesAlignment:        round1(sub.ValuesAlignment),
			LifestyleCompatibility: round1(sub.LifestyleCompatibility),
			CommunicationFit:       round1(sub.CommunicationFit),
			InterestChemistry:      round1(sub.InterestChemistry),
		},
		Explanation: explain(sub),
	}, nil
}

// valuesAlignment scores the overlap of declared important values. A
// relationship-goal mismatch caps the axis at 50 regardless of overlap.
func (s *Scorer) valuesAlignment(profile, partner models.Participant) float64 {
	if len(profile.ImportantValues) == 0 && len(partner.ImportantValues) == 0 {
		return NeutralMidpoint
	}

	score := jaccard(profile.ImportantValues, partner.ImportantValues) * 100

	if profile.RelationshipGoal != "" && partner.RelationshipGoal != "" &&
		profile.RelationshipGoal != partner.RelationshipGoal {
		score = math.Min(score, 50)
	}
	return clamp(score)
}

// lifestyleCompatibility is the Jaccard similarity of lifestyle tag sets
// scaled to 0-100.
func (s *Scorer) lifestyleCompatibility(profile, partner models.Participant) float64 {
	if len(profile.Lifestyle) == 0 && len(partner.Lifestyle) == 0 {
		return NeutralMidpoint
	}
	return clamp(jaccard(profile.Lifestyle, partner.Lifestyle) * 100)
}

// communicationFit blends declared-tone similarity (70%) with topic
// overlap (30%).
func (s *Scorer) communicationFit(profile, partner models.Participant) float64 {
	tone := toneScore(profile.Tone, partner.Tone)

	topics := NeutralMidpoint
	if len(profile.TopicInterests) > 0 || len(partner.TopicInterests) > 0 {
		topics = jaccard(profile.TopicInterests, partner.TopicInterests) * 100
	}

	return clamp(0.7*tone + 0.3*topics)
}

// interestChemistry maps the kind-weighted total signal strength through
// a saturating curve: 100*w/(w+K). The curve is monotonically increasing
// with diminishing returns, so no single strong signal dominates. A pair
// with no signals at all scores the neutral midpoint, not zero.
func (s *Scorer) interestChemistry(pair signals.PairAggregate) float64 {
	if len(pair) == 0 {
		return NeutralMidpoint
	}
	w := pair.TotalWeighted(s.cfg.KindWeights)
	return clamp(100 * w / (w + s.cfg.SaturationK))
}

// explain names the dominant axis (or axes, when within one point of the
// top), generated deterministically from the breakdown.
func explain(sub models.SubScores) string {
	axes := []struct {
		name  string
		value float64
	}{
		{"shared values", sub.ValuesAlignment},
		{"lifestyle compatibility", sub.LifestyleCompatibility},
		{"communication fit", sub.CommunicationFit},
		{"conversation chemistry", sub.InterestChemistry},
	}

	top := axes[0].value
	for _, a := range axes[1:] {
		if a.value > top {
			top = a.value
		}
	}

	var dominant []string
	for _, a := range axes {
		if top-a.value <= 1 {
			dominant = append(dominant, a.name)
		}
	}
	sort.Strings(dominant)

	switch {
	case top >= 75:
		return "Strong match, driven by " + strings.Join(dominant, " and ") + "."
	case top >= 55:
		return "Moderate match, strongest in " + strings.Join(dominant, " and ") + "."
	default:
		return "Limited signal so far; relatively strongest in " + strings.Join(dominant, " and ") + "."
	}
}

// jaccard is |A∩B| / |A∪B| over string sets, 0 when both are empty.
func jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	inter := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// round1 rounds to one decimal place, the declared precision of all
// reported scores.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
