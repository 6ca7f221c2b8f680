// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package scoring

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tomtom215/tablemix/internal/models"
	"github.com/tomtom215/tablemix/internal/signals"
)

func defaultScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewScorer() error: %v", err)
	}
	return s
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"default", DefaultWeights(), false},
		{"uneven but valid", Weights{0.4, 0.2, 0.2, 0.2}, false},
		{"sum below one", Weights{0.25, 0.25, 0.25, 0.1}, true},
		{"sum above one", Weights{0.5, 0.5, 0.5, 0.5}, true},
		{"negative entry", Weights{1.2, -0.2, 0.0, 0.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidWeights) {
				t.Errorf("Validate() = %v, want ErrInvalidWeights", err)
			}
		})
	}
}

func TestNewScorerRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SaturationK = 0
	if _, err := NewScorer(cfg); !errors.Is(err, ErrInvalidWeights) {
		t.Fatalf("NewScorer() = %v, want ErrInvalidWeights", err)
	}
}

func TestScoreRequiresProfileOrSignals(t *testing.T) {
	s := defaultScorer(t)

	_, err := s.Score(models.Participant{ProfileID: "a"}, nil, nil)
	if !errors.Is(err, ErrNoSignalsAndNoProfile) {
		t.Fatalf("Score() = %v, want ErrNoSignalsAndNoProfile", err)
	}
}

func TestScoreAllDataMissingIsNeutral(t *testing.T) {
	s := defaultScorer(t)

	// A partner profile exists but carries no attributes, and no signals
	// were exchanged: every axis is the neutral midpoint.
	score, err := s.Score(models.Participant{ProfileID: "a"}, &models.Participant{ProfileID: "b"}, nil)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	want := models.SubScores{
		ValuesAlignment:        NeutralMidpoint,
		LifestyleCompatibility: NeutralMidpoint,
		CommunicationFit:       NeutralMidpoint,
		InterestChemistry:      NeutralMidpoint,
	}
	if !reflect.DeepEqual(score.SubScores, want) {
		t.Errorf("SubScores = %+v, want all neutral", score.SubScores)
	}
	if score.Overall != NeutralMidpoint {
		t.Errorf("Overall = %v, want %v", score.Overall, NeutralMidpoint)
	}
}

func TestScoreBoundsAlwaysHeld(t *testing.T) {
	s := defaultScorer(t)

	profile := models.Participant{
		ProfileID:        "a",
		ImportantValues:  []string{"honesty", "adventure"},
		RelationshipGoal: "long_term",
		Lifestyle:        []string{"early_riser", "vegan"},
		Tone:             "playful",
		TopicInterests:   []string{"hiking", "film"},
	}
	partner := models.Participant{
		ProfileID:        "b",
		ImportantValues:  []string{"honesty", "adventure"},
		RelationshipGoal: "long_term",
		Lifestyle:        []string{"early_riser", "vegan"},
		Tone:             "playful",
		TopicInterests:   []string{"hiking", "film"},
	}

	// Saturate every axis: identical profiles plus a pile of max-strength
	// signals.
	pair := signals.PairAggregate{
		models.SignalSharedValue:      &signals.KindAggregate{Count: 10, StrengthSum: 10},
		models.SignalDeepConversation: &signals.KindAggregate{Count: 10, StrengthSum: 10},
	}

	score, err := s.Score(profile, &partner, pair)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	for name, v := range map[string]float64{
		"overall":                 score.Overall,
		"values_alignment":        score.SubScores.ValuesAlignment,
		"lifestyle_compatibility": score.SubScores.LifestyleCompatibility,
		"communication_fit":       score.SubScores.CommunicationFit,
		"interest_chemistry":      score.SubScores.InterestChemistry,
	} {
		if v < 0 || v > 100 {
			t.Errorf("%s = %v outside [0,100]", name, v)
		}
	}
	if score.SubScores.ValuesAlignment != 100 {
		t.Errorf("identical values should score 100, got %v", score.SubScores.ValuesAlignment)
	}
}

func TestScoreGoalMismatchCapsValues(t *testing.T) {
	s := defaultScorer(t)

	profile := models.Participant{
		ProfileID:        "a",
		ImportantValues:  []string{"honesty", "family"},
		RelationshipGoal: "long_term",
	}
	partner := models.Participant{
		ProfileID:        "b",
		ImportantValues:  []string{"honesty", "family"},
		RelationshipGoal: "casual",
	}

	score, err := s.Score(profile, &partner, nil)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if score.SubScores.ValuesAlignment > 50 {
		t.Errorf("ValuesAlignment = %v, want capped at 50 on goal mismatch", score.SubScores.ValuesAlignment)
	}
}

func TestScoreChemistryExceedsNeutralWithSignals(t *testing.T) {
	s := defaultScorer(t)

	// One shared table: shared_value 0.8 plus deep_conversation 0.6.
	pair := signals.PairAggregate{
		models.SignalSharedValue:      &signals.KindAggregate{Count: 1, StrengthSum: 0.8},
		models.SignalDeepConversation: &signals.KindAggregate{Count: 1, StrengthSum: 0.6},
	}

	withSignals, err := s.Score(models.Participant{ProfileID: "a"}, &models.Participant{ProfileID: "b"}, pair)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	noSignals, err := s.Score(models.Participant{ProfileID: "a"}, &models.Participant{ProfileID: "c"}, nil)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	if withSignals.SubScores.InterestChemistry <= NeutralMidpoint {
		t.Errorf("InterestChemistry = %v, want above the neutral midpoint", withSignals.SubScores.InterestChemistry)
	}
	if withSignals.SubScores.InterestChemistry <= noSignals.SubScores.InterestChemistry {
		t.Errorf("chemistry with signals (%v) must exceed a zero-signal pair (%v)",
			withSignals.SubScores.InterestChemistry, noSignals.SubScores.InterestChemistry)
	}
}

func TestScoreChemistrySaturates(t *testing.T) {
	s := defaultScorer(t)

	small := signals.PairAggregate{
		models.SignalRapport: &signals.KindAggregate{Count: 1, StrengthSum: 1},
	}
	large := signals.PairAggregate{
		models.SignalRapport: &signals.KindAggregate{Count: 100, StrengthSum: 100},
	}

	a, _ := s.Score(models.Participant{ProfileID: "a"}, nil, small)
	b, _ := s.Score(models.Participant{ProfileID: "a"}, nil, large)

	if b.SubScores.InterestChemistry <= a.SubScores.InterestChemistry {
		t.Error("chemistry is not monotonically increasing in signal strength")
	}
	if b.SubScores.InterestChemistry > 100 {
		t.Errorf("chemistry %v exceeds 100; saturation failed", b.SubScores.InterestChemistry)
	}
}

func TestScoreCommunicationFit(t *testing.T) {
	s := defaultScorer(t)

	tests := []struct {
		name           string
		toneA, toneB   string
		wantToneScore  float64
	}{
		{"exact match", "playful", "playful", 100},
		{"compatible pair", "playful", "thoughtful", 70},
		{"incompatible", "direct", "playful", 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := models.Participant{ProfileID: "a", Tone: tt.toneA}
			partner := models.Participant{ProfileID: "b", Tone: tt.toneB}

			score, err := s.Score(profile, &partner, nil)
			if err != nil {
				t.Fatalf("Score() error: %v", err)
			}
			// No topics declared: fit is 0.7*tone + 0.3*midpoint.
			want := round1(0.7*tt.wantToneScore + 0.3*NeutralMidpoint)
			if score.SubScores.CommunicationFit != want {
				t.Errorf("CommunicationFit = %v, want %v", score.SubScores.CommunicationFit, want)
			}
		})
	}
}

func TestScoreDeterminism(t *testing.T) {
	s := defaultScorer(t)

	profile := models.Participant{ProfileID: "a", ImportantValues: []string{"growth"}, Tone: "direct"}
	partner := models.Participant{ProfileID: "b", ImportantValues: []string{"growth", "family"}, Tone: "thoughtful"}
	pair := signals.PairAggregate{
		models.SignalHumor: &signals.KindAggregate{Count: 2, StrengthSum: 1.1},
	}

	first, err := s.Score(profile, &partner, pair)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	second, err := s.Score(profile, &partner, pair)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different scores:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first.Explanation == "" {
		t.Error("Explanation is empty")
	}
}
