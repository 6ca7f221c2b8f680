// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package signals accumulates interaction signals emitted during and
// after party rounds.
//
// Aggregates are kept per unordered participant pair, per signal kind,
// as a running count and strength sum: repeated weak signals of the same
// kind reinforce rather than replace each other. Each aggregator owns the
// state for exactly one party and serializes submissions with a single
// mutex, since the count/strength merge is a read-modify-write that is
// not safe under unsynchronized concurrency. Because the merge itself is
// additive, arrival order does not affect the final aggregate.
package signals

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/tablemix/internal/models"
)

// Aggregation errors.
var (
	// ErrUnknownParticipant indicates a signal referencing a profile that
	// is not part of the party's participant set.
	ErrUnknownParticipant = errors.New("unknown participant")

	// ErrInvalidSignal indicates a malformed signal (bad kind, strength
	// outside [0,1], or missing endpoint).
	ErrInvalidSignal = errors.New("invalid signal")
)

// KindAggregate is the running aggregate for one (pair, kind) slot.
type KindAggregate struct {
	// Count is how many signals of this kind were recorded for the pair.
	Count int `json:"count"`

	// StrengthSum is the additive total of the recorded strengths.
	StrengthSum float64 `json:"strength_sum"`

	// Contexts holds the non-empty context strings with their strengths,
	// in arrival order, for highlight extraction.
	Contexts []ContextEntry `json:"contexts,omitempty"`
}

// ContextEntry is one retained signal context with its strength.
type ContextEntry struct {
	Strength float64 `json:"strength"`
	Text     string  `json:"text"`
}

// PairAggregate is the per-kind aggregate map for one unordered pair.
type PairAggregate map[models.SignalKind]*KindAggregate

// TotalWeighted returns the kind-weighted total strength of the pair
// using the given per-kind weights. Kinds without a weight count at 1.
func (p PairAggregate) TotalWeighted(weights map[models.SignalKind]float64) float64 {
	total := 0.0
	for kind, agg := range p {
		w, ok := weights[kind]
		if !ok {
			w = 1.0
		}
		total += w * agg.StrengthSum
	}
	return total
}

// Aggregator accumulates signals for one party. It serializes concurrent
// submissions; reads return deep copies so callers never observe
// in-flight mutation.
type Aggregator struct {
	mu sync.Mutex

	// participants is the party's fixed participant set.
	participants map[string]struct{}

	// pairs is keyed by models.PairKey.
	pairs map[string]PairAggregate
}

// NewAggregator creates an aggregator bound to the party's participant
// set. Signals referencing any other profile are rejected.
func NewAggregator(participantIDs []string) *Aggregator {
	set := make(map[string]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		set[id] = struct{}{}
	}
	return &Aggregator{
		participants: set,
		pairs:        make(map[string]PairAggregate),
	}
}

// Record merges one signal into the pair aggregate. The signal is fully
// validated before any state changes, so a rejected signal leaves the
// aggregate untouched.
func (a *Aggregator) Record(sig models.InteractionSignal) error {
	if err := a.validate(sig); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := models.PairKey(sig.FromProfileID, sig.ToProfileID)
	pair, ok := a.pairs[key]
	if !ok {
		pair = make(PairAggregate)
		a.pairs[key] = pair
	}

	agg, ok := pair[sig.Kind]
	if !ok {
		agg = &KindAggregate{}
		pair[sig.Kind] = agg
	}

	agg.Count++
	agg.StrengthSum += sig.Strength
	if sig.Context != "" {
		agg.Contexts = append(agg.Contexts, ContextEntry{Strength: sig.Strength, Text: sig.Context})
	}

	return nil
}

// Validate checks a signal against the aggregator's rules without
// recording it. Callers that persist signals before merging use this to
// reject up front and keep the live aggregate aligned with storage.
func (a *Aggregator) Validate(sig models.InteractionSignal) error {
	return a.validate(sig)
}

func (a *Aggregator) validate(sig models.InteractionSignal) error {
	if sig.FromProfileID == "" || sig.ToProfileID == "" {
		return fmt.Errorf("%w: both endpoints are required", ErrInvalidSignal)
	}
	if sig.FromProfileID == sig.ToProfileID {
		return fmt.Errorf("%w: signal endpoints must differ", ErrInvalidSignal)
	}
	if !sig.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSignal, sig.Kind)
	}
	if sig.Strength < 0 || sig.Strength > 1 {
		return fmt.Errorf("%w: strength %v outside [0,1]", ErrInvalidSignal, sig.Strength)
	}
	if _, ok := a.participants[sig.FromProfileID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, sig.FromProfileID)
	}
	if _, ok := a.participants[sig.ToProfileID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, sig.ToProfileID)
	}
	return nil
}

// PartnerAggregates returns the aggregate signal map for the given
// profile, keyed by partner id. The result is a deep copy.
func (a *Aggregator) PartnerAggregates(profileID string) map[string]PairAggregate {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]PairAggregate)
	for other := range a.participants {
		if other == profileID {
			continue
		}
		if pair, ok := a.pairs[models.PairKey(profileID, other)]; ok {
			out[other] = copyPair(pair)
		}
	}
	return out
}

// PairAggregateFor returns the deep-copied aggregate for one unordered
// pair, or nil when no signals were recorded between them.
func (a *Aggregator) PairAggregateFor(profileID, partnerID string) PairAggregate {
	a.mu.Lock()
	defer a.mu.Unlock()

	pair, ok := a.pairs[models.PairKey(profileID, partnerID)]
	if !ok {
		return nil
	}
	return copyPair(pair)
}

func copyPair(pair PairAggregate) PairAggregate {
	out := make(PairAggregate, len(pair))
	for kind, agg := range pair {
		cp := &KindAggregate{
			Count:       agg.Count,
			StrengthSum: agg.StrengthSum,
		}
		if len(agg.Contexts) > 0 {
			cp.Contexts = make([]ContextEntry, len(agg.Contexts))
			copy(cp.Contexts, agg.Contexts)
		}
		out[kind] = cp
	}
	return out
}

// Registry hands out one aggregator per party id. Aggregators are created
// lazily on first use and live until the registry drops them.
type Registry struct {
	mu          sync.Mutex
	aggregators map[string]*Aggregator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{aggregators: make(map[string]*Aggregator)}
}

// For returns the aggregator for the party, creating it bound to the
// given participant set on first use.
func (r *Registry) For(partyID string, participantIDs []string) *Aggregator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if agg, ok := r.aggregators[partyID]; ok {
		return agg
	}
	agg := NewAggregator(participantIDs)
	r.aggregators[partyID] = agg
	return agg
}

// Drop releases the aggregator for a party, typically after completion
// once its signals have been persisted.
func (r *Registry) Drop(partyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.aggregators, partyID)
}
