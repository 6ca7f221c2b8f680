// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package models

import "time"

// SignalKind classifies an observed interaction signal.
type SignalKind string

const (
	// SignalInterest indicates expressed interest in the other person.
	SignalInterest SignalKind = "interest"
	// SignalRapport indicates an easy conversational flow.
	SignalRapport SignalKind = "rapport"
	// SignalSharedValue indicates a value both participants hold.
	SignalSharedValue SignalKind = "shared_value"
	// SignalHumor indicates shared laughter or joking.
	SignalHumor SignalKind = "humor"
	// SignalDeepConversation indicates the exchange went beyond small talk.
	SignalDeepConversation SignalKind = "deep_conversation"
)

// Valid reports whether the kind is one of the known signal kinds.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalInterest, SignalRapport, SignalSharedValue, SignalHumor, SignalDeepConversation:
		return true
	default:
		return false
	}
}

// SignalKinds lists all known kinds in a fixed order.
func SignalKinds() []SignalKind {
	return []SignalKind{
		SignalInterest,
		SignalRapport,
		SignalSharedValue,
		SignalHumor,
		SignalDeepConversation,
	}
}

// InteractionSignal is one observed, typed, strength-weighted indicator of
// connection between two participants during a round. Signals are
// directional; both directions may exist for the same pair.
type InteractionSignal struct {
	// FromProfileID is the participant the signal originated from.
	FromProfileID string `json:"from_profile_id" validate:"required"`

	// ToProfileID is the participant the signal is directed at.
	ToProfileID string `json:"to_profile_id" validate:"required,nefield=FromProfileID"`

	// Kind is the signal classification.
	Kind SignalKind `json:"kind" validate:"required,signalkind"`

	// Strength is the signal weight. The emitting collaborator is expected
	// to pre-clamp to [0,1]; this boundary is validated, not trusted.
	Strength float64 `json:"strength" validate:"gte=0,lte=1"`

	// Context is free-text describing what was observed.
	Context string `json:"context,omitempty" validate:"max=2000"`

	// RoundNumber is the round the signal was observed in, if known.
	RoundNumber int `json:"round_number,omitempty" validate:"gte=0"`

	// ObservedAt is when the signal was emitted.
	ObservedAt time.Time `json:"observed_at,omitempty"`
}
