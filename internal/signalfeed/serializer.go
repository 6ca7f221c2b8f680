// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package signalfeed consumes InteractionSignal events emitted by the
// conversation-simulation collaborator over NATS JetStream and feeds
// them into the party engine. Consumption is durable with explicit
// ack/nack; malformed events are acked and counted rather than
// redelivered forever, while transient engine failures nack for retry.
package signalfeed

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tablemix/internal/models"
)

// ErrInvalidEvent indicates a feed event that cannot be processed.
var ErrInvalidEvent = errors.New("invalid signal event")

// SignalEvent is the wire shape of one interaction signal on the feed.
type SignalEvent struct {
	// PartyID routes the signal to its party.
	PartyID string `json:"party_id"`

	// Signal is the observed interaction.
	Signal models.InteractionSignal `json:"signal"`
}

// Validate checks the event shape before it reaches the engine.
func (e *SignalEvent) Validate() error {
	if e.PartyID == "" {
		return fmt.Errorf("%w: party_id is required", ErrInvalidEvent)
	}
	if e.Signal.FromProfileID == "" || e.Signal.ToProfileID == "" {
		return fmt.Errorf("%w: both signal endpoints are required", ErrInvalidEvent)
	}
	if !e.Signal.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Signal.Kind)
	}
	if e.Signal.Strength < 0 || e.Signal.Strength > 1 {
		return fmt.Errorf("%w: strength %v outside [0,1]", ErrInvalidEvent, e.Signal.Strength)
	}
	return nil
}

// Serializer handles event encoding/decoding for NATS messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal converts an event to JSON bytes.
func (s *Serializer) Marshal(event *SignalEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal converts JSON bytes to a validated event.
func (s *Serializer) Unmarshal(data []byte) (*SignalEvent, error) {
	var event SignalEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}
