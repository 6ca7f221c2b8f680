// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package models

import "time"

// PartyState represents the lifecycle state of a party.
type PartyState string

const (
	// PartyScheduled is the initial state after creation.
	PartyScheduled PartyState = "scheduled"
	// PartyInProgress is entered when round 1 is scheduled.
	PartyInProgress PartyState = "in_progress"
	// PartyCompleted is the terminal state; results are immutable after it.
	PartyCompleted PartyState = "completed"
)

// Valid reports whether the state is one of the known lifecycle states.
func (s PartyState) Valid() bool {
	switch s {
	case PartyScheduled, PartyInProgress, PartyCompleted:
		return true
	default:
		return false
	}
}

// Participant is one attendee of a party. The record is immutable for the
// duration of the event; only the attributes relevant to scheduling and
// scoring are carried here.
type Participant struct {
	// ProfileID is the opaque profile identifier supplied by the caller.
	ProfileID string `json:"profile_id"`

	// DisplayName is the participant's visible name.
	DisplayName string `json:"display_name"`

	// Persona is a fixed free-text descriptor of the participant.
	Persona string `json:"persona,omitempty"`

	// ImportantValues are the values the participant ranked as important.
	ImportantValues []string `json:"important_values,omitempty"`

	// RelationshipGoal is the declared goal (e.g. "long_term", "casual").
	RelationshipGoal string `json:"relationship_goal,omitempty"`

	// Lifestyle is a set of lifestyle tags (e.g. "early_riser", "vegan").
	Lifestyle []string `json:"lifestyle,omitempty"`

	// Tone is the declared communication tone (e.g. "playful", "direct").
	Tone string `json:"tone,omitempty"`

	// TopicInterests are conversation topics the participant cares about.
	TopicInterests []string `json:"topic_interests,omitempty"`
}

// TableAssignment seats an ordered set of participants at one table for
// one round. A participant appears in exactly one table per round.
type TableAssignment struct {
	// TableID is unique within a round (1-based).
	TableID int `json:"table_id"`

	// ProfileIDs are the seated participants in deterministic order.
	ProfileIDs []string `json:"profile_ids"`
}

// RoundResult is the full table structure for one round of a party.
type RoundResult struct {
	// RoundNumber is 1-based and contiguous within a party.
	RoundNumber int `json:"round_number"`

	// Tables partition every participant exactly once.
	Tables []TableAssignment `json:"tables"`

	// Contexts holds one conversation context per table, in table order.
	Contexts []ConversationContext `json:"contexts,omitempty"`
}

// ParticipantContext is the per-participant slice of a conversation
// context: the preferences relevant to the people actually at the table.
type ParticipantContext struct {
	ProfileID   string `json:"profile_id"`
	DisplayName string `json:"display_name"`

	// SharedTopics are the participant's topic interests that at least one
	// other seated participant also declared.
	SharedTopics []string `json:"shared_topics,omitempty"`
}

// ConversationContext is the derived discussion context for one table.
type ConversationContext struct {
	TableID int `json:"table_id"`

	// Participants are the per-participant contexts in seating order.
	Participants []ParticipantContext `json:"participants"`

	// SuggestedTopics is non-empty: the intersection of the seated
	// participants' topic interests, or a capped union when the
	// intersection is empty.
	SuggestedTopics []string `json:"suggested_topics"`

	// Icebreaker is a deterministic opener selected from a template pool.
	Icebreaker string `json:"icebreaker"`
}

// PartyResults accumulates round results and signals for one party.
// Rounds are append-only; the whole structure becomes immutable once the
// party transitions to completed.
type PartyResults struct {
	Rounds  []RoundResult       `json:"rounds"`
	Signals []InteractionSignal `json:"signals"`
}

// Party is one scheduled multi-round social mixer event.
type Party struct {
	// ID is the opaque party identifier.
	ID string `json:"id"`

	// Name is a human-readable event name.
	Name string `json:"name,omitempty"`

	// State is the current lifecycle state.
	State PartyState `json:"state"`

	// ParticipantIDs is the normalized (deduplicated, order-preserving)
	// participant list fixed at scheduling time.
	ParticipantIDs []string `json:"participant_ids"`

	// RoundCount is the number of rounds the party was scheduled for.
	RoundCount int `json:"round_count,omitempty"`

	// MinTableSize and MaxTableSize are the table-size bounds used by the
	// scheduler for this party.
	MinTableSize int `json:"min_table_size,omitempty"`
	MaxTableSize int `json:"max_table_size,omitempty"`

	// Results holds the accumulated rounds and signals.
	Results PartyResults `json:"results"`

	// CoOccurrence is the symmetric pair co-occurrence matrix produced by
	// the scheduler, keyed by PairKey. Exposed for inspection and testing.
	CoOccurrence map[string]int `json:"co_occurrence,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// HasParticipant reports whether the profile id is part of the party.
func (p *Party) HasParticipant(profileID string) bool {
	for _, id := range p.ParticipantIDs {
		if id == profileID {
			return true
		}
	}
	return false
}

// Partners returns the profile ids that shared at least one table with
// the given profile across all rounds, in first-encounter order.
func (p *Party) Partners(profileID string) []string {
	seen := make(map[string]struct{})
	var partners []string

	for _, round := range p.Results.Rounds {
		for _, table := range round.Tables {
			if !containsID(table.ProfileIDs, profileID) {
				continue
			}
			for _, id := range table.ProfileIDs {
				if id == profileID {
					continue
				}
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				partners = append(partners, id)
			}
		}
	}

	return partners
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// PairKey returns the canonical key for an unordered profile pair.
// The smaller id sorts first so both directions map to the same key.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
