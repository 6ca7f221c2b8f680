// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package conversation derives per-table discussion context from table
// assignments and participant records. Building a context is a pure
// function of its inputs with no randomness or I/O, so identical inputs
// always produce identical output.
package conversation

import (
	"fmt"

	"github.com/tomtom215/tablemix/internal/models"
)

// defaultTopicCap bounds the suggested-topic list when the participants'
// interests have no common element and the union is used instead.
const defaultTopicCap = 5

// fallbackTopics seeds the suggestion list when no seated participant
// declared any topic interest at all.
var fallbackTopics = []string{"travel", "food", "what you're reading"}

// icebreakerTemplates maps a dominant shared value or tone to an opener.
// Selection is keyed, not random, to keep context building reproducible.
var icebreakerTemplates = map[string]string{
	"honesty":      "What's something you believe that most people disagree with?",
	"adventure":    "What's the most spontaneous thing you've done this year?",
	"family":       "Who in your life shaped you the most, and how?",
	"creativity":   "What's something you made recently that you're proud of?",
	"kindness":     "What's the nicest thing a stranger has ever done for you?",
	"ambition":     "What's one goal you're chasing right now?",
	"growth":       "What's something you changed your mind about recently?",
	"humor":        "What's the last thing that made you laugh out loud?",
	"playful":      "If this table had a team name, what would it be?",
	"direct":       "First impressions: what do you think each of us does for a living?",
	"thoughtful":   "What's a question you wish people asked you more often?",
	"enthusiastic": "What could you talk about for an hour without notes?",
}

// defaultIcebreaker is used when no template key matches the table.
const defaultIcebreaker = "What brought each of you here tonight?"

// Builder derives conversation contexts for scheduled tables.
type Builder struct {
	topicCap int
}

// NewBuilder creates a builder with the default topic cap.
func NewBuilder() *Builder {
	return &Builder{topicCap: defaultTopicCap}
}

// Build derives the conversation context for one table. The participants
// slice must contain a record for every seated profile id; missing records
// are skipped rather than failing, since context is advisory.
func (b *Builder) Build(table models.TableAssignment, participants []models.Participant) models.ConversationContext {
	seated := seatedParticipants(table, participants)

	return models.ConversationContext{
		TableID:         table.TableID,
		Participants:    b.participantContexts(seated),
		SuggestedTopics: b.suggestTopics(seated),
		Icebreaker:      b.pickIcebreaker(seated),
	}
}

// BuildRound derives one context per table in the round, in table order.
func (b *Builder) BuildRound(tables []models.TableAssignment, participants []models.Participant) []models.ConversationContext {
	contexts := make([]models.ConversationContext, 0, len(tables))
	for _, table := range tables {
		contexts = append(contexts, b.Build(table, participants))
	}
	return contexts
}

// seatedParticipants resolves the table's profile ids against the record
// set, preserving seating order.
func seatedParticipants(table models.TableAssignment, participants []models.Participant) []models.Participant {
	byID := make(map[string]models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ProfileID] = p
	}

	seated := make([]models.Participant, 0, len(table.ProfileIDs))
	for _, id := range table.ProfileIDs {
		if p, ok := byID[id]; ok {
			seated = append(seated, p)
		}
	}
	return seated
}

// suggestTopics returns the intersection of the seated participants'
// topic interests, or the capped union when the intersection is empty.
// Order follows the first declaring participant so output is stable.
func (b *Builder) suggestTopics(seated []models.Participant) []string {
	counts := make(map[string]int)
	var order []string

	declaring := 0
	for _, p := range seated {
		if len(p.TopicInterests) == 0 {
			continue
		}
		declaring++
		seen := make(map[string]struct{}, len(p.TopicInterests))
		for _, topic := range p.TopicInterests {
			if _, dup := seen[topic]; dup {
				continue
			}
			seen[topic] = struct{}{}
			if counts[topic] == 0 {
				order = append(order, topic)
			}
			counts[topic]++
		}
	}

	if declaring == 0 {
		return append([]string(nil), fallbackTopics...)
	}

	var intersection []string
	for _, topic := range order {
		if counts[topic] == declaring && declaring > 1 {
			intersection = append(intersection, topic)
		}
	}
	if len(intersection) > 0 {
		return intersection
	}

	if len(order) > b.topicCap {
		order = order[:b.topicCap]
	}
	return order
}

// pickIcebreaker selects the opener template keyed by the dominant shared
// value among seated participants, falling back to the dominant tone and
// then to the default opener. Ties break lexicographically.
func (b *Builder) pickIcebreaker(seated []models.Participant) string {
	if key := dominantKey(seated, func(p models.Participant) []string { return p.ImportantValues }); key != "" {
		if tmpl, ok := icebreakerTemplates[key]; ok {
			return tmpl
		}
	}
	if key := dominantKey(seated, func(p models.Participant) []string {
		if p.Tone == "" {
			return nil
		}
		return []string{p.Tone}
	}); key != "" {
		if tmpl, ok := icebreakerTemplates[key]; ok {
			return tmpl
		}
	}
	return defaultIcebreaker
}

// dominantKey returns the most frequent attribute shared by at least two
// seated participants, ties broken lexicographically. Empty when nothing
// is shared.
func dominantKey(seated []models.Participant, attr func(models.Participant) []string) string {
	counts := make(map[string]int)
	for _, p := range seated {
		seen := make(map[string]struct{})
		for _, v := range attr(p) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			counts[v]++
		}
	}

	best, bestCount := "", 1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && n > 1 && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// participantContexts builds the per-participant slices: for each seated
// participant, the topics at least one other seated participant shares.
func (b *Builder) participantContexts(seated []models.Participant) []models.ParticipantContext {
	contexts := make([]models.ParticipantContext, 0, len(seated))

	for i, p := range seated {
		var shared []string
		for _, topic := range p.TopicInterests {
			for j, other := range seated {
				if j == i {
					continue
				}
				if containsTopic(other.TopicInterests, topic) {
					shared = append(shared, topic)
					break
				}
			}
		}

		name := p.DisplayName
		if name == "" {
			name = fmt.Sprintf("Guest %d", i+1)
		}

		contexts = append(contexts, models.ParticipantContext{
			ProfileID:    p.ProfileID,
			DisplayName:  name,
			SharedTopics: shared,
		})
	}

	return contexts
}

func containsTopic(topics []string, topic string) bool {
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}
