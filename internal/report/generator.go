// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package report turns a completed party's scores and signals into the
// per-profile deliverable: match scores, conversation highlights, and
// ranked follow-up recommendations for every partner the profile shared
// a table with.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tablemix/internal/models"
	"github.com/tomtom215/tablemix/internal/scoring"
	"github.com/tomtom215/tablemix/internal/signals"
)

// Report errors.
var (
	// ErrPartyNotCompleted indicates a report request before the party's
	// results were finalized.
	ErrPartyNotCompleted = errors.New("party not completed")

	// ErrUnknownProfile indicates a report request for a profile that is
	// not part of the party.
	ErrUnknownProfile = errors.New("profile not in party")

	// ErrInvalidReportType indicates an unrecognized report type.
	ErrInvalidReportType = errors.New("invalid report type")
)

// highlightLimit caps the number of highlights per partner. The cap is
// per partner, not per report, so a partner with signals always keeps
// their strongest moments regardless of how chatty other tables were.
const highlightLimit = 5

// Generator produces reports for completed parties.
type Generator struct {
	scorer *scoring.Scorer
}

// NewGenerator creates a generator that scores with the given scorer.
func NewGenerator(scorer *scoring.Scorer) *Generator {
	return &Generator{scorer: scorer}
}

// Generate builds the report for one profile of a completed party.
// Profiles maps profile id to participant record; missing partner records
// degrade to signal-only scoring rather than failing. Scores are
// recomputed deterministically, so generating twice over the same data
// yields equal scores.
func (g *Generator) Generate(party *models.Party, profiles map[string]models.Participant, agg *signals.Aggregator, profileID string, reportType models.ReportType) (*models.Report, error) {
	if party.State != models.PartyCompleted {
		return nil, fmt.Errorf("%w: party %s is %s", ErrPartyNotCompleted, party.ID, party.State)
	}
	if !reportType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReportType, reportType)
	}
	if !party.HasParticipant(profileID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, profileID)
	}

	profile := profiles[profileID]
	partners := party.Partners(profileID)

	rpt := &models.Report{
		ID:          uuid.NewString(),
		PartyID:     party.ID,
		ProfileID:   profileID,
		Type:        reportType,
		Matches:     make([]models.MatchScore, 0, len(partners)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, partnerID := range partners {
		pair := agg.PairAggregateFor(profileID, partnerID)

		var partner *models.Participant
		if p, ok := profiles[partnerID]; ok {
			partner = &p
		}

		score, err := g.scorer.Score(profile, partner, pair)
		if err != nil {
			if errors.Is(err, scoring.ErrNoSignalsAndNoProfile) {
				// A partner with no record and no signals still shared a
				// table; report them at neutral rather than omitting.
				score = neutralScore(partnerID)
			} else {
				return nil, fmt.Errorf("scoring partner %s: %w", partnerID, err)
			}
		}
		score.PartnerID = partnerID

		rpt.Matches = append(rpt.Matches, score)
		rpt.Highlights = append(rpt.Highlights, topHighlights(extractHighlights(partnerID, pair), highlightLimit)...)
		rpt.Recommendations = append(rpt.Recommendations, recommend(partnerID, score, pair, reportType))
	}

	sortHighlights(rpt.Highlights)
	return rpt, nil
}

func neutralScore(partnerID string) models.MatchScore {
	return models.MatchScore{
		PartnerID: partnerID,
		Overall:   scoring.NeutralMidpoint,
		SubScores: models.SubScores{
			ValuesAlignment:        scoring.NeutralMidpoint,
			LifestyleCompatibility: scoring.NeutralMidpoint,
			CommunicationFit:       scoring.NeutralMidpoint,
			InterestChemistry:      scoring.NeutralMidpoint,
		},
		Explanation: "No profile or signal data for this partner.",
	}
}

// extractHighlights lifts the retained signal contexts for one partner
// into highlight candidates.
func extractHighlights(partnerID string, pair signals.PairAggregate) []models.ConversationHighlight {
	var out []models.ConversationHighlight
	for _, kind := range models.SignalKinds() {
		agg, ok := pair[kind]
		if !ok {
			continue
		}
		for _, entry := range agg.Contexts {
			out = append(out, models.ConversationHighlight{
				PartnerID: partnerID,
				Kind:      kind,
				Strength:  entry.Strength,
				Text:      entry.Text,
			})
		}
	}
	return out
}

// topHighlights keeps the strongest n highlights.
func topHighlights(highlights []models.ConversationHighlight, n int) []models.ConversationHighlight {
	sortHighlights(highlights)
	if len(highlights) > n {
		highlights = highlights[:n]
	}
	return highlights
}

// sortHighlights orders by strength with deterministic tie-breaks so
// repeated generation orders equally.
func sortHighlights(highlights []models.ConversationHighlight) {
	sort.SliceStable(highlights, func(i, j int) bool {
		if highlights[i].Strength != highlights[j].Strength {
			return highlights[i].Strength > highlights[j].Strength
		}
		if highlights[i].PartnerID != highlights[j].PartnerID {
			return highlights[i].PartnerID < highlights[j].PartnerID
		}
		return highlights[i].Kind < highlights[j].Kind
	})
}

// actionRule is one threshold rule against the overall score.
type actionRule struct {
	threshold float64
	action    models.ActionType
	content   string
	rationale string

	// requiresDepth gates the rule on a shared_value or deep_conversation
	// signal being present for the pair.
	requiresDepth bool
}

// actionRules are evaluated highest threshold first; order is the rank.
var actionRules = []actionRule{
	{75, models.ActionSuggestDate, "Suggest meeting one-on-one.",
		"High overall compatibility with substantive connection signals.", true},
	{60, models.ActionSendMessage, "Send a follow-up message referencing your conversation.",
		"Good overall compatibility worth building on.", false},
	{50, models.ActionAskQuestion, "Ask a follow-up question about a shared topic.",
		"Moderate compatibility; more conversation would clarify fit.", false},
	{40, models.ActionLearnMore, "Review their profile before deciding.",
		"Weak signals so far; not enough to act on.", false},
}

var passAction = models.RecommendedAction{
	Type:      models.ActionPass,
	Content:   "No follow-up suggested.",
	Rationale: "Low overall compatibility.",
}

// recommend applies the threshold rules to one partner's score. Detailed
// reports keep every matched rule ranked by threshold; summary reports
// keep only the top match.
func recommend(partnerID string, score models.MatchScore, pair signals.PairAggregate, reportType models.ReportType) models.ActionRecommendation {
	depth := hasDepthSignal(pair)

	var actions []models.RecommendedAction
	for _, rule := range actionRules {
		if score.Overall < rule.threshold {
			continue
		}
		if rule.requiresDepth && !depth {
			continue
		}
		actions = append(actions, models.RecommendedAction{
			Type:      rule.action,
			Content:   rule.content,
			Rationale: rule.rationale,
		})
	}

	if len(actions) == 0 {
		actions = []models.RecommendedAction{passAction}
	}
	if reportType == models.ReportSummary && len(actions) > 1 {
		actions = actions[:1]
	}

	return models.ActionRecommendation{PartnerID: partnerID, Actions: actions}
}

func hasDepthSignal(pair signals.PairAggregate) bool {
	for _, kind := range []models.SignalKind{models.SignalSharedValue, models.SignalDeepConversation} {
		if agg, ok := pair[kind]; ok && agg.Count > 0 {
			return true
		}
	}
	return false
}
