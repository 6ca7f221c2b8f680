// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package models

import "time"

// SubScores is the four-axis breakdown of a match score. Each axis is
// clamped to [0,100]; axes lacking data default to the neutral midpoint.
type SubScores struct {
	ValuesAlignment        float64 `json:"values_alignment"`
	LifestyleCompatibility float64 `json:"lifestyle_compatibility"`
	CommunicationFit       float64 `json:"communication_fit"`
	InterestChemistry      float64 `json:"interest_chemistry"`
}

// MatchScore is the derived 0-100 compatibility measure between the report
// subject and one partner. Scores are created once per report and never
// mutated; recomputation produces a new report.
type MatchScore struct {
	// PartnerID is the partner this score describes.
	PartnerID string `json:"partner_id"`

	// Overall is the weighted average of the four sub-scores, 0-100.
	Overall float64 `json:"overall"`

	// SubScores is the per-axis breakdown.
	SubScores SubScores `json:"sub_scores"`

	// Explanation describes which sub-scores dominate, generated
	// deterministically from the breakdown.
	Explanation string `json:"explanation"`
}

// ConversationHighlight is a notable moment extracted from signal context
// text, ranked by signal strength.
type ConversationHighlight struct {
	PartnerID string     `json:"partner_id"`
	Kind      SignalKind `json:"kind"`
	Strength  float64    `json:"strength"`
	Text      string     `json:"text"`
}

// ActionType enumerates the recommendable follow-up actions.
type ActionType string

const (
	ActionSendMessage ActionType = "send_message"
	ActionAskQuestion ActionType = "ask_question"
	ActionSuggestDate ActionType = "suggest_date"
	ActionLearnMore   ActionType = "learn_more"
	ActionPass        ActionType = "pass"
)

// RecommendedAction is one ranked follow-up suggestion for a partner.
type RecommendedAction struct {
	Type      ActionType `json:"type"`
	Content   string     `json:"content"`
	Rationale string     `json:"rationale"`
}

// ActionRecommendation bundles the ranked actions for one partner.
type ActionRecommendation struct {
	PartnerID string              `json:"partner_id"`
	Actions   []RecommendedAction `json:"actions"`
}

// ReportType selects report depth.
type ReportType string

const (
	// ReportSummary returns only the top action per partner.
	ReportSummary ReportType = "summary"
	// ReportDetailed returns all matched action rules, ranked.
	ReportDetailed ReportType = "detailed"
)

// Valid reports whether the report type is known.
func (t ReportType) Valid() bool {
	return t == ReportSummary || t == ReportDetailed
}

// Report is the deliverable for one profile after a completed party:
// one match score, highlight set, and action recommendation per partner
// the profile shared a table with.
type Report struct {
	ID        string     `json:"id"`
	PartyID   string     `json:"party_id"`
	ProfileID string     `json:"profile_id"`
	Type      ReportType `json:"type"`

	Matches         []MatchScore            `json:"matches"`
	Highlights      []ConversationHighlight `json:"highlights"`
	Recommendations []ActionRecommendation  `json:"recommendations"`

	GeneratedAt time.Time `json:"generated_at"`
}
