// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/tablemix/internal/models"
)

func TestValidateSignal(t *testing.T) {
	tests := []struct {
		name      string
		sig       models.InteractionSignal
		wantValid bool
	}{
		{
			"valid",
			models.InteractionSignal{FromProfileID: "a", ToProfileID: "b", Kind: models.SignalInterest, Strength: 0.5},
			true,
		},
		{
			"missing from",
			models.InteractionSignal{ToProfileID: "b", Kind: models.SignalInterest, Strength: 0.5},
			false,
		},
		{
			"self signal",
			models.InteractionSignal{FromProfileID: "a", ToProfileID: "a", Kind: models.SignalInterest, Strength: 0.5},
			false,
		},
		{
			"unknown kind",
			models.InteractionSignal{FromProfileID: "a", ToProfileID: "b", Kind: "telepathy", Strength: 0.5},
			false,
		},
		{
			"strength too high",
			models.InteractionSignal{FromProfileID: "a", ToProfileID: "b", Kind: models.SignalHumor, Strength: 1.5},
			false,
		},
		{
			"negative strength",
			models.InteractionSignal{FromProfileID: "a", ToProfileID: "b", Kind: models.SignalHumor, Strength: -0.1},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.sig)
			if tt.wantValid != (err == nil) {
				t.Fatalf("ValidateStruct() = %v, wantValid %v", err, tt.wantValid)
			}
		})
	}
}

func TestValidateStructTranslatedMessages(t *testing.T) {
	sig := models.InteractionSignal{
		FromProfileID: "a",
		ToProfileID:   "b",
		Kind:          "telepathy",
		Strength:      0.5,
	}

	err := ValidateStruct(&sig)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("message %q lacks the translated signalkind text", err.Error())
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Kind" {
		t.Errorf("Details.field = %v, want Kind", apiErr.Details["field"])
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	sig := models.InteractionSignal{
		Kind:     "telepathy",
		Strength: 2.0,
	}

	err := ValidateStruct(&sig)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) < 3 {
		t.Fatalf("got %d errors, want at least 3 (both endpoints, kind, strength)", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("multi-error APIError lacks a fields detail list")
	}
}

func TestReportTypeValidator(t *testing.T) {
	type req struct {
		Type string `validate:"required,reporttype"`
	}

	if err := ValidateStruct(&req{Type: "summary"}); err != nil {
		t.Errorf("summary rejected: %v", err)
	}
	if err := ValidateStruct(&req{Type: "detailed"}); err != nil {
		t.Errorf("detailed rejected: %v", err)
	}
	if err := ValidateStruct(&req{Type: "verbose"}); err == nil {
		t.Error("unknown report type accepted")
	}
}
