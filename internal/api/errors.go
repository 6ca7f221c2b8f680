// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/tablemix/internal/party"
	"github.com/tomtom215/tablemix/internal/report"
	"github.com/tomtom215/tablemix/internal/scheduler"
	"github.com/tomtom215/tablemix/internal/scoring"
	"github.com/tomtom215/tablemix/internal/signals"
)

// domainStatus maps a domain error to its HTTP status and stable error
// code. Unmatched errors become 500 INTERNAL_ERROR; domain failures are
// never retried internally, so the mapping is purely informational for
// the caller.
func domainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, party.ErrPartyNotFound),
		errors.Is(err, party.ErrProfileNotFound),
		errors.Is(err, party.ErrReportNotFound),
		errors.Is(err, party.ErrRoundNotFound):
		return http.StatusNotFound, "NOT_FOUND"

	case errors.Is(err, scheduler.ErrInvalidConfiguration):
		return http.StatusBadRequest, "INVALID_CONFIGURATION"
	case errors.Is(err, scheduler.ErrInvalidRoundCount):
		return http.StatusBadRequest, "INVALID_ROUND_COUNT"
	case errors.Is(err, scheduler.ErrInsufficientParticipants):
		return http.StatusBadRequest, "INSUFFICIENT_PARTICIPANTS"

	case errors.Is(err, signals.ErrUnknownParticipant):
		return http.StatusBadRequest, "UNKNOWN_PARTICIPANT"
	case errors.Is(err, signals.ErrInvalidSignal):
		return http.StatusBadRequest, "VALIDATION_ERROR"

	case errors.Is(err, report.ErrPartyNotCompleted):
		return http.StatusConflict, "PARTY_NOT_COMPLETED"
	case errors.Is(err, report.ErrUnknownProfile):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, report.ErrInvalidReportType):
		return http.StatusBadRequest, "INVALID_REPORT_TYPE"

	case errors.Is(err, scoring.ErrNoSignalsAndNoProfile):
		return http.StatusUnprocessableEntity, "NO_SIGNALS_AND_NO_PROFILE"
	case errors.Is(err, scoring.ErrInvalidWeights):
		return http.StatusBadRequest, "INVALID_CONFIGURATION"

	case errors.Is(err, party.ErrPartyCompleted),
		errors.Is(err, party.ErrInvalidPartyState):
		return http.StatusConflict, "INVALID_PARTY_STATE"
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// respondDomainError maps and sends a domain error.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code := domainStatus(err)
	respondError(w, status, code, err.Error(), err)
}
