// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package party

import "errors"

// Engine errors. All are detected before any partial mutation: an
// operation either fully applies or leaves party state untouched.
var (
	// ErrPartyNotFound indicates an unknown party id.
	ErrPartyNotFound = errors.New("party not found")

	// ErrProfileNotFound indicates an unknown profile id.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrReportNotFound indicates an unknown report id.
	ErrReportNotFound = errors.New("report not found")

	// ErrInvalidPartyState indicates an operation invoked in a lifecycle
	// state that does not permit it, e.g. scheduling a completed party.
	ErrInvalidPartyState = errors.New("invalid party state")

	// ErrPartyCompleted indicates a mutation attempted after results were
	// finalized. Completed results are write-once immutable.
	ErrPartyCompleted = errors.New("party already completed")

	// ErrRoundNotFound indicates a round number outside the scheduled
	// range.
	ErrRoundNotFound = errors.New("round not found")
)
