// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package models defines the domain types shared across the application:
// parties, participants, table assignments, interaction signals, match
// scores, reports, and the HTTP API response envelope.
//
// Types in this package are plain data carriers. Behavior lives in the
// packages that consume them (scheduler, signals, scoring, report). All
// types serialize to JSON with snake_case field names; persisted records
// are stored as opaque JSON blobs by the storage layer.
package models
