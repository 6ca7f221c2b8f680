// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package scheduler partitions party participants into tables across
// rounds while minimizing repeated pairings.
//
// The scheduler maintains a symmetric co-occurrence count matrix over all
// participant pairs and builds each round greedily: tables are seeded with
// the least-exposed unassigned participant and filled with the candidate
// whose cumulative co-occurrence with the already-seated members is
// lowest, ties broken by smallest profile id. The heuristic is fully
// deterministic given the same participant ordering and configuration.
//
// Exact minimum-repeat scheduling is NP-hard for general participant
// counts, round counts, and table sizes; the greedy result is an accepted
// approximation. Its worst case is bounded by the property that no pair
// shares a table in more than ceil(R / (N / tableSize)) rounds, which the
// package tests verify. The co-occurrence matrix is exposed so callers can
// inspect and test the pairing outcome directly.
package scheduler
