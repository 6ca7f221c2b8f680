// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package scheduler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/tablemix/internal/models"
)

// Scheduling errors. All are detected before any state is produced; a
// Schedule call either returns the full round structure or nothing.
var (
	// ErrInvalidConfiguration indicates bad table-size bounds, or bounds
	// that no partition of the participant count can satisfy.
	ErrInvalidConfiguration = errors.New("invalid scheduler configuration")

	// ErrInvalidRoundCount indicates a non-positive round count.
	ErrInvalidRoundCount = errors.New("round count must be positive")

	// ErrInsufficientParticipants indicates fewer participants than two
	// minimum-size tables.
	ErrInsufficientParticipants = errors.New("insufficient participants")
)

// Config holds the explicit scheduling parameters for one party.
// It is passed into each call rather than read from ambient settings so
// scheduling runs are reproducible.
type Config struct {
	// Rounds is the number of rounds to schedule. Must be positive.
	Rounds int `json:"rounds"`

	// MinTableSize is the smallest allowed table. Must be at least 2.
	MinTableSize int `json:"min_table_size"`

	// MaxTableSize is the largest allowed table. Must be >= MinTableSize.
	MaxTableSize int `json:"max_table_size"`
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidRoundCount, c.Rounds)
	}
	if c.MinTableSize < 2 {
		return fmt.Errorf("%w: min_table_size must be at least 2, got %d", ErrInvalidConfiguration, c.MinTableSize)
	}
	if c.MinTableSize > c.MaxTableSize {
		return fmt.Errorf("%w: min_table_size %d exceeds max_table_size %d", ErrInvalidConfiguration, c.MinTableSize, c.MaxTableSize)
	}
	return nil
}

// Scheduler assigns participants to tables per round. It is a pure,
// synchronous computation over an immutable input snapshot; a Scheduler
// is built per party and is not safe for concurrent use.
type Scheduler struct {
	cfg Config

	// coOccur counts how many rounds each unordered pair has shared a
	// table, keyed by models.PairKey.
	coOccur map[string]int
}

// New creates a scheduler with a validated configuration.
func New(cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:     cfg,
		coOccur: make(map[string]int),
	}, nil
}

// Schedule partitions the pool into tables for every configured round.
// Every round covers each participant exactly once, table sizes stay
// within bounds and differ by at most one, and repeated pairings are
// greedily minimized against the co-occurrence matrix.
func (s *Scheduler) Schedule(pool *Pool) ([]models.RoundResult, error) {
	if err := pool.Validate(s.cfg.MinTableSize); err != nil {
		return nil, err
	}

	ids := pool.IDs()
	sizes, err := s.tableSizes(len(ids))
	if err != nil {
		return nil, err
	}

	rounds := make([]models.RoundResult, 0, s.cfg.Rounds)
	for r := 1; r <= s.cfg.Rounds; r++ {
		tables := s.buildRound(ids, sizes)
		s.recordRound(tables)
		rounds = append(rounds, models.RoundResult{
			RoundNumber: r,
			Tables:      tables,
		})
	}

	return rounds, nil
}

// CoOccurrence returns a copy of the pair co-occurrence matrix, keyed by
// models.PairKey. Counts reflect all rounds scheduled so far.
func (s *Scheduler) CoOccurrence() map[string]int {
	out := make(map[string]int, len(s.coOccur))
	for k, v := range s.coOccur {
		out[k] = v
	}
	return out
}

// tableSizes computes the per-table sizes for n participants: as few
// tables as the maximum size allows, sizes differing by at most one.
func (s *Scheduler) tableSizes(n int) ([]int, error) {
	tables := (n + s.cfg.MaxTableSize - 1) / s.cfg.MaxTableSize
	base := n / tables
	extra := n % tables

	if base < s.cfg.MinTableSize {
		return nil, fmt.Errorf("%w: %d participants cannot fill tables of size %d-%d",
			ErrInvalidConfiguration, n, s.cfg.MinTableSize, s.cfg.MaxTableSize)
	}

	sizes := make([]int, tables)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes, nil
}

// buildRound greedily fills each table for one round. Seats are chosen by
// lowest cumulative co-occurrence with the already-seated members, ties
// broken by smallest profile id.
func (s *Scheduler) buildRound(ids []string, sizes []int) []models.TableAssignment {
	unassigned := make([]string, len(ids))
	copy(unassigned, ids)

	tables := make([]models.TableAssignment, 0, len(sizes))
	for t, size := range sizes {
		seated := make([]string, 0, size)

		// Seed with the least-exposed participant overall so heavily
		// paired participants get first pick of fresh company.
		seed := s.pickSeed(unassigned)
		seated = append(seated, seed)
		unassigned = remove(unassigned, seed)

		for len(seated) < size {
			next := s.pickLowestCoOccurrence(unassigned, seated)
			seated = append(seated, next)
			unassigned = remove(unassigned, next)
		}

		tables = append(tables, models.TableAssignment{
			TableID:    t + 1,
			ProfileIDs: seated,
		})
	}

	return tables
}

// pickSeed selects the unassigned participant with the lowest total
// co-occurrence across all pairs, ties broken by smallest id.
func (s *Scheduler) pickSeed(unassigned []string) string {
	best := unassigned[0]
	bestTotal := s.totalCoOccurrence(best, unassigned)

	for _, id := range unassigned[1:] {
		total := s.totalCoOccurrence(id, unassigned)
		if total < bestTotal || (total == bestTotal && id < best) {
			best, bestTotal = id, total
		}
	}
	return best
}

// seatCost orders candidates for a partially filled table. The worst
// single pair dominates the total so one fresh pairing cannot hide one
// heavily repeated pairing behind a low sum.
type seatCost struct {
	maxPair int
	sum     int
}

func (c seatCost) less(o seatCost) bool {
	if c.maxPair != o.maxPair {
		return c.maxPair < o.maxPair
	}
	return c.sum < o.sum
}

// pickLowestCoOccurrence selects the unassigned participant with the
// lowest cumulative co-occurrence with the seated members, ties broken
// by smallest profile id.
func (s *Scheduler) pickLowestCoOccurrence(unassigned, seated []string) string {
	candidates := make([]string, len(unassigned))
	copy(candidates, unassigned)
	sort.Strings(candidates)

	best := candidates[0]
	bestCost := s.pairCost(best, seated)

	for _, id := range candidates[1:] {
		if cost := s.pairCost(id, seated); cost.less(bestCost) {
			best, bestCost = id, cost
		}
	}
	return best
}

func (s *Scheduler) pairCost(id string, seated []string) seatCost {
	var cost seatCost
	for _, other := range seated {
		n := s.coOccur[models.PairKey(id, other)]
		cost.sum += n
		if n > cost.maxPair {
			cost.maxPair = n
		}
	}
	return cost
}

func (s *Scheduler) totalCoOccurrence(id string, among []string) int {
	total := 0
	for _, other := range among {
		if other == id {
			continue
		}
		total += s.coOccur[models.PairKey(id, other)]
	}
	return total
}

// recordRound increments the co-occurrence count for every pair newly
// seated together.
func (s *Scheduler) recordRound(tables []models.TableAssignment) {
	for _, table := range tables {
		for i := 0; i < len(table.ProfileIDs); i++ {
			for j := i + 1; j < len(table.ProfileIDs); j++ {
				s.coOccur[models.PairKey(table.ProfileIDs[i], table.ProfileIDs[j])]++
			}
		}
	}
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
