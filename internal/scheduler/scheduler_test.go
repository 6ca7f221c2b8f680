// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package scheduler

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/tomtom215/tablemix/internal/models"
)

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i+1)
	}
	return ids
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"valid", Config{Rounds: 3, MinTableSize: 3, MaxTableSize: 4}, nil},
		{"zero rounds", Config{Rounds: 0, MinTableSize: 3, MaxTableSize: 4}, ErrInvalidRoundCount},
		{"negative rounds", Config{Rounds: -1, MinTableSize: 3, MaxTableSize: 4}, ErrInvalidRoundCount},
		{"min below two", Config{Rounds: 1, MinTableSize: 1, MaxTableSize: 4}, ErrInvalidConfiguration},
		{"min above max", Config{Rounds: 1, MinTableSize: 5, MaxTableSize: 4}, ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScheduleInsufficientParticipants(t *testing.T) {
	s, err := New(Config{Rounds: 2, MinTableSize: 3, MaxTableSize: 4})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = s.Schedule(NewPool(makeIDs(5)))
	if !errors.Is(err, ErrInsufficientParticipants) {
		t.Fatalf("Schedule() = %v, want ErrInsufficientParticipants", err)
	}
}

func TestScheduleInfeasibleBounds(t *testing.T) {
	// Nine participants cannot be partitioned into tables of exactly four.
	s, err := New(Config{Rounds: 1, MinTableSize: 4, MaxTableSize: 4})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = s.Schedule(NewPool(makeIDs(9)))
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("Schedule() = %v, want ErrInvalidConfiguration", err)
	}
}

func TestSchedulePartitionInvariants(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
	}{
		{"even split", 12, Config{Rounds: 3, MinTableSize: 3, MaxTableSize: 4}},
		{"uneven split", 10, Config{Rounds: 4, MinTableSize: 3, MaxTableSize: 4}},
		{"pairs", 8, Config{Rounds: 2, MinTableSize: 2, MaxTableSize: 2}},
		{"large tables", 17, Config{Rounds: 5, MinTableSize: 4, MaxTableSize: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}

			ids := makeIDs(tt.n)
			rounds, err := s.Schedule(NewPool(ids))
			if err != nil {
				t.Fatalf("Schedule() error: %v", err)
			}

			if len(rounds) != tt.cfg.Rounds {
				t.Fatalf("got %d rounds, want %d", len(rounds), tt.cfg.Rounds)
			}

			for i, round := range rounds {
				if round.RoundNumber != i+1 {
					t.Errorf("round %d: number = %d, want %d", i, round.RoundNumber, i+1)
				}
				verifyPartition(t, round, ids, tt.cfg)
			}
		})
	}
}

// verifyPartition checks that a round covers every participant exactly
// once with table sizes within bounds and differing by at most one.
func verifyPartition(t *testing.T, round models.RoundResult, ids []string, cfg Config) {
	t.Helper()

	seen := make(map[string]int)
	minSize, maxSize := len(ids), 0

	for _, table := range round.Tables {
		size := len(table.ProfileIDs)
		if size < cfg.MinTableSize || size > cfg.MaxTableSize {
			t.Errorf("round %d table %d: size %d outside [%d,%d]",
				round.RoundNumber, table.TableID, size, cfg.MinTableSize, cfg.MaxTableSize)
		}
		if size < minSize {
			minSize = size
		}
		if size > maxSize {
			maxSize = size
		}
		for _, id := range table.ProfileIDs {
			seen[id]++
		}
	}

	if maxSize-minSize > 1 {
		t.Errorf("round %d: table sizes differ by %d", round.RoundNumber, maxSize-minSize)
	}

	for _, id := range ids {
		if seen[id] != 1 {
			t.Errorf("round %d: participant %s seated %d times", round.RoundNumber, id, seen[id])
		}
	}
}

func TestScheduleDeterminism(t *testing.T) {
	cfg := Config{Rounds: 4, MinTableSize: 3, MaxTableSize: 4}
	ids := makeIDs(14)

	s1, _ := New(cfg)
	s2, _ := New(cfg)

	r1, err := s1.Schedule(NewPool(ids))
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	r2, err := s2.Schedule(NewPool(ids))
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}

	if !reflect.DeepEqual(r1, r2) {
		t.Error("identical inputs produced different schedules")
	}
	if !reflect.DeepEqual(s1.CoOccurrence(), s2.CoOccurrence()) {
		t.Error("identical inputs produced different co-occurrence matrices")
	}
}

// TestScheduleSixParticipantsThreeRounds covers the canonical small event:
// six participants, tables of three, three rounds. Each round seats two
// tables, and no pair may share a table more than twice (the pairing
// diversity bound ceil(3 / (6/3)) = 2; eighteen seated pairs across three
// rounds against fifteen distinct pairs makes some repetition unavoidable).
func TestScheduleSixParticipantsThreeRounds(t *testing.T) {
	s, err := New(Config{Rounds: 3, MinTableSize: 3, MaxTableSize: 3})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ids := makeIDs(6)
	rounds, err := s.Schedule(NewPool(ids))
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}

	if len(rounds) != 3 {
		t.Fatalf("got %d rounds, want 3", len(rounds))
	}
	for _, round := range rounds {
		if len(round.Tables) != 2 {
			t.Errorf("round %d: got %d tables, want 2", round.RoundNumber, len(round.Tables))
		}
	}

	total := 0
	for pair, count := range s.CoOccurrence() {
		if count > 2 {
			t.Errorf("pair %s shared a table %d times, bound is 2", pair, count)
		}
		total += count
	}
	// 2 tables x C(3,2) pairs x 3 rounds.
	if total != 18 {
		t.Errorf("total seated pairs = %d, want 18", total)
	}
}

// TestScheduleAvoidsRepeatsWhenPossible uses four participants in pairs
// over two rounds, where a repeat-free schedule exists and the greedy
// must find it.
func TestScheduleAvoidsRepeatsWhenPossible(t *testing.T) {
	s, err := New(Config{Rounds: 2, MinTableSize: 2, MaxTableSize: 2})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := s.Schedule(NewPool(makeIDs(4))); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}

	for pair, count := range s.CoOccurrence() {
		if count > 1 {
			t.Errorf("pair %s repeated (%d) although a repeat-free schedule exists", pair, count)
		}
	}
}

func TestCoOccurrenceReturnsCopy(t *testing.T) {
	s, _ := New(Config{Rounds: 1, MinTableSize: 2, MaxTableSize: 2})
	if _, err := s.Schedule(NewPool(makeIDs(4))); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}

	m := s.CoOccurrence()
	for k := range m {
		m[k] = 99
	}
	for k, v := range s.CoOccurrence() {
		if v == 99 {
			t.Fatalf("mutating the returned matrix leaked into the scheduler (key %s)", k)
		}
	}
}
