// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package scheduler

import (
	"fmt"
	"strings"
)

// Pool is the normalized list of eligible participants for one event.
// Normalization deduplicates ids and drops blanks while preserving
// first-seen order, so identical input always yields an identical pool.
type Pool struct {
	ids []string
}

// NewPool normalizes the given profile ids into a pool.
func NewPool(profileIDs []string) *Pool {
	seen := make(map[string]struct{}, len(profileIDs))
	ids := make([]string, 0, len(profileIDs))

	for _, id := range profileIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return &Pool{ids: ids}
}

// IDs returns a copy of the normalized participant ids.
func (p *Pool) IDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// Size returns the number of distinct participants.
func (p *Pool) Size() int {
	return len(p.ids)
}

// Validate checks the pool against the minimum table size. At least two
// full minimum-size tables must be fillable.
func (p *Pool) Validate(minTableSize int) error {
	if required := 2 * minTableSize; len(p.ids) < required {
		return fmt.Errorf("%w: have %d participants, need at least %d", ErrInsufficientParticipants, len(p.ids), required)
	}
	return nil
}
