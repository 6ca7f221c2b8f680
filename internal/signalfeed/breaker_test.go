// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package signalfeed

import (
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultBreakerConfig()
	cfg.FailureThreshold = 3
	cfg.Timeout = time.Minute

	cb := NewBreaker(cfg)
	boom := errors.New("store down")

	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
			t.Fatalf("Execute() error = %v, want %v", err, boom)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open after %d failures", cb.State(), cfg.FailureThreshold)
	}

	if _, err := cb.Execute(func() (any, error) { return nil, nil }); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Execute() error = %v, want ErrOpenState", err)
	}
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := NewBreaker(DefaultBreakerConfig())

	for i := 0; i < 10; i++ {
		if _, err := cb.Execute(func() (any, error) { return nil, nil }); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestBreakerResetsCountOnSuccess(t *testing.T) {
	cfg := DefaultBreakerConfig()
	cfg.FailureThreshold = 3

	cb := NewBreaker(cfg)
	boom := errors.New("store down")

	// Two failures, a success, then two more failures: the consecutive
	// count never reaches the threshold.
	for _, fail := range []bool{true, true, false, true, true} {
		_, _ = cb.Execute(func() (any, error) {
			if fail {
				return nil, boom
			}
			return nil, nil
		})
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}
