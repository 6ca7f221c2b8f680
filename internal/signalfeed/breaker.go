// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package signalfeed

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tablemix/internal/logging"
	"github.com/tomtom215/tablemix/internal/metrics"
)

// BreakerConfig tunes the circuit breaker guarding engine writes from
// the feed. A store outage trips the breaker so the durable consumer
// backs off instead of hammering a failing store.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the standard breaker tuning.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "signalfeed-store",
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// NewBreaker creates a circuit breaker with the given configuration,
// publishing state transitions to logs and metrics.
func NewBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	logger := logging.Component("signalfeed")

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
			metrics.SetBreakerOpen(to == gobreaker.StateOpen)
		},
	}

	return gobreaker.NewCircuitBreaker[any](settings)
}
