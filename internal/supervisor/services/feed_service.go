// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package services

import (
	"context"
	"errors"

	"github.com/tomtom215/tablemix/internal/signalfeed"
)

// FeedService runs the signal feed subscriber under supervision. A
// consumer crash restarts just this service; the HTTP layer keeps
// serving.
type FeedService struct {
	subscriber *signalfeed.Subscriber
	sink       signalfeed.SignalSink
	breaker    signalfeed.Breaker
}

// NewFeedService wraps the subscriber with its sink and breaker.
func NewFeedService(sub *signalfeed.Subscriber, sink signalfeed.SignalSink, breaker signalfeed.Breaker) *FeedService {
	return &FeedService{subscriber: sub, sink: sink, breaker: breaker}
}

// Serve implements suture.Service. Context cancellation is a normal
// stop, not a failure to restart.
func (s *FeedService) Serve(ctx context.Context) error {
	err := s.subscriber.Run(ctx, s.sink, s.breaker)
	if errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	return err
}

// String identifies the service in supervisor logs.
func (s *FeedService) String() string {
	return "signal-feed"
}
