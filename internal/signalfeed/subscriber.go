// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package signalfeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tablemix/internal/logging"
	"github.com/tomtom215/tablemix/internal/metrics"
	"github.com/tomtom215/tablemix/internal/models"
	"github.com/tomtom215/tablemix/internal/party"
	"github.com/tomtom215/tablemix/internal/signals"
)

// SubscriberConfig holds the feed consumer settings.
type SubscriberConfig struct {
	// URL is the NATS server address.
	URL string

	// Topic is the subject signals are published on.
	Topic string

	// DurableName identifies the durable JetStream consumer.
	DurableName string

	// QueueGroup balances load across instances.
	QueueGroup string

	// SubscribersCount is the number of parallel consumers.
	SubscribersCount int

	// AckWaitTimeout is how long the broker waits before redelivery.
	AckWaitTimeout time.Duration

	// CloseTimeout bounds graceful shutdown.
	CloseTimeout time.Duration

	// MaxReconnects and ReconnectWait tune the underlying connection.
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultSubscriberConfig returns the standard consumer tuning for the
// given server URL and topic.
func DefaultSubscriberConfig(url, topic, durableName string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		Topic:            topic,
		DurableName:      durableName,
		QueueGroup:       "tablemix-signals",
		SubscribersCount: 2,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// SignalSink is where consumed signals land. The party engine satisfies
// this with its RecordSignal method.
type SignalSink interface {
	RecordSignal(ctx context.Context, partyID string, sig models.InteractionSignal) error
}

// Subscriber consumes signal events from a durable JetStream consumer
// and feeds them into the sink behind a circuit breaker.
type Subscriber struct {
	subscriber message.Subscriber
	serializer *Serializer
	cfg        SubscriberConfig
	logger     zerolog.Logger
}

// NewSubscriber creates a durable JetStream subscriber. The consumer is
// queue-grouped so multiple instances share the load.
func NewSubscriber(cfg SubscriberConfig) (*Subscriber, error) {
	logger := logging.Component("signalfeed")
	wmLogger := watermill.NewStdLogger(false, false)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error().Err(err).Msg("Feed disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("Feed reconnected")
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverNew(),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    true,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Subscriber{
		subscriber: sub,
		serializer: NewSerializer(),
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Run consumes the topic until the context is canceled, delivering each
// event to the sink through the breaker. Malformed events ack and count
// as parse failures; sink failures nack so the broker redelivers.
func (s *Subscriber) Run(ctx context.Context, sink SignalSink, breaker Breaker) error {
	messages, err := s.subscriber.Subscribe(ctx, s.cfg.Topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.Topic, err)
	}

	s.logger.Info().
		Str("topic", s.cfg.Topic).
		Str("durable", s.cfg.DurableName).
		Msg("Signal feed started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.handle(ctx, msg, sink, breaker)
		}
	}
}

// Breaker is the subset of the gobreaker API the subscriber needs.
type Breaker interface {
	Execute(fn func() (any, error)) (any, error)
}

func (s *Subscriber) handle(ctx context.Context, msg *message.Message, sink SignalSink, breaker Breaker) {
	metrics.FeedMessagesConsumed.Inc()

	event, err := s.serializer.Unmarshal(msg.Payload)
	if err != nil {
		// A malformed payload never becomes valid on redelivery.
		metrics.FeedParseFailures.Inc()
		s.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed feed event")
		msg.Ack()
		return
	}

	_, err = breaker.Execute(func() (any, error) {
		return nil, sink.RecordSignal(ctx, event.PartyID, event.Signal)
	})
	if err != nil {
		if isPermanent(err) {
			// Domain rejections are deterministic; redelivery cannot help.
			metrics.RecordSignalRejected("feed", "domain")
			s.logger.Warn().Err(err).Str("party_id", event.PartyID).Msg("Feed event rejected")
			msg.Ack()
			return
		}
		s.logger.Error().Err(err).Str("party_id", event.PartyID).Msg("Feed event failed, requeueing")
		msg.Nack()
		return
	}

	metrics.RecordSignal("feed", string(event.Signal.Kind))
	msg.Ack()
}

// isPermanent reports whether the sink error is a deterministic domain
// rejection rather than a transient infrastructure failure. Permanent
// errors reproduce on every redelivery, so the message is acked and
// dropped.
func isPermanent(err error) bool {
	return errors.Is(err, party.ErrPartyNotFound) ||
		errors.Is(err, party.ErrPartyCompleted) ||
		errors.Is(err, party.ErrInvalidPartyState) ||
		errors.Is(err, signals.ErrInvalidSignal) ||
		errors.Is(err, signals.ErrUnknownParticipant)
}

// Close gracefully shuts down the subscriber.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}
