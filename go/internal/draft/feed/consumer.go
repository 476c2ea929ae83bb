package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/lolauction/go/internal/draft/outbox/worker"
)

const (
	consumerName          = "auction-feed"
	consumerMaxDeliver    = 5
	consumerAckWait       = 30 * time.Second
	consumerMaxAckPending = 256
)

// Consumer replays the auction event stream into a Log.
type Consumer struct {
	nc       *nats.Conn
	consumer jetstream.Consumer
	log      *Log
}

// NewConsumer connects to NATS and binds a durable consumer that starts from
// the first retained event.
func NewConsumer(ctx context.Context, cfg worker.JetStreamConfig, feed *Log) (*Consumer, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("lolauction-feed"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("get stream %s: %w", cfg.StreamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		Description:   "Auction activity feed with replay",
		FilterSubject: cfg.SubjectPrefix + ".>",
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    consumerMaxDeliver,
		AckWait:       consumerAckWait,
		MaxAckPending: consumerMaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	return &Consumer{nc: nc, consumer: consumer, log: feed}, nil
}

// Run consumes until ctx is cancelled. Malformed events are terminated so
// they are not redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		entry, added, err := c.log.Process(msg.Data())
		if err != nil {
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("dropping malformed event")
			if err := msg.Term(); err != nil {
				log.Error().Err(err).Msg("failed to terminate message")
			}
			return
		}
		if added {
			log.Info().
				Str("draft_id", entry.DraftID).
				Str("event_type", entry.EventType).
				Msg(entry.Summary)
		}
		if err := msg.Ack(); err != nil {
			log.Error().Err(err).Str("event_id", entry.EventID).Msg("failed to ack event")
		}
	})
	if err != nil {
		return fmt.Errorf("start JetStream consumer: %w", err)
	}
	defer consumeCtx.Stop()

	<-ctx.Done()
	return nil
}

// IsConnected reports whether the NATS connection is up.
func (c *Consumer) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Close drains the NATS connection.
func (c *Consumer) Close() error {
	if c.nc == nil {
		return nil
	}
	return c.nc.Drain()
}
