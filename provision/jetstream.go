package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arloliu/subwire/internal/logging"
	"github.com/arloliu/subwire/types"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ephemeralSuffix marks a topic or channel that should not outlive its subscribers.
const ephemeralSuffix = "#ephemeral"

// JetStreamConfig configures a JetStream provisioner.
type JetStreamConfig struct {
	// Topic is the topic to create. The stream is named after it and captures the subject Topic.
	Topic string

	// Channel is the channel to create. The durable consumer is named after it.
	Channel string

	// AckWait is how long the server waits for an acknowledgement before redelivery.
	// Zero keeps the server default.
	AckWait time.Duration

	// MaxAckPending bounds unacknowledged messages per consumer. Zero keeps the server default.
	MaxAckPending int

	// MaxAttempts is the delivery count after which a message is discarded by the
	// subscriber. The server is allowed one extra delivery so the subscriber sees it.
	// Zero means unlimited.
	MaxAttempts int

	// Logger receives provisioning logs. Optional.
	Logger types.Logger
}

// JetStream creates topics and channels on NATS JetStream.
//
// A topic maps to a stream and a channel to a durable pull consumer on that stream.
// Both steps reuse existing resources and resolve concurrent creation by re-fetching,
// so several listeners may provision the same names at once.
type JetStream struct {
	js           jetstream.JetStream
	cfg          JetStreamConfig
	logger       types.Logger
	streamName   string
	consumerName string
}

// Compile-time assertion that JetStream implements Provisioner.
var _ types.Provisioner = (*JetStream)(nil)

// NewJetStream creates a JetStream provisioner.
//
// Parameters:
//   - conn: NATS connection
//   - cfg: Resource names and consumer settings
//
// Returns:
//   - *JetStream: Provisioner ready for use
//   - error: Configuration or JetStream context error
//
// Example:
//
//	p, err := provision.NewJetStream(nc, provision.JetStreamConfig{Topic: "orders", Channel: "billing"})
func NewJetStream(conn *nats.Conn, cfg JetStreamConfig) (*JetStream, error) {
	if conn == nil {
		return nil, errors.New("NATS connection is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.Channel == "" {
		return nil, errors.New("channel is required")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &JetStream{
		js:           js,
		cfg:          cfg,
		logger:       logger,
		streamName:   StreamName(cfg.Topic),
		consumerName: ConsumerName(cfg.Channel),
	}, nil
}

// StreamName returns the stream name used for a topic.
func StreamName(topic string) string {
	return sanitizeName(topic)
}

// ConsumerName returns the durable consumer name used for a channel.
func ConsumerName(channel string) string {
	return sanitizeName(channel)
}

// CreateTopic ensures the stream for the topic exists.
func (p *JetStream) CreateTopic(ctx context.Context) error {
	_, err := p.js.Stream(ctx, p.streamName)
	if err == nil {
		p.logger.Debug("using existing stream", "stream", p.streamName)
		return nil
	}

	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to access stream %s: %w", p.streamName, err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:     p.streamName,
		Subjects: []string{p.cfg.Topic},
		Storage:  jetstream.FileStorage,
	}
	if strings.HasSuffix(p.cfg.Topic, ephemeralSuffix) {
		streamCfg.Storage = jetstream.MemoryStorage
	}

	_, err = p.js.CreateStream(ctx, streamCfg)
	if err == nil {
		p.logger.Info("stream created", "stream", p.streamName, "subject", p.cfg.Topic)
		return nil
	}

	// Created concurrently with a different configuration; the existing stream wins.
	if !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create stream %s: %w", p.streamName, err)
	}

	if _, err := p.js.Stream(ctx, p.streamName); err != nil {
		return fmt.Errorf("failed to get stream after race: %w", err)
	}

	return nil
}

// CreateChannel ensures the durable consumer for the channel exists.
//
// The stream must exist; call CreateTopic first.
func (p *JetStream) CreateChannel(ctx context.Context) error {
	stream, err := p.js.Stream(ctx, p.streamName)
	if err != nil {
		return fmt.Errorf("failed to get stream %s: %w", p.streamName, err)
	}

	_, err = stream.Consumer(ctx, p.consumerName)
	if err == nil {
		p.logger.Debug("using existing consumer", "consumer", p.consumerName)
		return nil
	}

	if !errors.Is(err, jetstream.ErrConsumerNotFound) {
		return fmt.Errorf("failed to access consumer: %w", err)
	}

	_, err = stream.CreateConsumer(ctx, p.consumerConfig())
	if err == nil {
		p.logger.Info("consumer created", "stream", p.streamName, "consumer", p.consumerName)
		return nil
	}

	if !errors.Is(err, jetstream.ErrConsumerNameAlreadyInUse) && !errors.Is(err, jetstream.ErrConsumerExists) {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	p.logger.Debug("consumer created concurrently, fetching it", "consumer", p.consumerName)

	if _, err := stream.Consumer(ctx, p.consumerName); err != nil {
		return fmt.Errorf("failed to get consumer after race: %w", err)
	}

	return nil
}

func (p *JetStream) consumerConfig() jetstream.ConsumerConfig {
	cfg := jetstream.ConsumerConfig{
		Name:          p.consumerName,
		Durable:       p.consumerName,
		FilterSubject: p.cfg.Topic,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       p.cfg.AckWait,
		MaxAckPending: p.cfg.MaxAckPending,
	}
	if p.cfg.MaxAttempts > 0 {
		cfg.MaxDeliver = p.cfg.MaxAttempts + 1
	}
	if strings.HasSuffix(p.cfg.Channel, ephemeralSuffix) {
		cfg.Durable = ""
		cfg.InactiveThreshold = time.Minute
	}

	return cfg
}

// sanitizeName replaces characters NATS does not allow in stream and consumer names.
//
// Whitespace, '.', '*', '>', path separators and non-printable characters become '_'.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r',
			r == '.' || r == '*' || r == '>',
			r == '/' || r == '\\',
			r < 32 || r == 127:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
