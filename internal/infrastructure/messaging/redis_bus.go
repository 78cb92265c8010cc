package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pharmacy/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus implements MessageBus on Redis Streams with consumer groups.
// Delivery is at-least-once: entries are acknowledged after the handler
// returns, so a crash mid-handler redelivers the entry to the group.
type RedisBus struct {
	client   *redis.Client
	group    string
	consumer string
	block    time.Duration
	batch    int
	logger   *zap.Logger
}

var _ MessageBus = (*RedisBus)(nil)

// NewRedisBus creates a bus on an existing Redis client
func NewRedisBus(client *redis.Client, cfg *config.BusConfig, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client:   client,
		group:    cfg.ConsumerGroup,
		consumer: cfg.ConsumerName,
		block:    cfg.BlockTimeout,
		batch:    cfg.BatchSize,
		logger:   logger,
	}
}

// Publish appends a payload to a stream
func (b *RedisBus) Publish(ctx context.Context, stream string, payload []byte) error {
	err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"payload": string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}
	return nil
}

// Subscribe consumes a stream on behalf of the consumer group until the
// context is cancelled
func (b *RedisBus) Subscribe(ctx context.Context, stream string, handler Handler) error {
	if err := b.ensureGroup(ctx, stream); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{stream, ">"},
			Count:    int64(b.batch),
			Block:    b.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.Error("stream read failed",
				zap.String("stream", stream),
				zap.Error(err),
			)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, entry := range s.Messages {
				b.dispatch(ctx, stream, entry, handler)
			}
		}
	}
}

// Close closes the underlying Redis client
func (b *RedisBus) Close() error {
	return b.client.Close()
}

func (b *RedisBus) dispatch(ctx context.Context, stream string, entry redis.XMessage, handler Handler) {
	payload, _ := entry.Values["payload"].(string)

	if err := handler(ctx, Message{ID: entry.ID, Stream: stream, Payload: []byte(payload)}); err != nil {
		b.logger.Warn("message handler failed",
			zap.String("stream", stream),
			zap.String("message_id", entry.ID),
			zap.Error(err),
		)
	}

	if err := b.client.XAck(ctx, stream, b.group, entry.ID).Err(); err != nil {
		b.logger.Error("failed to ack message",
			zap.String("stream", stream),
			zap.String("message_id", entry.ID),
			zap.Error(err),
		)
	}
}

func (b *RedisBus) ensureGroup(ctx context.Context, stream string) error {
	err := b.client.XGroupCreateMkStream(ctx, stream, b.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group on %s: %w", stream, err)
	}
	return nil
}
