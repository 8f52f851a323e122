package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyBroker uses Valkey pub/sub so every daemon sharing the database sees
// the same notifications.
type ValkeyBroker struct {
	client valkey.Client
	logger *slog.Logger
}

func NewValkeyBroker(addr string, logger *slog.Logger) (*ValkeyBroker, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	logger.Info("Initialized Valkey broker", "address", addr)
	return &ValkeyBroker{client: client, logger: logger}, nil
}

func (b *ValkeyBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	cmd := b.client.B().Publish().Channel(topic).Message(string(payload)).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns immediately; the subscription lives until ctx is cancelled.
func (b *ValkeyBroker) Subscribe(ctx context.Context, topic string, handler func([]byte)) error {
	cmd := b.client.B().Subscribe().Channel(topic).Build()
	go func() {
		err := b.client.Receive(ctx, cmd, func(msg valkey.PubSubMessage) {
			handler([]byte(msg.Message))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Error("Valkey subscription ended", "topic", topic, "error", err)
		}
	}()
	return nil
}

func (b *ValkeyBroker) Close() error {
	b.client.Close()
	return nil
}
