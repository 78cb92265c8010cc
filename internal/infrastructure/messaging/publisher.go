package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pharmacy/backend/internal/domain/shared"
)

// SourceName tags every outbound envelope so consumers can tell sync-service
// traffic apart from main-system traffic
const SourceName = "pharmacy-sync-service"

// Publisher implements shared.EventPublisher by wrapping domain events into
// bus envelopes on the sync events stream
type Publisher struct {
	bus MessageBus
}

var _ shared.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new Publisher
func NewPublisher(bus MessageBus) *Publisher {
	return &Publisher{bus: bus}
}

// Publish publishes one or more domain events
func (p *Publisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}
		payload, err := json.Marshal(Envelope{
			Type:      event.EventType(),
			RecordID:  event.AggregateID(),
			Data:      data,
			Timestamp: event.OccurredAt(),
			Source:    SourceName,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal envelope for %s: %w", event.EventType(), err)
		}
		if err := p.bus.Publish(ctx, StreamSyncEvents, payload); err != nil {
			return err
		}
	}
	return nil
}
