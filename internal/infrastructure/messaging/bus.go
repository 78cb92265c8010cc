package messaging

import (
	"context"
	"encoding/json"
	"time"
)

// Stream names shared with the main hospital system. The four entity streams
// and the command stream are inbound; sync events and dead letters are
// outbound.
const (
	StreamPrescriptionEvents = "pharmacy.prescription_events"
	StreamMedicationEvents   = "pharmacy.medication_events"
	StreamInventoryEvents    = "pharmacy.inventory_events"
	StreamOrderEvents        = "pharmacy.order_events"
	StreamSyncCommands       = "pharmacy.sync_commands"
	StreamSyncEvents         = "pharmacy.sync_events"
	StreamDeadLetter         = "pharmacy.dead_letter"
)

// InboundStreams returns the streams the gateway consumes
func InboundStreams() []string {
	return []string{
		StreamPrescriptionEvents,
		StreamMedicationEvents,
		StreamInventoryEvents,
		StreamOrderEvents,
		StreamSyncCommands,
	}
}

// Envelope is the wire format for every message on the bus
type Envelope struct {
	Type      string          `json:"type"`
	RecordID  string          `json:"recordId"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// Message is one delivered bus entry. ID is the broker-assigned entry id and
// is stable across redeliveries.
type Message struct {
	ID      string
	Stream  string
	Payload []byte
}

// Handler processes one delivered message. The bus acknowledges the message
// after the handler returns regardless of the error; handlers that need
// retries or dead-lettering implement them themselves.
type Handler func(ctx context.Context, msg Message) error

// MessageBus is the transport between the sync service and the main system
type MessageBus interface {
	// Publish appends a payload to a stream
	Publish(ctx context.Context, stream string, payload []byte) error
	// Subscribe consumes a stream until the context is cancelled
	Subscribe(ctx context.Context, stream string, handler Handler) error
	// Close releases the underlying connection
	Close() error
}
