package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	appsync "github.com/pharmacy/backend/internal/application/sync"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	domainsync "github.com/pharmacy/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// Sync command types accepted on the command stream
const (
	CommandFullSync        = "full_sync"
	CommandIncrementalSync = "incremental_sync"
	CommandSyncEntity      = "sync_entity"
)

var streamRecordTypes = map[string]record.Type{
	StreamPrescriptionEvents: record.TypePrescription,
	StreamMedicationEvents:   record.TypeMedication,
	StreamInventoryEvents:    record.TypeInventoryItem,
	StreamOrderEvents:        record.TypePharmacyOrder,
}

// SyncCoordinator is the subset of the sync orchestrator the gateway drives
type SyncCoordinator interface {
	FullSync(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncResult, error)
	IncrementalSync(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncResult, error)
	SyncEntities(ctx context.Context, tenantID uuid.UUID, t record.Type, ids []string) (*appsync.SyncResult, error)
}

// Gateway consumes the inbound streams and maps bus traffic onto sync
// operations. Poison messages are dead-lettered and acknowledged, never
// retried in place, so one bad payload cannot stall a stream.
type Gateway struct {
	bus          MessageBus
	idempotency  shared.IdempotencyStore
	orchestrator SyncCoordinator
	publisher    shared.EventPublisher
	ttl          time.Duration
	logger       *zap.Logger
	wg           sync.WaitGroup
}

// NewGateway creates a new Gateway
func NewGateway(
	bus MessageBus,
	idempotency shared.IdempotencyStore,
	orchestrator SyncCoordinator,
	publisher shared.EventPublisher,
	idempotencyTTL time.Duration,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		bus:          bus,
		idempotency:  idempotency,
		orchestrator: orchestrator,
		publisher:    publisher,
		ttl:          idempotencyTTL,
		logger:       logger,
	}
}

// Start launches one consumer goroutine per inbound stream
func (g *Gateway) Start(ctx context.Context) {
	for _, stream := range InboundStreams() {
		g.wg.Add(1)
		go func(stream string) {
			defer g.wg.Done()
			err := g.bus.Subscribe(ctx, stream, g.handle)
			if err != nil && !errors.Is(err, context.Canceled) {
				g.logger.Error("stream consumer stopped",
					zap.String("stream", stream),
					zap.Error(err),
				)
			}
		}(stream)
	}
}

// Wait blocks until all consumer goroutines have exited
func (g *Gateway) Wait() {
	g.wg.Wait()
}

type tenantCarrier struct {
	TenantID uuid.UUID `json:"tenant_id"`
}

type syncCommand struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	EntityType string    `json:"entity_type"`
	EntityIDs  []string  `json:"entity_ids"`
}

type deadLetterEntry struct {
	Payload   string `json:"payload"`
	Stream    string `json:"stream"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

func (g *Gateway) handle(ctx context.Context, msg Message) error {
	if len(msg.Payload) == 0 {
		g.logger.Warn("dropping empty message",
			zap.String("stream", msg.Stream),
			zap.String("message_id", msg.ID),
		)
		return nil
	}

	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil || env.Type == "" {
		g.logger.Warn("dropping unparsable message",
			zap.String("stream", msg.Stream),
			zap.String("message_id", msg.ID),
		)
		return nil
	}

	// the broker entry id is stable across redeliveries, which makes it the
	// dedupe key for at-least-once delivery
	key := msg.Stream + ":" + msg.ID
	fresh, err := g.idempotency.MarkProcessed(ctx, key, g.ttl)
	if err != nil {
		g.logger.Warn("idempotency check failed, processing anyway",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	} else if !fresh {
		g.logger.Debug("skipping duplicate message",
			zap.String("stream", msg.Stream),
			zap.String("message_id", msg.ID),
		)
		return nil
	}

	if err := g.dispatchGuarded(ctx, msg, env); err != nil {
		g.deadLetter(ctx, msg, err)
	}
	return nil
}

// dispatchGuarded converts a downstream panic into a dead-letterable error so
// one poison message cannot take the consumer loop down
func (g *Gateway) dispatchGuarded(ctx context.Context, msg Message, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("message handler panicked: %v", r)
			g.logger.Error("recovered panic while handling message",
				zap.String("stream", msg.Stream),
				zap.String("message_id", msg.ID),
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
		}
	}()
	return g.dispatch(ctx, msg.Stream, env)
}

func (g *Gateway) dispatch(ctx context.Context, stream string, env Envelope) error {
	if stream == StreamSyncCommands {
		return g.handleCommand(ctx, env)
	}

	t, ok := streamRecordTypes[stream]
	if !ok {
		g.logger.Warn("message on unrecognized stream", zap.String("stream", stream))
		return nil
	}
	return g.handleRecordEvent(ctx, t, env)
}

func (g *Gateway) handleRecordEvent(ctx context.Context, t record.Type, env Envelope) error {
	var carrier tenantCarrier
	if err := json.Unmarshal(env.Data, &carrier); err != nil || carrier.TenantID == uuid.Nil {
		g.logger.Warn("dropping event without tenant id",
			zap.String("event_type", env.Type),
			zap.String("record_id", env.RecordID),
		)
		return nil
	}

	switch {
	case strings.HasSuffix(env.Type, "_created"), strings.HasSuffix(env.Type, "_updated"):
		_, err := g.orchestrator.SyncEntities(ctx, carrier.TenantID, t, []string{env.RecordID})
		return err
	case strings.HasSuffix(env.Type, "_deleted"),
		env.Type == "batch_expired",
		env.Type == "order_cancelled":
		g.retire(ctx, carrier.TenantID, t, env)
		return nil
	default:
		g.logger.Warn("dropping unknown event type",
			zap.String("event_type", env.Type),
			zap.String("record_type", t.String()),
		)
		return nil
	}
}

// retire records an upstream deletion, expiration or cancellation. The sync
// service keeps its copy; downstream bookkeeping subscribes to the audit
// event.
func (g *Gateway) retire(ctx context.Context, tenantID uuid.UUID, t record.Type, env Envelope) {
	g.logger.Info("record retired upstream",
		zap.String("record_type", t.String()),
		zap.String("record_id", env.RecordID),
		zap.String("reason", env.Type),
	)
	event := domainsync.NewRecordRetiredEvent(tenantID, t, env.RecordID, env.Type)
	if err := g.publisher.Publish(ctx, event); err != nil {
		g.logger.Warn("failed to publish retirement event",
			zap.String("record_id", env.RecordID),
			zap.Error(err),
		)
	}
}

func (g *Gateway) handleCommand(ctx context.Context, env Envelope) error {
	var cmd syncCommand
	if err := json.Unmarshal(env.Data, &cmd); err != nil || cmd.TenantID == uuid.Nil {
		g.logger.Warn("dropping malformed sync command", zap.String("command", env.Type))
		return nil
	}

	switch env.Type {
	case CommandFullSync:
		_, err := g.orchestrator.FullSync(ctx, cmd.TenantID)
		return err
	case CommandIncrementalSync:
		_, err := g.orchestrator.IncrementalSync(ctx, cmd.TenantID)
		return err
	case CommandSyncEntity:
		t := record.Type(cmd.EntityType)
		if !t.IsValid() {
			return fmt.Errorf("sync command names unsupported entity type %q", cmd.EntityType)
		}
		_, err := g.orchestrator.SyncEntities(ctx, cmd.TenantID, t, cmd.EntityIDs)
		return err
	default:
		g.logger.Warn("dropping unknown sync command", zap.String("command", env.Type))
		return nil
	}
}

// ProcessBatch groups buffered envelopes by record type and issues one
// targeted sync per type
func (g *Gateway) ProcessBatch(ctx context.Context, tenantID uuid.UUID, envelopes []Envelope) error {
	grouped := make(map[record.Type][]string)
	for _, env := range envelopes {
		t, ok := recordTypeForTag(env.Type)
		if !ok || env.RecordID == "" {
			g.logger.Warn("skipping batch entry with unknown type",
				zap.String("event_type", env.Type),
			)
			continue
		}
		grouped[t] = appendUnique(grouped[t], env.RecordID)
	}

	var errs []error
	for t, ids := range grouped {
		if _, err := g.orchestrator.SyncEntities(ctx, tenantID, t, ids); err != nil {
			g.logger.Error("batch sync failed for type",
				zap.String("record_type", t.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Gateway) deadLetter(ctx context.Context, msg Message, cause error) {
	g.logger.Error("dead-lettering message",
		zap.String("stream", msg.Stream),
		zap.String("message_id", msg.ID),
		zap.Error(cause),
	)

	payload, err := json.Marshal(deadLetterEntry{
		Payload:   string(msg.Payload),
		Stream:    msg.Stream,
		MessageID: msg.ID,
		Error:     cause.Error(),
	})
	if err != nil {
		g.logger.Error("failed to marshal dead letter", zap.Error(err))
		return
	}
	if err := g.bus.Publish(ctx, StreamDeadLetter, payload); err != nil {
		g.logger.Error("failed to publish dead letter",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

func recordTypeForTag(tag string) (record.Type, bool) {
	switch {
	case strings.HasPrefix(tag, "prescription_"):
		return record.TypePrescription, true
	case strings.HasPrefix(tag, "medication_"):
		return record.TypeMedication, true
	case strings.HasPrefix(tag, "inventory_"), tag == "batch_expired":
		return record.TypeInventoryItem, true
	case strings.HasPrefix(tag, "order_"):
		return record.TypePharmacyOrder, true
	}
	return "", false
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
