package worker

import (
	"context"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/models"
	"github.com/dao-vault/internal/types"
)

// EventStore is the Postgres side of the mirror
type EventStore interface {
	UpsertEntity(ctx context.Context, e *models.Entity) error
	InsertEvent(ctx context.Context, ev chain.Event) error
}

// ReceiptPublisher is the Redis side of the mirror
type ReceiptPublisher interface {
	Publish(ctx context.Context, receipt *chain.Receipt) error
}

// PostgresSink stores committed events and keeps the entity table current
type PostgresSink struct {
	store EventStore
}

// NewPostgresSink creates a sink writing to store
func NewPostgresSink(store EventStore) *PostgresSink {
	return &PostgresSink{store: store}
}

// Name implements Sink
func (s *PostgresSink) Name() string { return "postgres" }

// Handle implements Sink. Reverted calls carry no events and are skipped.
// Inserts are idempotent so a retried receipt is safe.
func (s *PostgresSink) Handle(ctx context.Context, r *chain.Receipt) error {
	if !r.Succeeded() {
		return nil
	}
	for _, ev := range r.Events {
		if err := s.store.InsertEvent(ctx, ev); err != nil {
			return err
		}
	}
	for _, e := range EntitiesFromReceipt(r) {
		if err := s.store.UpsertEntity(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// StreamSink publishes every receipt, reverted ones included, to Redis
type StreamSink struct {
	publisher ReceiptPublisher
}

// NewStreamSink creates a sink publishing through p
func NewStreamSink(p ReceiptPublisher) *StreamSink {
	return &StreamSink{publisher: p}
}

// Name implements Sink
func (s *StreamSink) Name() string { return "redis" }

// Handle implements Sink
func (s *StreamSink) Handle(ctx context.Context, r *chain.Receipt) error {
	return s.publisher.Publish(ctx, r)
}

// EntitiesFromReceipt derives entity rows from the factory and ownership
// events of a committed receipt, in emission order.
func EntitiesFromReceipt(r *chain.Receipt) []*models.Entity {
	var out []*models.Entity
	row := func(address string) *models.Entity {
		return &models.Entity{
			Address:   address,
			CreatedTx: r.TxID,
			CreatedAt: r.Timestamp,
			UpdatedAt: r.Timestamp,
		}
	}

	for _, ev := range r.Events {
		switch ev.Name {
		case "DAOCreated":
			e := row(ev.Field("dao"))
			e.Kind = types.KindDAO
			e.Name = ev.Field("name")
			e.Owner = ev.Field("creator")
			out = append(out, e)
		case "VaultCreated":
			e := row(ev.Field("vault"))
			e.Kind = types.KindVault
			e.Owner = ev.Field("creator")
			e.DAO = ev.Field("dao")
			out = append(out, e)
		case "OwnershipTransferred":
			e := row(ev.Contract.Hex())
			e.Owner = ev.Field("newOwner")
			out = append(out, e)
		}
	}
	return out
}
