package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dao-vault/internal/chain"
	apperrors "github.com/dao-vault/internal/errors"
	"github.com/dao-vault/internal/models"
	"github.com/dao-vault/internal/types"
	"github.com/jackc/pgx/v5"
)

// MirrorRepository persists entities and committed events to Postgres
type MirrorRepository struct {
	db *PostgresDB
}

// NewMirrorRepository creates a new mirror repository
func NewMirrorRepository(db *PostgresDB) *MirrorRepository {
	return &MirrorRepository{db: db}
}

// UpsertEntity inserts an entity or updates it in place. Empty string
// fields leave the stored value alone, so partial updates such as an
// ownership change only carry the fields they know.
func (r *MirrorRepository) UpsertEntity(ctx context.Context, e *models.Entity) error {
	query := `
		INSERT INTO entities (address, kind, name, owner, dao, created_tx, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (address) DO UPDATE SET
			kind = CASE WHEN EXCLUDED.kind = '' THEN entities.kind ELSE EXCLUDED.kind END,
			name = CASE WHEN EXCLUDED.name = '' THEN entities.name ELSE EXCLUDED.name END,
			owner = CASE WHEN EXCLUDED.owner = '' THEN entities.owner ELSE EXCLUDED.owner END,
			dao = CASE WHEN EXCLUDED.dao = '' THEN entities.dao ELSE EXCLUDED.dao END,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		e.Address,
		string(e.Kind),
		e.Name,
		e.Owner,
		e.DAO,
		e.CreatedTx,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("upsert entity", err)
	}
	return nil
}

// GetEntity returns the entity at address
func (r *MirrorRepository) GetEntity(ctx context.Context, address string) (*models.Entity, error) {
	query := `
		SELECT address, kind, name, owner, dao, created_tx, created_at, updated_at
		FROM entities
		WHERE address = $1
	`

	var e models.Entity
	var kind string
	err := r.db.Pool().QueryRow(ctx, query, address).Scan(
		&e.Address,
		&kind,
		&e.Name,
		&e.Owner,
		&e.DAO,
		&e.CreatedTx,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("entity", address)
		}
		return nil, apperrors.NewDatabaseError("get entity", err)
	}
	e.Kind = types.ContractKind(kind)
	return &e, nil
}

// InsertEvent stores one committed event. Re-inserting the same event index is a no-op.
func (r *MirrorRepository) InsertEvent(ctx context.Context, ev chain.Event) error {
	fields, err := json.Marshal(ev.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal event fields: %w", err)
	}

	query := `
		INSERT INTO events (event_index, tx_id, tx_seq, contract, name, topic, fields, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_index) DO NOTHING
	`

	_, err = r.db.Pool().Exec(ctx, query,
		int64(ev.Index), // #nosec G115 - event indexes stay far below MaxInt64
		ev.TxID,
		int64(ev.TxSeq), // #nosec G115
		ev.Contract.Hex(),
		ev.Name,
		ev.Topic.Hex(),
		fields,
		ev.Timestamp,
	)
	if err != nil {
		return apperrors.NewDatabaseError("insert event", err)
	}
	return nil
}

// ListEvents returns the newest events emitted by contract, newest first
func (r *MirrorRepository) ListEvents(ctx context.Context, contract string, limit int) ([]*models.EventRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT event_index, tx_id, tx_seq, contract, name, topic, fields, occurred_at
		FROM events
		WHERE contract = $1
		ORDER BY event_index DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, contract, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list events", err)
	}
	defer rows.Close()

	var out []*models.EventRecord
	for rows.Next() {
		var rec models.EventRecord
		var index, seq int64
		var fields []byte
		if err := rows.Scan(&index, &rec.TxID, &seq, &rec.Contract, &rec.Name, &rec.Topic, &fields, &rec.OccurredAt); err != nil {
			return nil, apperrors.NewDatabaseError("scan event", err)
		}
		rec.EventIndex = uint64(index) // #nosec G115
		rec.TxSeq = uint64(seq)        // #nosec G115
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &rec.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event fields: %w", err)
			}
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list events", err)
	}
	return out, nil
}
