package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dao-vault/internal/chain"
	apperrors "github.com/dao-vault/internal/errors"
	"github.com/dao-vault/internal/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

const (
	// StreamKey is the Redis stream receiving every committed event
	StreamKey = "events:stream"
	// DefaultStreamMaxLen bounds the stream length
	DefaultStreamMaxLen = 100_000
)

// HistoryKey returns the Redis list holding a contract's recent calls
func HistoryKey(contract common.Address) string {
	return "history:" + strings.ToLower(contract.Hex())
}

// EventStream publishes receipts to Redis: events go to a shared stream and
// a compact record of each call goes to the history list of every contract
// the call touched.
type EventStream struct {
	client        *redis.Client
	historyLength int64
	streamMaxLen  int64
}

// NewEventStream creates a stream publisher keeping historyLength entries per contract
func NewEventStream(cache *RedisCache, historyLength int64) *EventStream {
	if historyLength <= 0 {
		historyLength = 100
	}
	return &EventStream{
		client:        cache.Client(),
		historyLength: historyLength,
		streamMaxLen:  DefaultStreamMaxLen,
	}
}

func historyEntry(r *chain.Receipt) models.HistoryEntry {
	entry := models.HistoryEntry{
		TxID:      r.TxID,
		Seq:       r.Seq,
		From:      r.From.Hex(),
		Method:    r.Method,
		Status:    string(r.Status),
		Reason:    r.Reason,
		Timestamp: r.Timestamp,
	}
	for _, ev := range r.Events {
		entry.Events = append(entry.Events, ev.Name)
	}
	return entry
}

// Publish writes receipt to the stream and history lists in one pipeline
func (s *EventStream) Publish(ctx context.Context, receipt *chain.Receipt) error {
	record, err := json.Marshal(historyEntry(receipt))
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := s.client.Pipeline()
	for _, ev := range receipt.Events {
		fields, err := json.Marshal(ev.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal event fields: %w", err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: StreamKey,
			MaxLen: s.streamMaxLen,
			Values: map[string]interface{}{
				"index":     strconv.FormatUint(ev.Index, 10),
				"tx_id":     ev.TxID,
				"contract":  ev.Contract.Hex(),
				"name":      ev.Name,
				"topic":     ev.Topic.Hex(),
				"fields":    string(fields),
				"timestamp": ev.Timestamp.UTC().Format(time.RFC3339Nano),
			},
		})
	}
	for _, contract := range receipt.Contracts() {
		key := HistoryKey(contract)
		pipe.LPush(ctx, key, record)
		pipe.LTrim(ctx, key, 0, s.historyLength-1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewCacheError("publish receipt", err)
	}
	return nil
}

// History returns up to n of contract's most recent calls, newest first
func (s *EventStream) History(ctx context.Context, contract common.Address, n int64) ([]models.HistoryEntry, error) {
	if n <= 0 || n > s.historyLength {
		n = s.historyLength
	}
	raw, err := s.client.LRange(ctx, HistoryKey(contract), 0, n-1).Result()
	if err != nil {
		return nil, apperrors.NewCacheError("read history", err)
	}

	out := make([]models.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// ReadStream returns up to count stream messages with ids after the given
// id. An empty id reads from the beginning.
func (s *EventStream) ReadStream(ctx context.Context, after string, count int64) ([]redis.XMessage, error) {
	start := "-"
	if after != "" {
		start = after
	}
	msgs, err := s.client.XRangeN(ctx, StreamKey, start, "+", count+1).Result()
	if err != nil {
		return nil, apperrors.NewCacheError("read stream", err)
	}
	if len(msgs) > 0 && msgs[0].ID == after {
		msgs = msgs[1:]
	}
	if int64(len(msgs)) > count {
		msgs = msgs[:count]
	}
	return msgs, nil
}
