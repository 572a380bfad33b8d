package models

import "time"

// EventRecord is one committed event as stored in the mirror
type EventRecord struct {
	EventIndex uint64            `json:"eventIndex" db:"event_index"`
	TxID       string            `json:"txId" db:"tx_id"`
	TxSeq      uint64            `json:"txSeq" db:"tx_seq"`
	Contract   string            `json:"contract" db:"contract"`
	Name       string            `json:"name" db:"name"`
	Topic      string            `json:"topic" db:"topic"`
	Fields     map[string]string `json:"fields" db:"fields"`
	OccurredAt time.Time         `json:"occurredAt" db:"occurred_at"`
}

// HistoryEntry is the compact per-contract record pushed to the Redis history list
type HistoryEntry struct {
	TxID      string    `json:"txId"`
	Seq       uint64    `json:"seq"`
	From      string    `json:"from"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Events    []string  `json:"events,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
