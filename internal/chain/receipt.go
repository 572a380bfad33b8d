package chain

import (
	"time"

	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

// Receipt is the outcome of one submitted call. Reverted calls carry the
// rejection reason and no events.
type Receipt struct {
	TxID      string         `json:"txId"`
	Seq       uint64         `json:"seq"`
	From      common.Address `json:"from"`
	To        common.Address `json:"to"`
	Method    string         `json:"method"`
	Status    types.TxStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	Events    []Event        `json:"events"`
	Timestamp time.Time      `json:"timestamp"`

	Err error `json:"-"`
}

// Succeeded reports whether the call was committed
func (r *Receipt) Succeeded() bool {
	return r.Status == types.StatusSuccess
}

// EventsNamed returns the receipt's events with the given name, in emission order
func (r *Receipt) EventsNamed(name string) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Contracts returns every distinct contract touched by the call: the target
// followed by each emitting contract.
func (r *Receipt) Contracts() []common.Address {
	seen := make(map[common.Address]bool)
	var out []common.Address
	add := func(a common.Address) {
		if a == (common.Address{}) || seen[a] {
			return
		}
		seen[a] = true
		out = append(out, a)
	}
	add(r.To)
	for _, ev := range r.Events {
		add(ev.Contract)
	}
	return out
}
