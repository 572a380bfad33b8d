package chain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EventType describes one kind of log entry. Topic is keccak-256 of the
// canonical signature, the same value an EVM log would carry as topic0.
type EventType struct {
	Name      string
	Signature string
	Topic     common.Hash
}

// NewEventType derives an EventType from an EVM-style signature such as
// "Voted(uint256,address,bool)".
func NewEventType(signature string) EventType {
	name := signature
	if i := strings.IndexByte(signature, '('); i > 0 {
		name = signature[:i]
	}
	return EventType{
		Name:      name,
		Signature: signature,
		Topic:     crypto.Keccak256Hash([]byte(signature)),
	}
}

// Fields are the arguments attached to an emitted event
type Fields map[string]interface{}

// Event is a committed log entry
type Event struct {
	Contract  common.Address    `json:"contract"`
	Name      string            `json:"name"`
	Topic     common.Hash       `json:"topic"`
	Fields    map[string]string `json:"fields"`
	Index     uint64            `json:"index"`
	TxID      string            `json:"txId"`
	TxSeq     uint64            `json:"txSeq"`
	Timestamp time.Time         `json:"timestamp"`
}

// Field returns a rendered event argument, or "" when absent.
func (e Event) Field(key string) string {
	return e.Fields[key]
}

// OwnershipTransferred is emitted by every ownable contract.
var OwnershipTransferred = NewEventType("OwnershipTransferred(address,address)")

func renderFields(in Fields) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = renderValue(v)
	}
	return out
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case common.Address:
		return val.Hex()
	case common.Hash:
		return val.Hex()
	case *uint256.Int:
		if val == nil {
			return "0"
		}
		return val.Dec()
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
