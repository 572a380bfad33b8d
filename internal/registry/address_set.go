package registry

import (
	"github.com/dao-vault/internal/chain"
	"github.com/ethereum/go-ethereum/common"
)

// addressSet is an insertion list with O(1) membership and swap-with-last
// removal. Iteration order is not preserved across removals.
type addressSet struct {
	items []common.Address
	idx   map[common.Address]int
}

func newAddressSet() *addressSet {
	return &addressSet{idx: make(map[common.Address]int)}
}

func (s *addressSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *addressSet) Contains(a common.Address) bool {
	if s == nil {
		return false
	}
	_, ok := s.idx[a]
	return ok
}

func (s *addressSet) Items() []common.Address {
	if s == nil {
		return []common.Address{}
	}
	out := make([]common.Address, len(s.items))
	copy(out, s.items)
	return out
}

func (s *addressSet) add(tx *chain.Tx, a common.Address) {
	s.idx[a] = len(s.items)
	s.items = append(s.items, a)
	tx.OnRevert(func() { s.drop(a) })
}

func (s *addressSet) remove(tx *chain.Tx, a common.Address) {
	if !s.Contains(a) {
		return
	}
	prev := s.Items()
	s.drop(a)
	tx.OnRevert(func() { s.restore(prev) })
}

func (s *addressSet) drop(a common.Address) {
	i, ok := s.idx[a]
	if !ok {
		return
	}
	last := len(s.items) - 1
	if i != last {
		moved := s.items[last]
		s.items[i] = moved
		s.idx[moved] = i
	}
	s.items = s.items[:last]
	delete(s.idx, a)
}

func (s *addressSet) restore(items []common.Address) {
	s.items = items
	s.idx = make(map[common.Address]int, len(items))
	for i, a := range items {
		s.idx[a] = i
	}
}

// setMapping journals a single address-to-address map entry
func setMapping(tx *chain.Tx, m map[common.Address]common.Address, key, value common.Address) {
	prev, had := m[key]
	tx.OnRevert(func() {
		if had {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
	if value == (common.Address{}) {
		delete(m, key)
		return
	}
	m[key] = value
}
