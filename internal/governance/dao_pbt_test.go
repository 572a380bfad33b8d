package governance

import (
	"testing"
	"time"

	"github.com/dao-vault/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: member count equals the member set size and the owner stays a
// member after any sequence of adds and removes
func TestMemberCountInvariantProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("member count tracks the member set", prop.ForAll(
		func(ops []int) bool {
			h := newHarness(t)
			expected := map[common.Address]bool{owner: true}

			for _, op := range ops {
				target := memberAddr((op / 2) % 8)
				if op%2 == 0 {
					_, err := h.call(owner, func(tx *chain.Tx) error { return h.dao.AddMember(tx, target) })
					if (err == nil) == expected[target] {
						return false
					}
					expected[target] = true
				} else {
					_, err := h.call(owner, func(tx *chain.Tx) error { return h.dao.RemoveMember(tx, target) })
					if (err == nil) != expected[target] {
						return false
					}
					delete(expected, target)
				}
			}

			members := h.dao.GetMembers()
			if h.dao.MemberCount() != len(expected) || len(members) != len(expected) {
				return false
			}
			for _, m := range members {
				if !expected[m] || !h.dao.IsMember(m) {
					return false
				}
			}
			return h.dao.IsMember(owner)
		},
		gen.SliceOf(gen.IntRange(0, 31)),
	))

	properties.TestingRun(t)
}

// Property: a (proposal, voter) pair can vote at most once
func TestVoteOnceProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("second vote always fails with Already voted", prop.ForAll(
		func(first, second bool, extra int) bool {
			h := newHarness(t)
			voters := append([]common.Address{owner}, h.addMembers(extra)...)
			id := h.propose(owner, time.Hour)

			for _, v := range voters {
				voter := v
				if _, err := h.call(voter, func(tx *chain.Tx) error { return h.dao.Vote(tx, id, first) }); err != nil {
					return false
				}
				_, err := h.call(voter, func(tx *chain.Tx) error { return h.dao.Vote(tx, id, second) })
				if err != ErrAlreadyVoted {
					return false
				}
			}

			p, _ := h.dao.GetProposal(id)
			return p.TotalVotes() == uint64(len(voters))
		},
		gen.Bool(),
		gen.Bool(),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

// Property: execution succeeds iff the deadline passed, the quorum is met
// and yes votes strictly exceed no votes
func TestExecuteIffProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("execute succeeds exactly when the rules allow", prop.ForAll(
		func(extra, yes, no int, pct uint64, pastDeadline bool) bool {
			h := newHarness(t)
			voters := append([]common.Address{owner}, h.addMembers(extra)...)
			if yes > len(voters) {
				yes = len(voters)
			}
			if no > len(voters)-yes {
				no = len(voters) - yes
			}

			h.mustCall(owner, func(tx *chain.Tx) error { return h.dao.SetQuorumPercentage(tx, pct) })
			id := h.propose(owner, time.Hour)
			for i := 0; i < yes+no; i++ {
				voter, support := voters[i], i < yes
				h.mustCall(voter, func(tx *chain.Tx) error { return h.dao.Vote(tx, id, support) })
			}
			if pastDeadline {
				h.clock.Advance(time.Hour)
			}

			required := uint64(len(voters)) * pct / 100
			shouldPass := pastDeadline &&
				uint64(yes+no) >= required &&
				yes > no

			_, err := h.call(mallory, func(tx *chain.Tx) error { return h.dao.ExecuteProposal(tx, id) })
			if shouldPass != (err == nil) {
				return false
			}
			if err == nil {
				return true
			}
			switch {
			case !pastDeadline:
				return err == ErrVotingNotEnded
			case uint64(yes+no) < required:
				return err == ErrQuorumNotReached
			default:
				return err == ErrProposalDidNotPass
			}
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, 7),
		gen.IntRange(0, 7),
		gen.UInt64Range(1, 100),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
