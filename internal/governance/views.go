package governance

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalState is a derived lifecycle label
type ProposalState string

const (
	StateActive     ProposalState = "active"
	StateExecutable ProposalState = "executable"
	StateExecuted   ProposalState = "executed"
	StateDefeated   ProposalState = "defeated"
)

// Proposal is a read-only proposal snapshot
type Proposal struct {
	ID          uint64         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	YesVotes    uint64         `json:"yesVotes"`
	NoVotes     uint64         `json:"noVotes"`
	CreatedAt   time.Time      `json:"createdAt"`
	Deadline    time.Time      `json:"deadline"`
	Executed    bool           `json:"executed"`
	ExecutedAt  time.Time      `json:"executedAt,omitempty"`
	Proposer    common.Address `json:"proposer"`
}

// TotalVotes returns yes plus no votes
func (p Proposal) TotalVotes() uint64 {
	return p.YesVotes + p.NoVotes
}

// State derives the lifecycle label at now given the DAO's current quorum
func (p Proposal) State(now time.Time, requiredQuorum uint64) ProposalState {
	switch {
	case p.Executed:
		return StateExecuted
	case now.Before(p.Deadline):
		return StateActive
	case p.TotalVotes() >= requiredQuorum && p.YesVotes > p.NoVotes:
		return StateExecutable
	default:
		return StateDefeated
	}
}

// Info summarizes a DAO
type Info struct {
	Address          common.Address `json:"address"`
	Name             string         `json:"name"`
	Owner            common.Address `json:"owner"`
	Vault            common.Address `json:"vault"`
	QuorumPercentage uint64         `json:"quorumPercentage"`
	Paused           bool           `json:"paused"`
	MemberCount      int            `json:"memberCount"`
	ProposalCount    uint64         `json:"proposalCount"`
	RequiredQuorum   uint64         `json:"requiredQuorum"`
	CreatedAt        time.Time      `json:"createdAt"`
}
