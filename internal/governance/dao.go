// Package governance implements the DAO: membership, proposals and
// one-address-one-vote voting with quorum and majority rules.
package governance

import (
	"time"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	MaxMembers              = 1000
	MaxNameLength           = 100
	MaxTitleLength          = 200
	MaxDescriptionLength    = 2000
	DefaultQuorumPercentage = 51

	MinProposalDuration = time.Hour
	MaxProposalDuration = 30 * 24 * time.Hour
)

type proposal struct {
	id          uint64
	title       string
	description string
	yesVotes    uint64
	noVotes     uint64
	createdAt   time.Time
	deadline    time.Time
	executed    bool
	executedAt  time.Time
	proposer    common.Address
	voters      map[common.Address]bool
}

// DAO is a governance unit. All mutating methods run inside a chain.Tx.
type DAO struct {
	chain.Ownable

	addr common.Address
	name string

	members   []common.Address
	memberIdx map[common.Address]int
	proposals map[uint64]*proposal
	nextID    uint64
	vault     common.Address
	quorum    uint64
	paused    bool
	createdAt time.Time
}

// New creates a DAO at addr owned by owner. The owner is the first member.
func New(addr common.Address, name string, owner common.Address, now time.Time) (*DAO, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if owner == (common.Address{}) {
		return nil, chain.ErrInvalidNewOwner
	}

	d := &DAO{
		Ownable:   chain.NewOwnable(addr, owner, ErrNotOwner),
		addr:      addr,
		name:      name,
		memberIdx: make(map[common.Address]int),
		proposals: make(map[uint64]*proposal),
		quorum:    DefaultQuorumPercentage,
		createdAt: now,
	}
	d.memberIdx[owner] = 0
	d.members = append(d.members, owner)
	return d, nil
}

// Address implements chain.Contract
func (d *DAO) Address() common.Address { return d.addr }

// Kind implements chain.Contract
func (d *DAO) Kind() types.ContractKind { return types.KindDAO }

func (d *DAO) whenNotPaused() error {
	if d.paused {
		return ErrPaused
	}
	return nil
}

func (d *DAO) onlyMember(tx *chain.Tx) error {
	if !d.IsMember(tx.From) {
		return ErrNotMember
	}
	return nil
}

func (d *DAO) onlyOwnerNotPaused(tx *chain.Tx) error {
	if err := d.OnlyOwner(tx); err != nil {
		return err
	}
	return d.whenNotPaused()
}

func (d *DAO) addMember(tx *chain.Tx, member common.Address) {
	d.memberIdx[member] = len(d.members)
	d.members = append(d.members, member)
	tx.OnRevert(func() { d.dropMember(member) })
	tx.Emit(d.addr, EvMemberAdded, chain.Fields{"member": member})
}

// dropMember swaps the last member into the removed slot
func (d *DAO) dropMember(member common.Address) {
	i, ok := d.memberIdx[member]
	if !ok {
		return
	}
	last := len(d.members) - 1
	if i != last {
		moved := d.members[last]
		d.members[i] = moved
		d.memberIdx[moved] = i
	}
	d.members = d.members[:last]
	delete(d.memberIdx, member)
}

func (d *DAO) restoreMembers(list []common.Address) {
	d.members = list
	d.memberIdx = make(map[common.Address]int, len(list))
	for i, m := range list {
		d.memberIdx[m] = i
	}
}

// AddMember admits a new member. Owner only.
func (d *DAO) AddMember(tx *chain.Tx, member common.Address) error {
	if err := d.onlyOwnerNotPaused(tx); err != nil {
		return err
	}
	if member == (common.Address{}) {
		return ErrInvalidMember
	}
	if d.IsMember(member) {
		return ErrAlreadyMember
	}
	if len(d.members) >= MaxMembers {
		return ErrMemberLimit
	}
	d.addMember(tx, member)
	return nil
}

// RemoveMember strikes a member. The owner can never be removed.
func (d *DAO) RemoveMember(tx *chain.Tx, member common.Address) error {
	if err := d.onlyOwnerNotPaused(tx); err != nil {
		return err
	}
	if member == (common.Address{}) {
		return ErrInvalidMember
	}
	if member == d.Owner() {
		return ErrCannotRemoveOwner
	}
	if !d.IsMember(member) {
		return ErrNotMember
	}

	prev := d.GetMembers()
	d.dropMember(member)
	tx.OnRevert(func() { d.restoreMembers(prev) })
	tx.Emit(d.addr, EvMemberRemoved, chain.Fields{"member": member})
	return nil
}

// Propose opens a proposal for voting until now+duration and returns its id.
func (d *DAO) Propose(tx *chain.Tx, title, description string, duration time.Duration) (uint64, error) {
	if err := d.onlyMember(tx); err != nil {
		return 0, err
	}
	if err := d.whenNotPaused(); err != nil {
		return 0, err
	}
	switch {
	case title == "":
		return 0, ErrTitleEmpty
	case len(title) > MaxTitleLength:
		return 0, ErrTitleTooLong
	case description == "":
		return 0, ErrDescriptionEmpty
	case len(description) > MaxDescriptionLength:
		return 0, ErrDescriptionTooLong
	case duration < MinProposalDuration:
		return 0, ErrDurationTooShort
	case duration > MaxProposalDuration:
		return 0, ErrDurationTooLong
	}

	d.nextID++
	id := d.nextID
	p := &proposal{
		id:          id,
		title:       title,
		description: description,
		createdAt:   tx.Now(),
		deadline:    tx.Now().Add(duration),
		proposer:    tx.From,
		voters:      make(map[common.Address]bool),
	}
	d.proposals[id] = p
	tx.OnRevert(func() {
		delete(d.proposals, id)
		d.nextID = id - 1
	})

	tx.Emit(d.addr, EvProposalCreated, chain.Fields{
		"proposalId": id,
		"proposer":   tx.From,
		"title":      title,
		"deadline":   p.deadline.Unix(),
	})
	return id, nil
}

// Vote records the caller's single vote on a proposal.
func (d *DAO) Vote(tx *chain.Tx, id uint64, support bool) error {
	if err := d.onlyMember(tx); err != nil {
		return err
	}
	if err := d.whenNotPaused(); err != nil {
		return err
	}
	p, ok := d.proposals[id]
	if !ok {
		return ErrProposalNotFound
	}
	if !tx.Now().Before(p.deadline) {
		return ErrVotingEnded
	}
	if p.voters[tx.From] {
		return ErrAlreadyVoted
	}
	if p.executed {
		return ErrAlreadyExecuted
	}

	voter := tx.From
	p.voters[voter] = true
	if support {
		p.yesVotes++
	} else {
		p.noVotes++
	}
	tx.OnRevert(func() {
		delete(p.voters, voter)
		if support {
			p.yesVotes--
		} else {
			p.noVotes--
		}
	})

	tx.Emit(d.addr, EvVoted, chain.Fields{
		"proposalId": id,
		"voter":      voter,
		"support":    support,
	})
	return nil
}

// ExecuteProposal marks a passed proposal as executed. Anyone may call it
// once voting has ended. Execution moves no funds.
func (d *DAO) ExecuteProposal(tx *chain.Tx, id uint64) error {
	if err := d.whenNotPaused(); err != nil {
		return err
	}
	p, ok := d.proposals[id]
	if !ok {
		return ErrProposalNotFound
	}
	if p.executed {
		return ErrAlreadyExecuted
	}
	if tx.Now().Before(p.deadline) {
		return ErrVotingNotEnded
	}
	if p.yesVotes+p.noVotes < d.RequiredQuorum() {
		return ErrQuorumNotReached
	}
	if p.yesVotes <= p.noVotes {
		return ErrProposalDidNotPass
	}

	p.executed = true
	p.executedAt = tx.Now()
	tx.OnRevert(func() {
		p.executed = false
		p.executedAt = time.Time{}
	})

	tx.Emit(d.addr, EvProposalExecuted, chain.Fields{
		"proposalId": id,
		"passed":     true,
	})
	return nil
}

// AttachVault links one treasury to the DAO.
func (d *DAO) AttachVault(tx *chain.Tx, vault common.Address) error {
	if err := d.onlyOwnerNotPaused(tx); err != nil {
		return err
	}
	if vault == (common.Address{}) {
		return ErrInvalidVault
	}
	if d.vault != (common.Address{}) {
		return ErrVaultAttached
	}

	d.vault = vault
	tx.OnRevert(func() { d.vault = common.Address{} })
	tx.Emit(d.addr, EvVaultAttached, chain.Fields{"vault": vault})
	return nil
}

// DetachVault unlinks the attached treasury.
func (d *DAO) DetachVault(tx *chain.Tx) error {
	if err := d.onlyOwnerNotPaused(tx); err != nil {
		return err
	}
	if d.vault == (common.Address{}) {
		return ErrNoVaultAttached
	}

	prev := d.vault
	d.vault = common.Address{}
	tx.OnRevert(func() { d.vault = prev })
	tx.Emit(d.addr, EvVaultDetached, chain.Fields{"vault": prev})
	return nil
}

// SetQuorumPercentage changes the execution quorum. Allowed while paused.
func (d *DAO) SetQuorumPercentage(tx *chain.Tx, pct uint64) error {
	if err := d.OnlyOwner(tx); err != nil {
		return err
	}
	if pct < 1 || pct > 100 {
		return ErrInvalidQuorum
	}

	prev := d.quorum
	d.quorum = pct
	tx.OnRevert(func() { d.quorum = prev })
	tx.Emit(d.addr, EvQuorumUpdated, chain.Fields{
		"oldPercentage": prev,
		"newPercentage": pct,
	})
	return nil
}

// Pause blocks membership changes, proposals, votes, execution and vault linking.
func (d *DAO) Pause(tx *chain.Tx) error {
	if err := d.onlyOwnerNotPaused(tx); err != nil {
		return err
	}
	d.paused = true
	tx.OnRevert(func() { d.paused = false })
	tx.Emit(d.addr, EvPaused, chain.Fields{"account": tx.From})
	return nil
}

// Unpause lifts a pause.
func (d *DAO) Unpause(tx *chain.Tx) error {
	if err := d.OnlyOwner(tx); err != nil {
		return err
	}
	if !d.paused {
		return ErrNotPaused
	}
	d.paused = false
	tx.OnRevert(func() { d.paused = true })
	tx.Emit(d.addr, EvUnpaused, chain.Fields{"account": tx.From})
	return nil
}

// TransferOwnership hands the DAO to newOwner, admitting them as a member
// when they are not one already.
func (d *DAO) TransferOwnership(tx *chain.Tx, newOwner common.Address) error {
	if err := d.OnlyOwner(tx); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return chain.ErrInvalidNewOwner
	}
	if !d.IsMember(newOwner) {
		if len(d.members) >= MaxMembers {
			return ErrMemberLimit
		}
		d.addMember(tx, newOwner)
	}
	return d.Ownable.TransferOwnership(tx, newOwner)
}

// Reads

// Name returns the immutable DAO name
func (d *DAO) Name() string { return d.name }

// IsMember reports membership
func (d *DAO) IsMember(account common.Address) bool {
	_, ok := d.memberIdx[account]
	return ok
}

// MemberCount returns the number of members
func (d *DAO) MemberCount() int { return len(d.members) }

// GetMembers returns a copy of the member list. Order is not stable across removals.
func (d *DAO) GetMembers() []common.Address {
	out := make([]common.Address, len(d.members))
	copy(out, d.members)
	return out
}

// ProposalCount returns the number of proposals ever created
func (d *DAO) ProposalCount() uint64 { return d.nextID }

// QuorumPercentage returns the configured quorum
func (d *DAO) QuorumPercentage() uint64 { return d.quorum }

// RequiredQuorum is the minimum number of votes needed to execute, with
// integer truncation.
func (d *DAO) RequiredQuorum() uint64 {
	return uint64(len(d.members)) * d.quorum / 100
}

// AttachedVault returns the linked treasury or the zero address
func (d *DAO) AttachedVault() common.Address { return d.vault }

// Paused reports the pause flag
func (d *DAO) Paused() bool { return d.paused }

// HasVoted reports whether voter has voted on proposal id
func (d *DAO) HasVoted(id uint64, voter common.Address) bool {
	p, ok := d.proposals[id]
	return ok && p.voters[voter]
}

// GetProposal returns a snapshot of a proposal
func (d *DAO) GetProposal(id uint64) (Proposal, error) {
	p, ok := d.proposals[id]
	if !ok {
		return Proposal{}, ErrProposalNotFound
	}
	return Proposal{
		ID:          p.id,
		Title:       p.title,
		Description: p.description,
		YesVotes:    p.yesVotes,
		NoVotes:     p.noVotes,
		CreatedAt:   p.createdAt,
		Deadline:    p.deadline,
		Executed:    p.executed,
		ExecutedAt:  p.executedAt,
		Proposer:    p.proposer,
	}, nil
}

// Info summarizes the DAO
func (d *DAO) Info() Info {
	return Info{
		Address:          d.addr,
		Name:             d.name,
		Owner:            d.Owner(),
		Vault:            d.vault,
		QuorumPercentage: d.quorum,
		Paused:           d.paused,
		MemberCount:      len(d.members),
		ProposalCount:    d.nextID,
		RequiredQuorum:   d.RequiredQuorum(),
		CreatedAt:        d.createdAt,
	}
}
