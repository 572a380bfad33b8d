package service

import (
	"context"
	"time"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/governance"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/registry"
	"github.com/ethereum/go-ethereum/common"
)

// ProposeInput describes a new governance proposal
type ProposeInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration"`
}

// ProposalView is a proposal snapshot with its derived state
type ProposalView struct {
	governance.Proposal
	TotalVotes     uint64                   `json:"totalVotes"`
	RequiredQuorum uint64                   `json:"requiredQuorum"`
	State          governance.ProposalState `json:"state"`
}

// DAOView is a DAO summary including its registry link
type DAOView struct {
	governance.Info
	Members         []common.Address `json:"members"`
	RegisteredVault common.Address   `json:"registeredVault"`
	Creator         common.Address   `json:"creator"`
}

func (s *Service) daoCall(ctx context.Context, caller, dao common.Address, method string, fn func(tx *chain.Tx, d *governance.DAO) error) (*chain.Receipt, error) {
	return submitTo(ctx, s, chain.Call{From: caller, To: dao, Method: method}, ErrDAONotFound, fn)
}

// CreateDAO deploys a DAO owned by caller through the factory
func (s *Service) CreateDAO(ctx context.Context, caller common.Address, name string) (common.Address, *chain.Receipt, error) {
	var dao common.Address
	receipt, err := submitTo(ctx, s, chain.Call{From: caller, To: s.daoFactory, Method: "createDAO"}, ErrDAOFactoryNotFound,
		func(tx *chain.Tx, f *registry.DAOFactory) error {
			var err error
			dao, err = f.CreateDAO(tx, name)
			return err
		})
	if err != nil {
		return common.Address{}, receipt, err
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"dao":     dao.Hex(),
		"creator": caller.Hex(),
	}).Info("DAO created")
	return dao, receipt, nil
}

// AddMember adds member to dao
func (s *Service) AddMember(ctx context.Context, caller, dao, member common.Address) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "addMember", func(tx *chain.Tx, d *governance.DAO) error {
		return d.AddMember(tx, member)
	})
}

// RemoveMember removes member from dao
func (s *Service) RemoveMember(ctx context.Context, caller, dao, member common.Address) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "removeMember", func(tx *chain.Tx, d *governance.DAO) error {
		return d.RemoveMember(tx, member)
	})
}

// Propose opens a proposal and returns its id
func (s *Service) Propose(ctx context.Context, caller, dao common.Address, input ProposeInput) (uint64, *chain.Receipt, error) {
	var id uint64
	receipt, err := s.daoCall(ctx, caller, dao, "propose", func(tx *chain.Tx, d *governance.DAO) error {
		var err error
		id, err = d.Propose(tx, input.Title, input.Description, input.Duration)
		return err
	})
	if err != nil {
		return 0, receipt, err
	}
	return id, receipt, nil
}

// Vote casts caller's vote on proposal id
func (s *Service) Vote(ctx context.Context, caller, dao common.Address, id uint64, support bool) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "vote", func(tx *chain.Tx, d *governance.DAO) error {
		return d.Vote(tx, id, support)
	})
}

// ExecuteProposal marks a passed proposal executed
func (s *Service) ExecuteProposal(ctx context.Context, caller, dao common.Address, id uint64) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "executeProposal", func(tx *chain.Tx, d *governance.DAO) error {
		return d.ExecuteProposal(tx, id)
	})
}

// AttachVault records vault on the DAO itself. The factory registry is a
// separate record, see RegisterVault.
func (s *Service) AttachVault(ctx context.Context, caller, dao, vault common.Address) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "attachVault", func(tx *chain.Tx, d *governance.DAO) error {
		return d.AttachVault(tx, vault)
	})
}

// DetachVault clears the DAO's attached vault
func (s *Service) DetachVault(ctx context.Context, caller, dao common.Address) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "detachVault", func(tx *chain.Tx, d *governance.DAO) error {
		return d.DetachVault(tx)
	})
}

// SetQuorumPercentage changes the DAO quorum
func (s *Service) SetQuorumPercentage(ctx context.Context, caller, dao common.Address, pct uint64) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "setQuorumPercentage", func(tx *chain.Tx, d *governance.DAO) error {
		return d.SetQuorumPercentage(tx, pct)
	})
}

// PauseDAO halts membership and proposal activity
func (s *Service) PauseDAO(ctx context.Context, caller, dao common.Address) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "pause", func(tx *chain.Tx, d *governance.DAO) error {
		return d.Pause(tx)
	})
}

// UnpauseDAO lifts a DAO pause
func (s *Service) UnpauseDAO(ctx context.Context, caller, dao common.Address) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "unpause", func(tx *chain.Tx, d *governance.DAO) error {
		return d.Unpause(tx)
	})
}

// TransferDAOOwnership hands the DAO to newOwner
func (s *Service) TransferDAOOwnership(ctx context.Context, caller, dao, newOwner common.Address) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "transferOwnership", func(tx *chain.Tx, d *governance.DAO) error {
		return d.TransferOwnership(tx, newOwner)
	})
}

// RenounceDAOOwnership leaves the DAO without an owner
func (s *Service) RenounceDAOOwnership(ctx context.Context, caller, dao common.Address) (*chain.Receipt, error) {
	return s.daoCall(ctx, caller, dao, "renounceOwnership", func(tx *chain.Tx, d *governance.DAO) error {
		return d.RenounceOwnership(tx)
	})
}

// GetDAO returns a summary of dao with its member list and registry link
func (s *Service) GetDAO(dao common.Address) (*DAOView, error) {
	return viewOf(s, dao, ErrDAONotFound, func(r chain.Reader, d *governance.DAO) (*DAOView, error) {
		view := &DAOView{Info: d.Info(), Members: d.GetMembers()}
		if f, ok := chain.Lookup[*registry.DAOFactory](r, s.daoFactory); ok {
			view.RegisteredVault = f.GetDAOVault(dao)
			view.Creator = f.GetDAOCreator(dao)
		}
		return view, nil
	})
}

// GetMembers lists the members of dao
func (s *Service) GetMembers(dao common.Address) ([]common.Address, error) {
	return viewOf(s, dao, ErrDAONotFound, func(_ chain.Reader, d *governance.DAO) ([]common.Address, error) {
		return d.GetMembers(), nil
	})
}

// GetProposal returns proposal id with its state at the current time
func (s *Service) GetProposal(dao common.Address, id uint64) (*ProposalView, error) {
	return viewOf(s, dao, ErrDAONotFound, func(r chain.Reader, d *governance.DAO) (*ProposalView, error) {
		p, err := d.GetProposal(id)
		if err != nil {
			return nil, err
		}
		quorum := d.RequiredQuorum()
		return &ProposalView{
			Proposal:       p,
			TotalVotes:     p.TotalVotes(),
			RequiredQuorum: quorum,
			State:          p.State(r.Now(), quorum),
		}, nil
	})
}

// ListProposals returns every proposal of dao in id order
func (s *Service) ListProposals(dao common.Address) ([]*ProposalView, error) {
	return viewOf(s, dao, ErrDAONotFound, func(r chain.Reader, d *governance.DAO) ([]*ProposalView, error) {
		quorum := d.RequiredQuorum()
		out := make([]*ProposalView, 0, d.ProposalCount())
		for id := uint64(1); id <= d.ProposalCount(); id++ {
			p, err := d.GetProposal(id)
			if err != nil {
				return nil, err
			}
			out = append(out, &ProposalView{
				Proposal:       p,
				TotalVotes:     p.TotalVotes(),
				RequiredQuorum: quorum,
				State:          p.State(r.Now(), quorum),
			})
		}
		return out, nil
	})
}

// HasVoted reports whether voter voted on proposal id
func (s *Service) HasVoted(dao common.Address, id uint64, voter common.Address) (bool, error) {
	return viewOf(s, dao, ErrDAONotFound, func(_ chain.Reader, d *governance.DAO) (bool, error) {
		if _, err := d.GetProposal(id); err != nil {
			return false, err
		}
		return d.HasVoted(id, voter), nil
	})
}
