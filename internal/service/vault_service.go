package service

import (
	"context"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/registry"
	"github.com/dao-vault/internal/treasury"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CreateVaultInput selects the factory entry point. A nil limit together
// with zero signatures uses both defaults; zero signatures alone uses the
// default threshold.
type CreateVaultInput struct {
	DAO                common.Address `json:"dao"`
	WithdrawalLimit    *uint256.Int   `json:"withdrawalLimit,omitempty"`
	RequiredSignatures uint64         `json:"requiredSignatures,omitempty"`
}

// SpendingProposalInput describes a large payment requiring approvals
type SpendingProposalInput struct {
	Asset       common.Address `json:"asset"`
	Amount      *uint256.Int   `json:"amount"`
	Recipient   common.Address `json:"recipient"`
	Description string         `json:"description"`
}

// AssetBalance pairs an asset with an amount
type AssetBalance struct {
	Asset   common.Address `json:"asset"`
	Label   string         `json:"label"`
	Balance *uint256.Int   `json:"balance"`
}

// VaultView is a vault summary with its signers and holdings
type VaultView struct {
	treasury.Info
	Signers  []common.Address `json:"signers"`
	Balances []AssetBalance   `json:"balances"`
}

// SpendingProposalView is a spending proposal with its expiry flag
type SpendingProposalView struct {
	treasury.SpendingProposal
	Expired bool `json:"expired"`
}

func (s *Service) vaultCall(ctx context.Context, call chain.Call, fn func(tx *chain.Tx, v *treasury.Vault) error) (*chain.Receipt, error) {
	return submitTo(ctx, s, call, ErrVaultNotFound, fn)
}

// CreateVault deploys a vault for input.DAO owned by caller
func (s *Service) CreateVault(ctx context.Context, caller common.Address, input CreateVaultInput) (common.Address, *chain.Receipt, error) {
	var vault common.Address
	method := "createVault"
	switch {
	case input.WithdrawalLimit == nil && input.RequiredSignatures == 0:
		method = "createDefaultVault"
	case input.RequiredSignatures != 0:
		method = "createVaultWithCustomParams"
	}

	receipt, err := submitTo(ctx, s, chain.Call{From: caller, To: s.vaultFactory, Method: method}, ErrVaultFactoryNotFound,
		func(tx *chain.Tx, f *registry.VaultFactory) error {
			var err error
			switch {
			case input.WithdrawalLimit == nil && input.RequiredSignatures == 0:
				vault, err = f.CreateDefaultVault(tx, input.DAO)
			case input.WithdrawalLimit == nil:
				vault, err = f.CreateVaultWithCustomParams(tx, input.DAO, f.GetDefaultParameters().WithdrawalLimit, input.RequiredSignatures)
			case input.RequiredSignatures == 0:
				vault, err = f.CreateVault(tx, input.DAO, input.WithdrawalLimit)
			default:
				vault, err = f.CreateVaultWithCustomParams(tx, input.DAO, input.WithdrawalLimit, input.RequiredSignatures)
			}
			return err
		})
	if err != nil {
		return common.Address{}, receipt, err
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"vault":   vault.Hex(),
		"dao":     input.DAO.Hex(),
		"creator": caller.Hex(),
	}).Info("Vault created")
	return vault, receipt, nil
}

// Deposit moves amount of asset from caller into vault. Native deposits
// attach the amount as call value; token deposits spend caller's allowance.
func (s *Service) Deposit(ctx context.Context, caller, vault, asset common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}
	call := chain.Call{From: caller, To: vault, Method: "deposit"}
	if types.IsNative(asset) {
		call.Value = amount
	}
	return s.vaultCall(ctx, call, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.Deposit(tx, asset, amount)
	})
}

// Withdraw pays out directly. Only the vault's DAO address may call it.
func (s *Service) Withdraw(ctx context.Context, caller, vault, asset common.Address, amount *uint256.Int, recipient common.Address) (*chain.Receipt, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "withdraw"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.Withdraw(tx, asset, amount, recipient)
	})
}

// CreateSpendingProposal opens a multi-signature payment and returns its id
func (s *Service) CreateSpendingProposal(ctx context.Context, caller, vault common.Address, input SpendingProposalInput) (uint64, *chain.Receipt, error) {
	if err := requireAmount(input.Amount); err != nil {
		return 0, nil, err
	}
	var id uint64
	receipt, err := s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "createSpendingProposal"}, func(tx *chain.Tx, v *treasury.Vault) error {
		var err error
		id, err = v.CreateSpendingProposal(tx, input.Asset, input.Amount, input.Recipient, input.Description)
		return err
	})
	if err != nil {
		return 0, receipt, err
	}
	return id, receipt, nil
}

// ApproveSpendingProposal records caller's approval; reaching the threshold executes it
func (s *Service) ApproveSpendingProposal(ctx context.Context, caller, vault common.Address, id uint64) (*chain.Receipt, error) {
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "approveSpendingProposal"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.ApproveSpendingProposal(tx, id)
	})
}

// ExecuteSpendingProposal retries execution of an approved proposal
func (s *Service) ExecuteSpendingProposal(ctx context.Context, caller, vault common.Address, id uint64) (*chain.Receipt, error) {
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "executeSpendingProposal"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.ExecuteSpendingProposal(tx, id)
	})
}

// AddSigner authorizes signer on vault
func (s *Service) AddSigner(ctx context.Context, caller, vault, signer common.Address) (*chain.Receipt, error) {
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "addSigner"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.AddSigner(tx, signer)
	})
}

// RemoveSigner revokes signer on vault
func (s *Service) RemoveSigner(ctx context.Context, caller, vault, signer common.Address) (*chain.Receipt, error) {
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "removeSigner"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.RemoveSigner(tx, signer)
	})
}

// UpdateWithdrawalLimit changes the direct withdrawal ceiling
func (s *Service) UpdateWithdrawalLimit(ctx context.Context, caller, vault common.Address, limit *uint256.Int) (*chain.Receipt, error) {
	if err := requireAmount(limit); err != nil {
		return nil, err
	}
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "updateWithdrawalLimit"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.UpdateWithdrawalLimit(tx, limit)
	})
}

// UpdateRequiredSignatures changes the approval threshold
func (s *Service) UpdateRequiredSignatures(ctx context.Context, caller, vault common.Address, required uint64) (*chain.Receipt, error) {
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "updateRequiredSignatures"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.UpdateRequiredSignatures(tx, required)
	})
}

// EmergencyPause freezes vault payouts
func (s *Service) EmergencyPause(ctx context.Context, caller, vault common.Address, reason string) (*chain.Receipt, error) {
	receipt, err := s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "emergencyPause"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.EmergencyPause(tx, reason)
	})
	if err == nil {
		logging.FromContext(ctx).WithFields(map[string]interface{}{
			"vault":  vault.Hex(),
			"by":     caller.Hex(),
			"reason": reason,
		}).Warn("Vault emergency pause")
	}
	return receipt, err
}

// UnpauseVault lifts an emergency pause
func (s *Service) UnpauseVault(ctx context.Context, caller, vault common.Address) (*chain.Receipt, error) {
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "unpause"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.Unpause(tx)
	})
}

// TransferVaultOwnership hands the vault to newOwner
func (s *Service) TransferVaultOwnership(ctx context.Context, caller, vault, newOwner common.Address) (*chain.Receipt, error) {
	return s.vaultCall(ctx, chain.Call{From: caller, To: vault, Method: "transferOwnership"}, func(tx *chain.Tx, v *treasury.Vault) error {
		return v.TransferOwnership(tx, newOwner)
	})
}

// GetVault returns a summary of vault with its signers and every held asset
func (s *Service) GetVault(vault common.Address) (*VaultView, error) {
	return viewOf(s, vault, ErrVaultNotFound, func(_ chain.Reader, v *treasury.Vault) (*VaultView, error) {
		assets := append([]common.Address{types.NativeAsset}, v.GetSupportedTokens()...)
		balances := make([]AssetBalance, 0, len(assets))
		for _, asset := range assets {
			balances = append(balances, AssetBalance{
				Asset:   asset,
				Label:   types.AssetLabel(asset),
				Balance: v.GetBalance(asset),
			})
		}
		return &VaultView{Info: v.Info(), Signers: v.GetSigners(), Balances: balances}, nil
	})
}

// GetVaultBalance returns the vault's tracked balance of asset
func (s *Service) GetVaultBalance(vault, asset common.Address) (*uint256.Int, error) {
	return viewOf(s, vault, ErrVaultNotFound, func(_ chain.Reader, v *treasury.Vault) (*uint256.Int, error) {
		return v.GetBalance(asset), nil
	})
}

// GetSigners lists the vault's signers
func (s *Service) GetSigners(vault common.Address) ([]common.Address, error) {
	return viewOf(s, vault, ErrVaultNotFound, func(_ chain.Reader, v *treasury.Vault) ([]common.Address, error) {
		return v.GetSigners(), nil
	})
}

// GetSupportedTokens lists every token deposited into vault
func (s *Service) GetSupportedTokens(vault common.Address) ([]common.Address, error) {
	return viewOf(s, vault, ErrVaultNotFound, func(_ chain.Reader, v *treasury.Vault) ([]common.Address, error) {
		return v.GetSupportedTokens(), nil
	})
}

// GetSpendingProposal returns spending proposal id
func (s *Service) GetSpendingProposal(vault common.Address, id uint64) (*SpendingProposalView, error) {
	return viewOf(s, vault, ErrVaultNotFound, func(r chain.Reader, v *treasury.Vault) (*SpendingProposalView, error) {
		p, err := v.GetSpendingProposal(id)
		if err != nil {
			return nil, err
		}
		return &SpendingProposalView{SpendingProposal: p, Expired: p.Expired(r.Now())}, nil
	})
}

// HasApproved reports whether signer approved spending proposal id
func (s *Service) HasApproved(vault common.Address, id uint64, signer common.Address) (bool, error) {
	return viewOf(s, vault, ErrVaultNotFound, func(_ chain.Reader, v *treasury.Vault) (bool, error) {
		if _, err := v.GetSpendingProposal(id); err != nil {
			return false, err
		}
		return v.HasApproved(id, signer), nil
	})
}
