package service

import (
	"context"

	"github.com/dao-vault/internal/chain"
	apperrors "github.com/dao-vault/internal/errors"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrNativeAllowance = apperrors.NewValidation("NATIVE_ALLOWANCE", "Native asset has no allowance")

func (s *Service) ledgerCall(ctx context.Context, caller common.Address, method string, fn func(tx *chain.Tx) error) (*chain.Receipt, error) {
	if caller == (common.Address{}) {
		return nil, ErrCallerRequired
	}
	return s.rt.Submit(ctx, chain.Call{From: caller, Method: method}, func(tx *chain.Tx) error {
		if err := checkOrigin(tx, caller); err != nil {
			return err
		}
		return fn(tx)
	})
}

// Faucet mints amount of asset to account. It only works when the faucet is enabled.
func (s *Service) Faucet(ctx context.Context, caller, asset, account common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	if !s.faucet {
		return nil, ErrFaucetDisabled
	}
	if err := requireAmount(amount); err != nil {
		return nil, err
	}
	if account == (common.Address{}) {
		return nil, chain.ErrZeroRecipient
	}
	return s.ledgerCall(ctx, caller, "faucet", func(tx *chain.Tx) error {
		return tx.Mint(asset, account, amount)
	})
}

// SetRejecting makes account refuse incoming transfers, simulating a
// recipient whose receive hook fails. Faucet-gated like minting.
func (s *Service) SetRejecting(ctx context.Context, caller, account common.Address, rejecting bool) (*chain.Receipt, error) {
	if !s.faucet {
		return nil, ErrFaucetDisabled
	}
	return s.ledgerCall(ctx, caller, "setRejecting", func(tx *chain.Tx) error {
		tx.SetRejecting(account, rejecting)
		return nil
	})
}

// Approve sets caller's token allowance for spender
func (s *Service) Approve(ctx context.Context, caller, asset, spender common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	if types.IsNative(asset) {
		return nil, ErrNativeAllowance
	}
	if err := requireAmount(amount); err != nil {
		return nil, err
	}
	return s.ledgerCall(ctx, caller, "approve", func(tx *chain.Tx) error {
		tx.Approve(asset, caller, spender, amount)
		return nil
	})
}

// Transfer moves caller's own funds to another account
func (s *Service) Transfer(ctx context.Context, caller, asset, to common.Address, amount *uint256.Int) (*chain.Receipt, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}
	return s.ledgerCall(ctx, caller, "transfer", func(tx *chain.Tx) error {
		return tx.Transfer(asset, caller, to, amount)
	})
}

// BalanceOf returns account's ledger balance of asset
func (s *Service) BalanceOf(asset, account common.Address) *uint256.Int {
	var out *uint256.Int
	_ = s.rt.View(func(r chain.Reader) error {
		out = r.BalanceOf(asset, account)
		return nil
	})
	return out
}

// Allowance returns how much spender may pull from owner
func (s *Service) Allowance(asset, owner, spender common.Address) *uint256.Int {
	var out *uint256.Int
	_ = s.rt.View(func(r chain.Reader) error {
		out = r.Allowance(asset, owner, spender)
		return nil
	})
	return out
}
