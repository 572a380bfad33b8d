// Package service is the call surface used by the bot front-end. Each
// mutating method submits exactly one transaction to the chain runtime and
// returns its outcome together with the receipt.
package service

import (
	"context"
	"fmt"

	"github.com/dao-vault/internal/chain"
	apperrors "github.com/dao-vault/internal/errors"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/registry"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrDAONotFound          = apperrors.NewMissing("DAO_NOT_FOUND", "DAO not found")
	ErrVaultNotFound        = apperrors.NewMissing("VAULT_NOT_FOUND", "Vault not found")
	ErrDAOFactoryNotFound   = apperrors.NewMissing("DAO_FACTORY_NOT_FOUND", "DAO factory not deployed")
	ErrVaultFactoryNotFound = apperrors.NewMissing("VAULT_FACTORY_NOT_FOUND", "Vault factory not deployed")
	ErrReceiptNotFound      = apperrors.NewMissing("RECEIPT_NOT_FOUND", "Transaction not found")
	ErrFaucetDisabled       = apperrors.NewAuthorization("FAUCET_DISABLED", "Faucet is disabled")
	ErrAmountRequired       = apperrors.NewValidation("AMOUNT_REQUIRED", "Amount is required")
	ErrCallerRequired       = apperrors.NewValidation("CALLER_REQUIRED", "Caller address is required")
	ErrContractCaller       = apperrors.NewAuthorization("CONTRACT_CALLER", "Vault and factory contracts cannot originate calls")
)

// Service wraps the runtime and the two deployed factories
type Service struct {
	rt           *chain.Runtime
	admin        common.Address
	daoFactory   common.Address
	vaultFactory common.Address
	faucet       bool
}

// Option configures a Service
type Option func(*Service)

// WithFaucet enables the ledger faucet
func WithFaucet(enabled bool) Option {
	return func(s *Service) { s.faucet = enabled }
}

// New deploys the DAO and vault factories from admin in a single bootstrap
// transaction and returns a Service bound to them.
func New(ctx context.Context, rt *chain.Runtime, admin common.Address, opts ...Option) (*Service, error) {
	if admin == (common.Address{}) {
		return nil, apperrors.NewInvalidParameterError("admin", "factory admin cannot be the zero address")
	}
	s := &Service{rt: rt, admin: admin}
	for _, opt := range opts {
		opt(s)
	}

	_, err := rt.Submit(ctx, chain.Call{From: admin, Method: "bootstrap"}, func(tx *chain.Tx) error {
		df, err := tx.Deploy(admin, func(addr common.Address) (chain.Contract, error) {
			return registry.NewDAOFactory(addr, admin), nil
		})
		if err != nil {
			return err
		}
		vf, err := tx.Deploy(admin, func(addr common.Address) (chain.Contract, error) {
			return registry.NewVaultFactory(addr, admin), nil
		})
		if err != nil {
			return err
		}
		s.daoFactory = df.Address()
		s.vaultFactory = vf.Address()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deploy factories: %w", err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"admin":         admin.Hex(),
		"dao_factory":   s.daoFactory.Hex(),
		"vault_factory": s.vaultFactory.Hex(),
	}).Info("Factories deployed")
	return s, nil
}

// Runtime exposes the underlying chain runtime
func (s *Service) Runtime() *chain.Runtime { return s.rt }

// Admin returns the factory administrator
func (s *Service) Admin() common.Address { return s.admin }

// DAOFactoryAddress returns the deployed DAO factory address
func (s *Service) DAOFactoryAddress() common.Address { return s.daoFactory }

// VaultFactoryAddress returns the deployed vault factory address
func (s *Service) VaultFactoryAddress() common.Address { return s.vaultFactory }

// FaucetEnabled reports whether Faucet may mint
func (s *Service) FaucetEnabled() bool { return s.faucet }

// submitTo runs fn against the contract at call.To inside one transaction
func submitTo[T chain.Contract](ctx context.Context, s *Service, call chain.Call, missing error, fn func(tx *chain.Tx, c T) error) (*chain.Receipt, error) {
	if call.From == (common.Address{}) {
		return nil, ErrCallerRequired
	}
	receipt, err := s.rt.Submit(ctx, call, func(tx *chain.Tx) error {
		if err := checkOrigin(tx, call.From); err != nil {
			return err
		}
		c, ok := chain.Lookup[T](tx, call.To)
		if !ok {
			return missing
		}
		return fn(tx, c)
	})
	if err != nil && receipt != nil {
		logging.FromContext(ctx).WithFields(map[string]interface{}{
			"tx_id":  receipt.TxID,
			"method": call.Method,
			"from":   call.From.Hex(),
			"to":     call.To.Hex(),
		}).Debugf("Call reverted: %s", receipt.Reason)
	}
	return receipt, err
}

// checkOrigin refuses callers that are deployed vaults or factories. Their
// funds only move through their own methods. DAOs may call since they are
// the vault's withdraw caller.
func checkOrigin(r chain.Reader, caller common.Address) error {
	c, ok := r.Contract(caller)
	if !ok {
		return nil
	}
	switch c.Kind() {
	case types.KindVault, types.KindDAOFactory, types.KindVaultFactory:
		return ErrContractCaller
	}
	return nil
}

// viewOf reads from the contract at addr under the runtime lock
func viewOf[T chain.Contract, R any](s *Service, addr common.Address, missing error, fn func(r chain.Reader, c T) (R, error)) (R, error) {
	var out R
	err := s.rt.View(func(r chain.Reader) error {
		c, ok := chain.Lookup[T](r, addr)
		if !ok {
			return missing
		}
		var err error
		out, err = fn(r, c)
		return err
	})
	return out, err
}

func requireAmount(amount *uint256.Int) error {
	if amount == nil {
		return ErrAmountRequired
	}
	return nil
}

// Receipt returns a past receipt
func (s *Service) Receipt(txID string) (*chain.Receipt, error) {
	r, ok := s.rt.Receipt(txID)
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return r, nil
}

// Receipts pages through the transaction log by sequence number
func (s *Service) Receipts(after uint64, limit int) []*chain.Receipt {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.rt.Receipts(after, limit)
}
