package service

import (
	"context"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// FactoryStats combines both factories' counters
type FactoryStats struct {
	DAOs   registry.DAOFactoryStats   `json:"daos"`
	Vaults registry.VaultFactoryStats `json:"vaults"`
}

func (s *Service) daoFactoryCall(ctx context.Context, caller common.Address, method string, fn func(tx *chain.Tx, f *registry.DAOFactory) error) (*chain.Receipt, error) {
	return submitTo(ctx, s, chain.Call{From: caller, To: s.daoFactory, Method: method}, ErrDAOFactoryNotFound, fn)
}

func (s *Service) vaultFactoryCall(ctx context.Context, caller common.Address, method string, fn func(tx *chain.Tx, f *registry.VaultFactory) error) (*chain.Receipt, error) {
	return submitTo(ctx, s, chain.Call{From: caller, To: s.vaultFactory, Method: method}, ErrVaultFactoryNotFound, fn)
}

// RegisterVault links vault to dao in the factory registry
func (s *Service) RegisterVault(ctx context.Context, caller, dao, vault common.Address) (*chain.Receipt, error) {
	return s.daoFactoryCall(ctx, caller, "registerVault", func(tx *chain.Tx, f *registry.DAOFactory) error {
		return f.RegisterVault(tx, dao, vault)
	})
}

// UnregisterVault clears dao's registry link
func (s *Service) UnregisterVault(ctx context.Context, caller, dao common.Address) (*chain.Receipt, error) {
	return s.daoFactoryCall(ctx, caller, "unregisterVault", func(tx *chain.Tx, f *registry.DAOFactory) error {
		return f.UnregisterVault(tx, dao)
	})
}

// EmergencyRemoveDAO strikes dao from the DAO registry
func (s *Service) EmergencyRemoveDAO(ctx context.Context, caller, dao common.Address) (*chain.Receipt, error) {
	return s.daoFactoryCall(ctx, caller, "emergencyRemoveDAO", func(tx *chain.Tx, f *registry.DAOFactory) error {
		return f.EmergencyRemoveDAO(tx, dao)
	})
}

// EmergencyRemoveVault strikes vault from the vault registry
func (s *Service) EmergencyRemoveVault(ctx context.Context, caller, vault common.Address) (*chain.Receipt, error) {
	return s.vaultFactoryCall(ctx, caller, "emergencyRemoveVault", func(tx *chain.Tx, f *registry.VaultFactory) error {
		return f.EmergencyRemoveVault(tx, vault)
	})
}

// UpdateDefaultVaultParameters changes the vault factory defaults
func (s *Service) UpdateDefaultVaultParameters(ctx context.Context, caller common.Address, limit *uint256.Int, sigs uint64) (*chain.Receipt, error) {
	if err := requireAmount(limit); err != nil {
		return nil, err
	}
	return s.vaultFactoryCall(ctx, caller, "updateDefaultParameters", func(tx *chain.Tx, f *registry.VaultFactory) error {
		return f.UpdateDefaultParameters(tx, limit, sigs)
	})
}

// readDAOFactory runs fn against the DAO factory under the runtime lock
func readDAOFactory[R any](s *Service, fn func(f *registry.DAOFactory) R) (R, error) {
	return viewOf(s, s.daoFactory, ErrDAOFactoryNotFound, func(_ chain.Reader, f *registry.DAOFactory) (R, error) {
		return fn(f), nil
	})
}

// readVaultFactory runs fn against the vault factory under the runtime lock
func readVaultFactory[R any](s *Service, fn func(f *registry.VaultFactory) R) (R, error) {
	return viewOf(s, s.vaultFactory, ErrVaultFactoryNotFound, func(_ chain.Reader, f *registry.VaultFactory) (R, error) {
		return fn(f), nil
	})
}

// GetUserDAOs lists the registered DAOs created by user
func (s *Service) GetUserDAOs(user common.Address) ([]common.Address, error) {
	return readDAOFactory(s, func(f *registry.DAOFactory) []common.Address { return f.GetUserDAOs(user) })
}

// GetAllDAOs lists every registered DAO
func (s *Service) GetAllDAOs() ([]common.Address, error) {
	return readDAOFactory(s, func(f *registry.DAOFactory) []common.Address { return f.GetAllDAOs() })
}

// GetDAOVault returns the vault registered for dao, or the zero address
func (s *Service) GetDAOVault(dao common.Address) (common.Address, error) {
	return readDAOFactory(s, func(f *registry.DAOFactory) common.Address { return f.GetDAOVault(dao) })
}

// GetVaultDAO returns the DAO a vault is registered to in the DAO factory
func (s *Service) GetVaultDAO(vault common.Address) (common.Address, error) {
	return readDAOFactory(s, func(f *registry.DAOFactory) common.Address { return f.GetVaultDAO(vault) })
}

// GetDAOVaults lists the vaults the vault factory created for dao
func (s *Service) GetDAOVaults(dao common.Address) ([]common.Address, error) {
	return readVaultFactory(s, func(f *registry.VaultFactory) []common.Address { return f.GetDAOVaults(dao) })
}

// GetDAOVaultCount returns len(GetDAOVaults(dao))
func (s *Service) GetDAOVaultCount(dao common.Address) (int, error) {
	return readVaultFactory(s, func(f *registry.VaultFactory) int { return f.GetDAOVaultCount(dao) })
}

// GetVaultFactoryDAO returns the DAO the vault factory deployed vault for
func (s *Service) GetVaultFactoryDAO(vault common.Address) (common.Address, error) {
	return readVaultFactory(s, func(f *registry.VaultFactory) common.Address { return f.GetVaultDAO(vault) })
}

// GetAllVaults lists every vault the factory created
func (s *Service) GetAllVaults() ([]common.Address, error) {
	return readVaultFactory(s, func(f *registry.VaultFactory) []common.Address { return f.GetAllVaults() })
}

// IsVaultFromFactory reports whether vault was created by the vault factory
func (s *Service) IsVaultFromFactory(vault common.Address) (bool, error) {
	return readVaultFactory(s, func(f *registry.VaultFactory) bool { return f.IsVaultFromFactory(vault) })
}

// GetDefaultVaultParameters returns the vault factory defaults
func (s *Service) GetDefaultVaultParameters() (registry.DefaultParameters, error) {
	return readVaultFactory(s, func(f *registry.VaultFactory) registry.DefaultParameters { return f.GetDefaultParameters() })
}

// GetFactoryStats returns both factories' counters
func (s *Service) GetFactoryStats() (*FactoryStats, error) {
	daos, err := readDAOFactory(s, func(f *registry.DAOFactory) registry.DAOFactoryStats { return f.GetFactoryStats() })
	if err != nil {
		return nil, err
	}
	vaults, err := readVaultFactory(s, func(f *registry.VaultFactory) registry.VaultFactoryStats { return f.GetFactoryStats() })
	if err != nil {
		return nil, err
	}
	return &FactoryStats{DAOs: daos, Vaults: vaults}, nil
}
