package registry

import (
	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/treasury"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// MaxVaultsPerDAO caps how many vaults one DAO may hold in the registry
	MaxVaultsPerDAO = 5
	// DefaultRequiredSignatures is the initial default approval threshold
	DefaultRequiredSignatures uint64 = 2
)

var (
	// MinWithdrawalLimit is the smallest accepted direct-withdraw cap (0.01 ether)
	MinWithdrawalLimit = uint256.NewInt(10_000_000_000_000_000)
	// MaxWithdrawalLimit is the largest accepted direct-withdraw cap
	MaxWithdrawalLimit = types.EtherAmount(1000)
	// DefaultWithdrawalLimit is the initial default direct-withdraw cap
	DefaultWithdrawalLimit = types.EtherAmount(1)
)

// VaultFactory deploys vaults for DAO addresses and tracks them per DAO
type VaultFactory struct {
	chain.Ownable

	addr common.Address

	all      *addressSet
	byDAO    map[common.Address]*addressSet
	vaultDAO map[common.Address]common.Address

	defaultLimit *uint256.Int
	defaultSigs  uint64
}

// DefaultParameters are applied by CreateVault and CreateDefaultVault
type DefaultParameters struct {
	WithdrawalLimit    *uint256.Int `json:"withdrawalLimit"`
	RequiredSignatures uint64       `json:"requiredSignatures"`
}

// VaultFactoryStats aggregates registry counters
type VaultFactoryStats struct {
	TotalVaults               uint64       `json:"totalVaults"`
	DAOsWithVaults            uint64       `json:"daosWithVaults"`
	AverageVaultsPerDAO       uint64       `json:"averageVaultsPerDao"`
	DefaultWithdrawalLimit    *uint256.Int `json:"defaultWithdrawalLimit"`
	DefaultRequiredSignatures uint64       `json:"defaultRequiredSignatures"`
}

// NewVaultFactory creates a factory at addr administered by admin
func NewVaultFactory(addr, admin common.Address) *VaultFactory {
	return &VaultFactory{
		Ownable:      chain.NewOwnable(addr, admin, ErrNotFactoryOwner),
		addr:         addr,
		all:          newAddressSet(),
		byDAO:        make(map[common.Address]*addressSet),
		vaultDAO:     make(map[common.Address]common.Address),
		defaultLimit: new(uint256.Int).Set(DefaultWithdrawalLimit),
		defaultSigs:  DefaultRequiredSignatures,
	}
}

// Address implements chain.Contract
func (f *VaultFactory) Address() common.Address { return f.addr }

// Kind implements chain.Contract
func (f *VaultFactory) Kind() types.ContractKind { return types.KindVaultFactory }

func validateParameters(limit *uint256.Int, sigs uint64) error {
	if limit == nil || limit.Lt(MinWithdrawalLimit) {
		return ErrLimitTooLow
	}
	if limit.Gt(MaxWithdrawalLimit) {
		return ErrLimitTooHigh
	}
	if sigs < 1 || sigs > treasury.MaxSigners {
		return ErrInvalidRequiredSigs
	}
	return nil
}

// CreateVault deploys a vault for dao with the default signature threshold
func (f *VaultFactory) CreateVault(tx *chain.Tx, dao common.Address, limit *uint256.Int) (common.Address, error) {
	return f.create(tx, dao, limit, f.defaultSigs)
}

// CreateVaultWithCustomParams deploys a vault with an explicit threshold
func (f *VaultFactory) CreateVaultWithCustomParams(tx *chain.Tx, dao common.Address, limit *uint256.Int, sigs uint64) (common.Address, error) {
	return f.create(tx, dao, limit, sigs)
}

// CreateDefaultVault deploys a vault using both default parameters
func (f *VaultFactory) CreateDefaultVault(tx *chain.Tx, dao common.Address) (common.Address, error) {
	return f.create(tx, dao, f.defaultLimit, f.defaultSigs)
}

func (f *VaultFactory) create(tx *chain.Tx, dao common.Address, limit *uint256.Int, sigs uint64) (common.Address, error) {
	if dao == (common.Address{}) {
		return common.Address{}, ErrInvalidDAO
	}
	if err := validateParameters(limit, sigs); err != nil {
		return common.Address{}, err
	}
	if f.byDAO[dao].Len() >= MaxVaultsPerDAO {
		return common.Address{}, ErrMaxVaultsPerDAO
	}

	c, err := tx.Deploy(f.addr, func(addr common.Address) (chain.Contract, error) {
		return treasury.New(addr, dao, tx.From, limit, sigs, tx.Now())
	})
	if err != nil {
		return common.Address{}, err
	}
	vault := c.Address()

	f.all.add(tx, vault)
	list, ok := f.byDAO[dao]
	if !ok {
		list = newAddressSet()
		f.byDAO[dao] = list
	}
	list.add(tx, vault)
	setMapping(tx, f.vaultDAO, vault, dao)

	tx.Emit(vault, chain.OwnershipTransferred, chain.Fields{
		"previousOwner": f.addr,
		"newOwner":      tx.From,
	})
	tx.Emit(f.addr, EvVaultCreated, chain.Fields{
		"vault":              vault,
		"dao":                dao,
		"creator":            tx.From,
		"withdrawalLimit":    limit,
		"requiredSignatures": sigs,
	})
	return vault, nil
}

// UpdateDefaultParameters changes the defaults for future vaults. Factory owner only.
func (f *VaultFactory) UpdateDefaultParameters(tx *chain.Tx, limit *uint256.Int, sigs uint64) error {
	if err := f.OnlyOwner(tx); err != nil {
		return err
	}
	if err := validateParameters(limit, sigs); err != nil {
		return err
	}

	prevLimit, prevSigs := f.defaultLimit, f.defaultSigs
	tx.OnRevert(func() {
		f.defaultLimit, f.defaultSigs = prevLimit, prevSigs
	})
	f.defaultLimit = new(uint256.Int).Set(limit)
	f.defaultSigs = sigs

	tx.Emit(f.addr, EvDefaultParametersUpdated, chain.Fields{
		"withdrawalLimit":    limit,
		"requiredSignatures": sigs,
	})
	return nil
}

// EmergencyRemoveVault strikes vault from the registry lists. The vault
// keeps its funds and signers. Factory owner only.
func (f *VaultFactory) EmergencyRemoveVault(tx *chain.Tx, vault common.Address) error {
	if err := f.OnlyOwner(tx); err != nil {
		return err
	}
	if !f.all.Contains(vault) {
		return ErrVaultNotFromFactory
	}

	dao := f.vaultDAO[vault]
	f.all.remove(tx, vault)
	if list, ok := f.byDAO[dao]; ok {
		list.remove(tx, vault)
	}
	setMapping(tx, f.vaultDAO, vault, common.Address{})

	tx.Emit(f.addr, EvVaultRemoved, chain.Fields{"vault": vault, "dao": dao})
	return nil
}

// GetDAOVaults lists the registered vaults of dao
func (f *VaultFactory) GetDAOVaults(dao common.Address) []common.Address {
	return f.byDAO[dao].Items()
}

// GetDAOVaultCount returns len(GetDAOVaults(dao))
func (f *VaultFactory) GetDAOVaultCount(dao common.Address) int {
	return f.byDAO[dao].Len()
}

// GetVaultDAO returns the DAO a vault was created for, or the zero address
func (f *VaultFactory) GetVaultDAO(vault common.Address) common.Address {
	return f.vaultDAO[vault]
}

// GetAllVaults lists every registered vault
func (f *VaultFactory) GetAllVaults() []common.Address {
	return f.all.Items()
}

// IsVaultFromFactory reports whether vault is registered here
func (f *VaultFactory) IsVaultFromFactory(vault common.Address) bool {
	return f.all.Contains(vault)
}

// GetDefaultParameters returns a copy of the current defaults
func (f *VaultFactory) GetDefaultParameters() DefaultParameters {
	return DefaultParameters{
		WithdrawalLimit:    new(uint256.Int).Set(f.defaultLimit),
		RequiredSignatures: f.defaultSigs,
	}
}

// GetFactoryStats returns aggregate counters. The average uses integer division.
func (f *VaultFactory) GetFactoryStats() VaultFactoryStats {
	var daos uint64
	for _, list := range f.byDAO {
		if list.Len() > 0 {
			daos++
		}
	}
	stats := VaultFactoryStats{
		TotalVaults:               uint64(f.all.Len()),
		DAOsWithVaults:            daos,
		DefaultWithdrawalLimit:    new(uint256.Int).Set(f.defaultLimit),
		DefaultRequiredSignatures: f.defaultSigs,
	}
	if daos > 0 {
		stats.AverageVaultsPerDAO = stats.TotalVaults / daos
	}
	return stats
}
