// Package registry implements the DAO and vault factories along with the
// registries that link DAOs, vaults and their creators.
package registry

import (
	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/governance"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

// MaxDAOsPerUser caps how many DAOs one creator may hold in the registry
const MaxDAOsPerUser = 10

// DAOFactory deploys DAOs and keeps the DAO to vault registry. The registry
// is bookkept independently of each DAO's own attached vault.
type DAOFactory struct {
	chain.Ownable

	addr common.Address

	all      *addressSet
	byUser   map[common.Address]*addressSet
	creator  map[common.Address]common.Address
	daoVault map[common.Address]common.Address
	vaultDAO map[common.Address]common.Address
}

// DAOFactoryStats aggregates registry counters
type DAOFactoryStats struct {
	TotalDAOs          uint64 `json:"totalDaos"`
	TotalVaults        uint64 `json:"totalVaults"`
	UniqueCreators     uint64 `json:"uniqueCreators"`
	AverageDAOsPerUser uint64 `json:"averageDaosPerUser"`
}

// NewDAOFactory creates a factory at addr administered by admin
func NewDAOFactory(addr, admin common.Address) *DAOFactory {
	return &DAOFactory{
		Ownable:  chain.NewOwnable(addr, admin, ErrNotFactoryOwner),
		addr:     addr,
		all:      newAddressSet(),
		byUser:   make(map[common.Address]*addressSet),
		creator:  make(map[common.Address]common.Address),
		daoVault: make(map[common.Address]common.Address),
		vaultDAO: make(map[common.Address]common.Address),
	}
}

// Address implements chain.Contract
func (f *DAOFactory) Address() common.Address { return f.addr }

// Kind implements chain.Contract
func (f *DAOFactory) Kind() types.ContractKind { return types.KindDAOFactory }

// CreateDAO deploys a DAO owned by the caller and records it
func (f *DAOFactory) CreateDAO(tx *chain.Tx, name string) (common.Address, error) {
	if name == "" {
		return common.Address{}, ErrDAONameEmpty
	}
	if f.byUser[tx.From].Len() >= MaxDAOsPerUser {
		return common.Address{}, ErrMaxDAOsPerUser
	}

	c, err := tx.Deploy(f.addr, func(addr common.Address) (chain.Contract, error) {
		return governance.New(addr, name, tx.From, tx.Now())
	})
	if err != nil {
		return common.Address{}, err
	}
	dao := c.Address()

	f.all.add(tx, dao)
	list, ok := f.byUser[tx.From]
	if !ok {
		list = newAddressSet()
		f.byUser[tx.From] = list
	}
	list.add(tx, dao)
	setMapping(tx, f.creator, dao, tx.From)

	tx.Emit(dao, chain.OwnershipTransferred, chain.Fields{
		"previousOwner": f.addr,
		"newOwner":      tx.From,
	})
	tx.Emit(f.addr, EvDAOCreated, chain.Fields{
		"dao":     dao,
		"creator": tx.From,
		"name":    name,
	})
	return dao, nil
}

func (f *DAOFactory) factoryDAO(tx *chain.Tx, dao common.Address) (*governance.DAO, error) {
	if !f.all.Contains(dao) {
		return nil, ErrDAONotFromFactory
	}
	d, ok := chain.Lookup[*governance.DAO](tx, dao)
	if !ok {
		return nil, ErrDAONotFromFactory
	}
	return d, nil
}

// RegisterVault links vault to dao in the registry. Only the DAO's
// current owner may register, and each side can be linked once.
func (f *DAOFactory) RegisterVault(tx *chain.Tx, dao, vault common.Address) error {
	d, err := f.factoryDAO(tx, dao)
	if err != nil {
		return err
	}
	if !d.IsOwner(tx.From) {
		return ErrNotDAOOwner
	}
	if vault == (common.Address{}) {
		return ErrInvalidVault
	}
	if _, ok := f.daoVault[dao]; ok {
		return ErrDAOHasVault
	}
	if _, ok := f.vaultDAO[vault]; ok {
		return ErrVaultRegistered
	}

	setMapping(tx, f.daoVault, dao, vault)
	setMapping(tx, f.vaultDAO, vault, dao)
	tx.Emit(f.addr, EvVaultRegistered, chain.Fields{"dao": dao, "vault": vault})
	return nil
}

// UnregisterVault clears dao's registry link
func (f *DAOFactory) UnregisterVault(tx *chain.Tx, dao common.Address) error {
	d, err := f.factoryDAO(tx, dao)
	if err != nil {
		return err
	}
	if !d.IsOwner(tx.From) {
		return ErrNotDAOOwnerUnregister
	}
	vault, ok := f.daoVault[dao]
	if !ok {
		return ErrNoVaultRegistered
	}

	setMapping(tx, f.daoVault, dao, common.Address{})
	setMapping(tx, f.vaultDAO, vault, common.Address{})
	tx.Emit(f.addr, EvVaultUnregistered, chain.Fields{"dao": dao, "vault": vault})
	return nil
}

// EmergencyRemoveDAO strikes dao from every registry list. The DAO itself
// keeps running. Factory owner only.
func (f *DAOFactory) EmergencyRemoveDAO(tx *chain.Tx, dao common.Address) error {
	if err := f.OnlyOwner(tx); err != nil {
		return err
	}
	if !f.all.Contains(dao) {
		return ErrDAONotFromFactory
	}

	f.all.remove(tx, dao)
	creator := f.creator[dao]
	if list, ok := f.byUser[creator]; ok {
		list.remove(tx, dao)
	}
	setMapping(tx, f.creator, dao, common.Address{})
	if vault, ok := f.daoVault[dao]; ok {
		setMapping(tx, f.vaultDAO, vault, common.Address{})
		setMapping(tx, f.daoVault, dao, common.Address{})
	}

	tx.Emit(f.addr, EvDAORemoved, chain.Fields{"dao": dao})
	return nil
}

// GetUserDAOs lists the DAOs created by user that are still registered
func (f *DAOFactory) GetUserDAOs(user common.Address) []common.Address {
	return f.byUser[user].Items()
}

// GetUserDAOCount returns len(GetUserDAOs(user))
func (f *DAOFactory) GetUserDAOCount(user common.Address) int {
	return f.byUser[user].Len()
}

// GetAllDAOs lists every registered DAO
func (f *DAOFactory) GetAllDAOs() []common.Address {
	return f.all.Items()
}

// GetDAOCount returns the number of registered DAOs
func (f *DAOFactory) GetDAOCount() int {
	return f.all.Len()
}

// GetDAOVault returns the registered vault of dao, or the zero address
func (f *DAOFactory) GetDAOVault(dao common.Address) common.Address {
	return f.daoVault[dao]
}

// GetVaultDAO returns the DAO a vault is registered to, or the zero address
func (f *DAOFactory) GetVaultDAO(vault common.Address) common.Address {
	return f.vaultDAO[vault]
}

// GetDAOCreator returns who created dao, or the zero address
func (f *DAOFactory) GetDAOCreator(dao common.Address) common.Address {
	return f.creator[dao]
}

// IsDAOFromFactory reports whether dao is registered here
func (f *DAOFactory) IsDAOFromFactory(dao common.Address) bool {
	return f.all.Contains(dao)
}

// GetFactoryStats returns aggregate counters. The average uses integer division.
func (f *DAOFactory) GetFactoryStats() DAOFactoryStats {
	var creators uint64
	for _, list := range f.byUser {
		if list.Len() > 0 {
			creators++
		}
	}
	stats := DAOFactoryStats{
		TotalDAOs:      uint64(f.all.Len()),
		TotalVaults:    uint64(len(f.vaultDAO)),
		UniqueCreators: creators,
	}
	if creators > 0 {
		stats.AverageDAOsPerUser = stats.TotalDAOs / creators
	}
	return stats
}
