package registry

import "github.com/dao-vault/internal/chain"

// Factory events
var (
	EvDAOCreated               = chain.NewEventType("DAOCreated(address,address,string)")
	EvVaultRegistered          = chain.NewEventType("VaultRegistered(address,address)")
	EvVaultUnregistered        = chain.NewEventType("VaultUnregistered(address,address)")
	EvDAORemoved               = chain.NewEventType("DAORemoved(address)")
	EvVaultCreated             = chain.NewEventType("VaultCreated(address,address,address,uint256,uint256)")
	EvVaultRemoved             = chain.NewEventType("VaultRemoved(address,address)")
	EvDefaultParametersUpdated = chain.NewEventType("DefaultParametersUpdated(uint256,uint256)")
)
