package governance

import "github.com/dao-vault/internal/chain"

// DAO events
var (
	EvMemberAdded      = chain.NewEventType("MemberAdded(address)")
	EvMemberRemoved    = chain.NewEventType("MemberRemoved(address)")
	EvProposalCreated  = chain.NewEventType("ProposalCreated(uint256,address,string,uint256)")
	EvVoted            = chain.NewEventType("Voted(uint256,address,bool)")
	EvProposalExecuted = chain.NewEventType("ProposalExecuted(uint256,bool)")
	EvVaultAttached    = chain.NewEventType("VaultAttached(address)")
	EvVaultDetached    = chain.NewEventType("VaultDetached(address)")
	EvQuorumUpdated    = chain.NewEventType("QuorumUpdated(uint256,uint256)")
	EvPaused           = chain.NewEventType("Paused(address)")
	EvUnpaused         = chain.NewEventType("Unpaused(address)")
)
