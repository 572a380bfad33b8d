package treasury

import "github.com/dao-vault/internal/chain"

// Vault events
var (
	EvDeposit                   = chain.NewEventType("Deposit(address,address,uint256)")
	EvWithdrawal                = chain.NewEventType("Withdrawal(address,address,uint256)")
	EvProposalCreated           = chain.NewEventType("SpendingProposalCreated(uint256,address,uint256,address,address)")
	EvProposalApproved          = chain.NewEventType("SpendingProposalApproved(uint256,address,uint256)")
	EvProposalExecuted          = chain.NewEventType("SpendingProposalExecuted(uint256,address,uint256,address)")
	EvProposalExecutionFailed   = chain.NewEventType("SpendingProposalExecutionFailed(uint256,string)")
	EvSignerAdded               = chain.NewEventType("SignerAdded(address)")
	EvSignerRemoved             = chain.NewEventType("SignerRemoved(address)")
	EvWithdrawalLimitUpdated    = chain.NewEventType("WithdrawalLimitUpdated(uint256,uint256)")
	EvRequiredSignaturesUpdated = chain.NewEventType("RequiredSignaturesUpdated(uint256,uint256)")
	EvEmergencyPause            = chain.NewEventType("EmergencyPause(address,string)")
	EvUnpaused                  = chain.NewEventType("Unpaused(address)")
)
