package treasury

import "github.com/dao-vault/internal/errors"

// Rejection reasons reported by vault calls
var (
	ErrZeroDAO             = errors.NewValidation("DAO_ADDRESS_ZERO", "DAO address cannot be zero")
	ErrZeroLimit           = errors.NewValidation("WITHDRAWAL_LIMIT_ZERO", "Withdrawal limit must be greater than 0")
	ErrInvalidRequiredSigs = errors.NewValidation("INVALID_REQUIRED_SIGNATURES", "Invalid required signatures")

	ErrNotOwner             = errors.NewAuthorization("NOT_OWNER", "Only owner can call this function")
	ErrNotDAO               = errors.NewAuthorization("NOT_DAO", "Only DAO can call this function")
	ErrNotSigner            = errors.NewAuthorization("NOT_AUTHORIZED_SIGNER", "Not an authorized signer")
	ErrNotAuthorizedToPause = errors.NewAuthorization("NOT_AUTHORIZED_TO_PAUSE", "Not authorized to pause")

	ErrPaused    = errors.NewConflict("VAULT_PAUSED", "Vault is paused")
	ErrNotPaused = errors.NewConflict("VAULT_NOT_PAUSED", "Vault is not paused")

	ErrZeroAmount          = errors.NewValidation("AMOUNT_ZERO", "Amount must be greater than 0")
	ErrAmountMismatch      = errors.NewValidation("AMOUNT_MISMATCH", "Amount mismatch")
	ErrSelfDeposit         = errors.NewValidation("SELF_DEPOSIT", "Vault cannot deposit into itself")
	ErrExceedsLimit        = errors.NewValidation("AMOUNT_EXCEEDS_LIMIT", "Amount exceeds withdrawal limit")
	ErrInsufficientBalance = errors.NewConflict("INSUFFICIENT_BALANCE", "Insufficient balance")
	ErrInvalidRecipient    = errors.NewValidation("INVALID_RECIPIENT", "Invalid recipient")
	ErrTransferFailed      = errors.NewTransfer("TRANSFER_FAILED", "Transfer failed")

	ErrUseWithdraw           = errors.NewValidation("USE_DIRECT_WITHDRAWAL", "Use direct withdrawal for small amounts")
	ErrDescriptionEmpty      = errors.NewValidation("DESCRIPTION_EMPTY", "Description cannot be empty")
	ErrProposalNotFound      = errors.NewMissing("PROPOSAL_NOT_FOUND", "Proposal does not exist")
	ErrAlreadyExecuted       = errors.NewConflict("PROPOSAL_ALREADY_EXECUTED", "Proposal already executed")
	ErrProposalExpired       = errors.NewConflict("PROPOSAL_EXPIRED", "Proposal expired")
	ErrAlreadyApproved       = errors.NewConflict("ALREADY_APPROVED", "Already approved")
	ErrInsufficientApprovals = errors.NewConflict("INSUFFICIENT_APPROVALS", "Insufficient approvals")

	ErrInvalidSigner  = errors.NewValidation("INVALID_SIGNER_ADDRESS", "Invalid signer address")
	ErrAlreadySigner  = errors.NewConflict("ALREADY_SIGNER", "Already a signer")
	ErrMaxSigners     = errors.NewConflict("MAX_SIGNERS_REACHED", "Max signers reached")
	ErrSignerNotFound = errors.NewConflict("NOT_A_SIGNER", "Not a signer")
	ErrBelowRequired  = errors.NewConflict("SIGNERS_BELOW_REQUIRED", "Cannot remove signer below required signatures")
	ErrEmptyReason    = errors.NewValidation("REASON_EMPTY", "Reason cannot be empty")
)
