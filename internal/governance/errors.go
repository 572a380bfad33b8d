package governance

import "github.com/dao-vault/internal/errors"

// Rejection reasons reported by DAO calls
var (
	ErrNameEmpty   = errors.NewValidation("DAO_NAME_EMPTY", "DAO name cannot be empty")
	ErrNameTooLong = errors.NewValidation("DAO_NAME_TOO_LONG", "DAO name too long")

	ErrNotOwner  = errors.NewAuthorization("NOT_OWNER", "Only owner can call this function")
	ErrNotMember = errors.NewAuthorization("NOT_MEMBER", "Not a member")

	ErrPaused    = errors.NewConflict("DAO_PAUSED", "DAO is paused")
	ErrNotPaused = errors.NewConflict("DAO_NOT_PAUSED", "DAO is not paused")

	ErrInvalidMember     = errors.NewValidation("INVALID_MEMBER_ADDRESS", "Invalid member address")
	ErrAlreadyMember     = errors.NewConflict("ALREADY_MEMBER", "Already a member")
	ErrMemberLimit       = errors.NewConflict("MEMBER_LIMIT_REACHED", "Member limit reached")
	ErrCannotRemoveOwner = errors.NewConflict("CANNOT_REMOVE_OWNER", "Cannot remove owner")

	ErrTitleEmpty         = errors.NewValidation("TITLE_EMPTY", "Title cannot be empty")
	ErrTitleTooLong       = errors.NewValidation("TITLE_TOO_LONG", "Title too long")
	ErrDescriptionEmpty   = errors.NewValidation("DESCRIPTION_EMPTY", "Description cannot be empty")
	ErrDescriptionTooLong = errors.NewValidation("DESCRIPTION_TOO_LONG", "Description too long")
	ErrDurationTooShort   = errors.NewValidation("DURATION_TOO_SHORT", "Duration too short")
	ErrDurationTooLong    = errors.NewValidation("DURATION_TOO_LONG", "Duration too long")

	ErrProposalNotFound   = errors.NewMissing("PROPOSAL_NOT_FOUND", "Proposal does not exist")
	ErrVotingEnded        = errors.NewConflict("VOTING_PERIOD_ENDED", "Voting period ended")
	ErrAlreadyVoted       = errors.NewConflict("ALREADY_VOTED", "Already voted")
	ErrAlreadyExecuted    = errors.NewConflict("PROPOSAL_ALREADY_EXECUTED", "Proposal already executed")
	ErrVotingNotEnded     = errors.NewConflict("VOTING_PERIOD_NOT_ENDED", "Voting period not ended")
	ErrQuorumNotReached   = errors.NewConflict("QUORUM_NOT_REACHED", "Quorum not reached")
	ErrProposalDidNotPass = errors.NewConflict("PROPOSAL_DID_NOT_PASS", "Proposal did not pass")

	ErrInvalidVault    = errors.NewValidation("INVALID_VAULT_ADDRESS", "Invalid vault address")
	ErrVaultAttached   = errors.NewConflict("VAULT_ALREADY_ATTACHED", "Vault already attached")
	ErrNoVaultAttached = errors.NewConflict("NO_VAULT_ATTACHED", "No vault attached")

	ErrInvalidQuorum = errors.NewValidation("INVALID_QUORUM_PERCENTAGE", "Invalid quorum percentage")
)
