package registry

import "github.com/dao-vault/internal/errors"

// Rejection reasons reported by the factories
var (
	ErrNotFactoryOwner = errors.NewAuthorization("NOT_FACTORY_OWNER", "Only factory owner can call this function")

	ErrDAONameEmpty          = errors.NewValidation("DAO_NAME_EMPTY", "DAO name cannot be empty")
	ErrMaxDAOsPerUser        = errors.NewConflict("MAX_DAOS_PER_USER", "Max DAOs per user exceeded")
	ErrDAONotFromFactory     = errors.NewMissing("DAO_NOT_FROM_FACTORY", "DAO not from factory")
	ErrNotDAOOwner           = errors.NewAuthorization("NOT_DAO_OWNER", "Only DAO owner can register vault")
	ErrNotDAOOwnerUnregister = errors.NewAuthorization("NOT_DAO_OWNER_UNREGISTER", "Only DAO owner can unregister vault")
	ErrInvalidVault          = errors.NewValidation("INVALID_VAULT_ADDRESS", "Invalid vault address")
	ErrDAOHasVault           = errors.NewConflict("DAO_ALREADY_HAS_VAULT", "DAO already has a vault")
	ErrVaultRegistered       = errors.NewConflict("VAULT_ALREADY_REGISTERED", "Vault already registered")
	ErrNoVaultRegistered     = errors.NewConflict("NO_VAULT_REGISTERED", "No vault registered")

	ErrInvalidDAO          = errors.NewValidation("INVALID_DAO_ADDRESS", "Invalid DAO address")
	ErrLimitTooLow         = errors.NewValidation("WITHDRAWAL_LIMIT_TOO_LOW", "Withdrawal limit too low")
	ErrLimitTooHigh        = errors.NewValidation("WITHDRAWAL_LIMIT_TOO_HIGH", "Withdrawal limit too high")
	ErrInvalidRequiredSigs = errors.NewValidation("INVALID_REQUIRED_SIGNATURES", "Invalid required signatures")
	ErrMaxVaultsPerDAO     = errors.NewConflict("MAX_VAULTS_PER_DAO", "Max vaults per DAO exceeded")
	ErrVaultNotFromFactory = errors.NewMissing("VAULT_NOT_FROM_FACTORY", "Vault not from factory")
)
