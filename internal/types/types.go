// Package types provides common type definitions for the DAO and vault engine.
package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NativeAsset is the sentinel asset identifier for the chain's base currency.
// Any other asset address refers to a token contract.
var NativeAsset = common.Address{}

// Ether is one unit of the native asset expressed in its smallest unit (wei).
var Ether = uint256.NewInt(1_000_000_000_000_000_000)

// ContractKind identifies the type of a deployed contract
type ContractKind string

const (
	// KindDAO is a governance unit
	KindDAO ContractKind = "dao"
	// KindVault is a treasury ledger
	KindVault ContractKind = "vault"
	// KindDAOFactory is the governance unit factory/registry
	KindDAOFactory ContractKind = "dao_factory"
	// KindVaultFactory is the treasury ledger factory/registry
	KindVaultFactory ContractKind = "vault_factory"
)

// TxStatus represents the outcome of a submitted call
type TxStatus string

const (
	// StatusSuccess represents a committed call
	StatusSuccess TxStatus = "success"
	// StatusReverted represents a call that was rejected with no state change
	StatusReverted TxStatus = "reverted"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// IsNative reports whether asset is the native-asset sentinel.
func IsNative(asset common.Address) bool {
	return asset == NativeAsset
}

// AssetLabel renders an asset for logs and event fields.
func AssetLabel(asset common.Address) string {
	if IsNative(asset) {
		return "native"
	}
	return asset.Hex()
}

// ParseAddress validates and parses a hex address. The zero address is accepted.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address format: %s", s)
	}
	return common.HexToAddress(s), nil
}

// ParseAsset parses an asset identifier. "native" and "" map to NativeAsset.
func ParseAsset(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "native") {
		return NativeAsset, nil
	}
	return ParseAddress(s)
}

// ParseAmount parses a base-10 integer amount in the asset's smallest unit.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("amount is required")
	}
	if s[0] == '-' || s[0] == '+' {
		return nil, fmt.Errorf("invalid amount %q: sign not allowed", s)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// EtherAmount returns n whole units of the native asset.
func EtherAmount(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), Ether)
}

// FormatAmount renders an amount as a decimal string, treating nil as zero.
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
