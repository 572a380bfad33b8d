// Package models holds the mirror's row types.
package models

import (
	"time"

	"github.com/dao-vault/internal/types"
)

// Entity is the denormalized record of one deployed contract
// (DAO, vault or factory) kept for fast reads by the bot.
type Entity struct {
	Address   string             `json:"address" db:"address"`
	Kind      types.ContractKind `json:"kind" db:"kind"`
	Name      string             `json:"name,omitempty" db:"name"`
	Owner     string             `json:"owner,omitempty" db:"owner"`
	DAO       string             `json:"dao,omitempty" db:"dao"`
	CreatedTx string             `json:"createdTx" db:"created_tx"`
	CreatedAt time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" db:"updated_at"`
}
