package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a store-scoped digital balance used to fund customer top-ups.
// One row per (store, provider) pair. Balance never goes below zero; any
// debit that would overdraw it aborts the whole settlement.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"store_id"`
	Provider  string          `json:"provider"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletAdjustmentOp is the kind of manual admin adjustment.
type WalletAdjustmentOp string

const (
	WalletAdjustAdd      WalletAdjustmentOp = "add"
	WalletAdjustSubtract WalletAdjustmentOp = "subtract"
	WalletAdjustReset    WalletAdjustmentOp = "reset"
)

// Valid reports whether the op is one of the known adjustment kinds.
func (op WalletAdjustmentOp) Valid() bool {
	switch op {
	case WalletAdjustAdd, WalletAdjustSubtract, WalletAdjustReset:
		return true
	}
	return false
}
