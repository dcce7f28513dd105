package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceSnapshot is the consistency-refreshed view of every balance a
// settlement touched, recomputed after commit so the POS terminal can
// refresh its local state without a second round trip.
type BalanceSnapshot struct {
	StoreID uuid.UUID                     `json:"store_id"`
	Cash    decimal.Decimal               `json:"cash"`
	Wallets map[uuid.UUID]decimal.Decimal `json:"wallets,omitempty"`
	Stocks  map[uuid.UUID]int             `json:"stocks,omitempty"`
}
