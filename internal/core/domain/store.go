package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store represents a physical point-of-sale location. Cash is the drawer
// balance, mutated only by withdrawal debits and sale/topup credits.
// Stores are never deleted, only zeroed.
type Store struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Cash      decimal.Decimal `json:"cash"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
