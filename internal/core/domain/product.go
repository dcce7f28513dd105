package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StockStatus is the lifecycle state of a stock level row.
type StockStatus string

const (
	StockStatusActive   StockStatus = "active"
	StockStatusArchived StockStatus = "archived"
)

// StockLevel tracks on-hand quantity for one (store, product) pair.
// Rows are soft-archived rather than hard-deleted to preserve history.
// Stock may go negative when backorder is permitted; wallet and cash
// balances never do.
type StockLevel struct {
	ID         uuid.UUID   `json:"id"`
	StoreID    uuid.UUID   `json:"store_id"`
	ProductID  uuid.UUID   `json:"product_id"`
	Stock      int         `json:"stock"`
	Status     StockStatus `json:"status"`
	ArchivedAt *time.Time  `json:"archived_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
