package domain

import (
	"time"

	"github.com/google/uuid"
)

// StockFlowType is the cause of a stock quantity change.
type StockFlowType string

const (
	StockFlowInitial    StockFlowType = "initial"
	StockFlowSale       StockFlowType = "sale"
	StockFlowRestock    StockFlowType = "restock"
	StockFlowReturn     StockFlowType = "return"
	StockFlowAdjustment StockFlowType = "adjustment"
	StockFlowAudit      StockFlowType = "audit"
)

// Valid reports whether t is a known flow type.
func (t StockFlowType) Valid() bool {
	switch t {
	case StockFlowInitial, StockFlowSale, StockFlowRestock,
		StockFlowReturn, StockFlowAdjustment, StockFlowAudit:
		return true
	}
	return false
}

// StockFlowEntry is one immutable audit row for a stock quantity change.
// Entries are append-only; never mutated or deleted once written.
type StockFlowEntry struct {
	ID             uuid.UUID     `json:"id"`
	StoreID        uuid.UUID     `json:"store_id"`
	ProductID      uuid.UUID     `json:"product_id"`
	QuantityChange int           `json:"quantity_change"` // signed delta
	FlowType       StockFlowType `json:"flow_type"`
	RefType        *string       `json:"ref_type,omitempty"` // causing record kind
	RefID          *uuid.UUID    `json:"ref_id,omitempty"`
	OperatorID     uuid.UUID     `json:"operator_id"`
	Note           string        `json:"note,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
