package dto

import (
	"github.com/shopspring/decimal"
)

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// SettleRequest is the request body for settling one checkout.
type SettleRequest struct {
	PaymentMethod string          `json:"payment_method" binding:"required,max=30"`
	ReferenceID   string          `json:"reference_id" binding:"omitempty,max=100,safe_id"`
	Tax           decimal.Decimal `json:"tax"`
	Lines         []SettleLine    `json:"lines" binding:"required,min=1,dive"`
}

// SettleLine is one line of a checkout. Exactly one of product_id,
// topup, withdrawal must be present; the settlement service enforces
// the exactly-one rule beyond what binding tags can express.
type SettleLine struct {
	ProductID  *string         `json:"product_id,omitempty" binding:"omitempty,uuid"`
	Quantity   int             `json:"quantity,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price,omitempty"`
	Topup      *TopupLine      `json:"topup,omitempty"`
	Withdrawal *WithdrawalLine `json:"withdrawal,omitempty"`
}

// TopupLine is the payload of a digital top-up line.
type TopupLine struct {
	WalletID       string          `json:"wallet_id" binding:"required,uuid"`
	CustomerRef    string          `json:"customer_ref" binding:"omitempty,max=100"`
	NominalRequest decimal.Decimal `json:"nominal_request"`
	NominalPay     decimal.Decimal `json:"nominal_pay"`
	ProviderFee    decimal.Decimal `json:"provider_fee"`
	ProfitFee      decimal.Decimal `json:"profit_fee"`
}

// WithdrawalLine is the payload of a cash withdrawal line.
type WithdrawalLine struct {
	CustomerName string          `json:"customer_name" binding:"required,max=100"`
	SourceID     *string         `json:"source_id,omitempty" binding:"omitempty,uuid"`
	Amount       decimal.Decimal `json:"amount"`
}

// EditRequest is the request body for the transaction edit path.
type EditRequest struct {
	PaymentMethod string          `json:"payment_method" binding:"required,max=30"`
	Tax           decimal.Decimal `json:"tax"`
	Lines         []SettleLine    `json:"lines" binding:"required,min=1,dive"`
}

// RequestDeleteRequest starts the delete-approval workflow.
type RequestDeleteRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// ApproveRequest finalizes a pending deletion.
type ApproveRequest struct {
	PIN string `json:"pin" binding:"required,min=4,max=12"`
}

// WalletAdjustRequest is the request body for a manual wallet mutation.
type WalletAdjustRequest struct {
	Op     string          `json:"op" binding:"required,oneof=add subtract reset"`
	Amount decimal.Decimal `json:"amount"`
}

// StockAdjustRequest is the request body for a manual stock mutation.
type StockAdjustRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Delta     int    `json:"delta" binding:"required"`
	FlowType  string `json:"flow_type" binding:"required,oneof=initial restock return adjustment audit"`
	Note      string `json:"note" binding:"omitempty,max=255"`
}

// WalletAdjustResponse reports the balance after a manual mutation.
type WalletAdjustResponse struct {
	WalletID string          `json:"wallet_id"`
	Balance  decimal.Decimal `json:"balance"`
}

// StockAdjustResponse reports the stock level after a manual mutation.
type StockAdjustResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// PageMeta carries pagination info on list responses.
type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// ListResponse wraps a page of items with its pagination metadata.
type ListResponse struct {
	Items any      `json:"items"`
	Meta  PageMeta `json:"meta"`
}
