package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a settled transaction.
// The numeric values are part of the persisted format.
type TransactionStatus int

const (
	StatusSettled       TransactionStatus = 0
	StatusPendingDelete TransactionStatus = 1
	StatusDeleted       TransactionStatus = 2
)

// String returns the lifecycle state name.
func (s TransactionStatus) String() string {
	switch s {
	case StatusSettled:
		return "settled"
	case StatusPendingDelete:
		return "pending_delete"
	case StatusDeleted:
		return "deleted"
	}
	return "unknown"
}

// CanTransitionTo reports whether the approval workflow permits moving
// from s to target. Valid moves: settled -> pending_delete,
// pending_delete -> deleted, pending_delete -> settled (reject).
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	switch s {
	case StatusSettled:
		return target == StatusPendingDelete
	case StatusPendingDelete:
		return target == StatusDeleted || target == StatusSettled
	}
	return false
}

// Transaction is one settled checkout: header plus ordered lines.
// Created once at settlement and immutable thereafter except for the
// status field (approval workflow) and the legacy line-replacement edit.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	StoreID          uuid.UUID         `json:"store_id"`
	OperatorID       uuid.UUID         `json:"operator_id"`
	PaymentMethod    string            `json:"payment_method"`
	ReferenceID      string            `json:"reference_id"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	Tax              decimal.Decimal   `json:"tax"`
	Total            decimal.Decimal   `json:"total"`
	Status           TransactionStatus `json:"status"`
	DeleteReason     *string           `json:"delete_reason,omitempty"`
	DeleteRequestBy  *uuid.UUID        `json:"delete_requested_by,omitempty"`
	DeleteApprovedBy *uuid.UUID        `json:"delete_approved_by,omitempty"`
	DeletedAt        *time.Time        `json:"deleted_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`

	Lines []TransactionLine `json:"lines,omitempty"`
}

// LineKind tags the settlement line variant.
type LineKind string

const (
	LineKindProduct    LineKind = "product"
	LineKindTopup      LineKind = "topup"
	LineKindWithdrawal LineKind = "withdrawal"
)

// LineDetail is the tagged one-of-three reference carried by a line.
// Exactly one of the three pointers is populated, matching Kind. The
// tagged shape makes the two-populated state unrepresentable in valid
// values; Validate rejects anything else.
type LineDetail struct {
	Kind       LineKind          `json:"kind"`
	Product    *ProductSaleRef   `json:"product,omitempty"`
	Topup      *TopupRecord      `json:"topup,omitempty"`
	Withdrawal *WithdrawalRecord `json:"withdrawal,omitempty"`
}

// Validate checks that exactly one variant is populated and agrees with Kind.
func (d LineDetail) Validate() bool {
	set := 0
	if d.Product != nil {
		set++
	}
	if d.Topup != nil {
		set++
	}
	if d.Withdrawal != nil {
		set++
	}
	if set != 1 {
		return false
	}
	switch d.Kind {
	case LineKindProduct:
		return d.Product != nil
	case LineKindTopup:
		return d.Topup != nil
	case LineKindWithdrawal:
		return d.Withdrawal != nil
	}
	return false
}

// ProductSaleRef points a product line at the stock level it decremented.
type ProductSaleRef struct {
	ProductID uuid.UUID `json:"product_id"`
}

// TransactionLine is one entry in a checkout. Quantity and UnitPrice are
// meaningful for product lines; topup and withdrawal lines carry their
// amounts in the sub-record and a quantity of one.
type TransactionLine struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Detail        LineDetail      `json:"detail"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TopupRecord captures a digital top-up funded from a store wallet.
// NominalRequest is credited to the customer; NominalPay is what the
// customer physically paid (differs by fees). The wallet is debited by
// NominalRequest + ProviderFee and the store cash credited by NominalPay.
type TopupRecord struct {
	ID             uuid.UUID       `json:"id"`
	StoreID        uuid.UUID       `json:"store_id"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	CustomerRef    string          `json:"customer_ref"`
	NominalRequest decimal.Decimal `json:"nominal_request"`
	NominalPay     decimal.Decimal `json:"nominal_pay"`
	ProviderFee    decimal.Decimal `json:"provider_fee"`
	ProfitFee      decimal.Decimal `json:"profit_fee"`
	CreatedAt      time.Time       `json:"created_at"`
}

// WithdrawalRecord captures a cash withdrawal. AdminFee is resolved from
// the source's fee tiers at settlement time, never supplied by the caller;
// store cash is debited by Amount - AdminFee.
type WithdrawalRecord struct {
	ID           uuid.UUID       `json:"id"`
	StoreID      uuid.UUID       `json:"store_id"`
	CustomerName string          `json:"customer_name"`
	SourceID     *uuid.UUID      `json:"source_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	AdminFee     decimal.Decimal `json:"admin_fee"`
	CreatedAt    time.Time       `json:"created_at"`
}
