package ports

import (
	"context"
	"time"

	"pos-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Settlement ---

// SettlementService is the orchestrator: one checkout in, all balance
// mutations and ledger writes applied as a single atomic unit, or none.
type SettlementService interface {
	Settle(ctx context.Context, req SettleRequest) (*SettleResult, error)
	// Edit replaces a settled transaction's header fields and lines
	// WITHOUT re-running settlement math. Display-only correction.
	Edit(ctx context.Context, req EditRequest) (*domain.Transaction, error)
	// DeleteWithdrawal removes a withdrawal record and restores the
	// withdrawn amount to store cash in the same atomic unit.
	DeleteWithdrawal(ctx context.Context, withdrawalID, operatorID uuid.UUID) error
}

// SettleRequest is one checkout: header plus ordered line items.
type SettleRequest struct {
	StoreID       uuid.UUID
	OperatorID    uuid.UUID
	PaymentMethod string
	ReferenceID   string // caller-supplied idempotency reference
	Tax           decimal.Decimal
	Lines         []SettleLine
}

// SettleLine is one line item. Exactly one variant applies: a plain
// product line (ProductID set, no sub-payload), a topup line, or a
// withdrawal line.
type SettleLine struct {
	ProductID  *uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	Topup      *TopupInput
	Withdrawal *WithdrawalInput
}

// TopupInput funds a customer top-up from a store wallet.
type TopupInput struct {
	WalletID       uuid.UUID
	CustomerRef    string
	NominalRequest decimal.Decimal
	NominalPay     decimal.Decimal
	ProviderFee    decimal.Decimal
	ProfitFee      decimal.Decimal
}

// WithdrawalInput requests a cash withdrawal. AdminFee is resolved from
// the source's fee tiers at settlement time, never supplied here.
type WithdrawalInput struct {
	CustomerName string
	SourceID     *uuid.UUID
	Amount       decimal.Decimal
}

// SettleResult is the settlement outcome returned to the POS terminal.
type SettleResult struct {
	Transaction *domain.Transaction     `json:"transaction"`
	Snapshot    *domain.BalanceSnapshot `json:"snapshot"`
}

// EditRequest replaces header fields and lines of a settled transaction.
type EditRequest struct {
	TransactionID uuid.UUID
	OperatorID    uuid.UUID
	PaymentMethod string
	Tax           decimal.Decimal
	Lines         []SettleLine
}

// --- Approval workflow ---

// ApprovalService gates soft-deletion of settled transactions behind a
// second-operator approval.
type ApprovalService interface {
	RequestDelete(ctx context.Context, txnID uuid.UUID, reason string, requestedBy uuid.UUID) (*domain.Transaction, error)
	Approve(ctx context.Context, txnID uuid.UUID, approvedBy uuid.UUID, pin string) (*domain.Transaction, error)
	Reject(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error)
}

// --- Manual adjustments ---

// AdjustmentService covers the narrow single-field admin mutations that
// share the settlement discipline: atomic unit + non-negativity.
type AdjustmentService interface {
	AdjustWallet(ctx context.Context, req WalletAdjustRequest) (decimal.Decimal, error)
	AdjustStock(ctx context.Context, req StockAdjustRequest) (int, error)
	// ArchiveStock soft-deletes a stock level; its flow history stays.
	ArchiveStock(ctx context.Context, req StockArchiveRequest) error
}

// WalletAdjustRequest is a manual wallet balance mutation.
type WalletAdjustRequest struct {
	WalletID   uuid.UUID
	OperatorID uuid.UUID
	Op         domain.WalletAdjustmentOp
	Amount     decimal.Decimal // for reset, the balance the wallet is set to
}

// StockAdjustRequest is a manual stock mutation with its ledger entry.
type StockAdjustRequest struct {
	StoreID    uuid.UUID
	ProductID  uuid.UUID
	OperatorID uuid.UUID
	Delta      int
	FlowType   domain.StockFlowType // restock, return, adjustment, audit
	Note       string
}

// StockArchiveRequest soft-deletes one (store, product) stock level.
type StockArchiveRequest struct {
	StoreID    uuid.UUID
	ProductID  uuid.UUID
	OperatorID uuid.UUID
}

// --- Reporting (thin read paths) ---

// ReportingService serves the read endpoints consumed by reporting screens.
type ReportingService interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListStockFlows(ctx context.Context, params StockFlowListParams) ([]domain.StockFlowEntry, int64, error)
	ListFeeRules(ctx context.Context, kind domain.FeeRuleKind, sourceID *uuid.UUID) ([]domain.FeeRule, error)
	GetStoreBalances(ctx context.Context, storeID uuid.UUID) (*domain.BalanceSnapshot, error)
}

// --- Auth ---

// AuthService resolves operator credentials to a session token.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error)
}

// TokenService handles operator JWT operations.
type TokenService interface {
	Generate(operatorID uuid.UUID, storeID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	OperatorID uuid.UUID
	StoreID    uuid.UUID
}

// HashService handles password and approval-PIN hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// IdempotencyCache is the Redis-layer settlement replay check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil when absent
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
