package ports

import (
	"context"
	"errors"
	"time"

	"pos-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Sentinel errors shared by all storage implementations. Services map
// these onto the apperror taxonomy at the boundary.
var (
	// ErrInsufficient is returned when a debit would drive a balance negative.
	ErrInsufficient = errors.New("insufficient balance")
	// ErrRowNotFound is returned when the addressed resource row does not exist.
	ErrRowNotFound = errors.New("row not found")
)

// BalanceRepository is the single mutation surface for the three balance
// kinds: per-store cash, per-wallet digital balance, per-(store,product)
// stock. Every adjust locks the row (SELECT ... FOR UPDATE), validates
// non-negativity against the in-transaction view, and applies the delta.
// All methods MUST run inside the caller's transaction so a later failure
// rolls the adjustment back with the rest of the settlement.
type BalanceRepository interface {
	// AdjustCash applies delta to the store's cash drawer and returns the
	// new balance. Fails with ErrInsufficient when the result would be
	// negative.
	AdjustCash(ctx context.Context, tx pgx.Tx, storeID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)

	// AdjustWallet applies delta to a wallet balance with the same
	// non-negativity rule as cash.
	AdjustWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)

	// AdjustStock applies delta to a (store, product) stock count.
	// Negative results are permitted only when allowNegative is set.
	AdjustStock(ctx context.Context, tx pgx.Tx, storeID, productID uuid.UUID, delta int, allowNegative bool) (int, error)

	// ResetWallet forces a wallet balance to an absolute value (manual
	// admin reset). The value must be non-negative.
	ResetWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, value decimal.Decimal) (decimal.Decimal, error)

	// Snapshot recomputes current balances for a store from committed
	// state: cash plus the named wallets and stock levels.
	Snapshot(ctx context.Context, storeID uuid.UUID, walletIDs, productIDs []uuid.UUID) (*domain.BalanceSnapshot, error)
}

// StoreRepository defines read operations for stores.
type StoreRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error)
}

// WalletRepository defines persistence operations for store wallets.
type WalletRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]domain.Wallet, error)
}

// StockRepository defines read operations for stock levels.
type StockRepository interface {
	GetLevel(ctx context.Context, storeID, productID uuid.UUID) (*domain.StockLevel, error)
	// Archive soft-deletes a stock level (status flag + timestamp).
	Archive(ctx context.Context, tx pgx.Tx, storeID, productID uuid.UUID) error
}

// StockFlowRepository is the append-only stock audit ledger.
type StockFlowRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.StockFlowEntry) error
	List(ctx context.Context, params StockFlowListParams) ([]domain.StockFlowEntry, int64, error)
}

// StockFlowListParams filters the stock flow history read path.
type StockFlowListParams struct {
	StoreID  uuid.UUID
	Type     *domain.StockFlowType
	From     *time.Time
	To       *time.Time
	Search   string // matches the note text
	Page     int
	PageSize int
}

// FeeRuleRepository defines read operations for fee tiers.
type FeeRuleRepository interface {
	// ListByKind returns the rules for a fee kind, scoped to a source when
	// sourceID is non-nil (source rules plus global rules).
	ListByKind(ctx context.Context, kind domain.FeeRuleKind, sourceID *uuid.UUID) ([]domain.FeeRule, error)
}

// TransactionRepository defines persistence for transaction headers,
// lines, and the topup/withdrawal sub-records a line may reference.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	CreateLine(ctx context.Context, tx pgx.Tx, line *domain.TransactionLine) error
	CreateTopup(ctx context.Context, tx pgx.Tx, rec *domain.TopupRecord) error
	CreateWithdrawal(ctx context.Context, tx pgx.Tx, rec *domain.WithdrawalRecord) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// GetByIDForUpdate locks the header row for an approval transition.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRecord, error)

	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, upd StatusUpdate) error
	// ReplaceLines hard-deletes the existing lines and inserts new ones.
	// The legacy edit path: balances are NOT reconciled by this call.
	ReplaceLines(ctx context.Context, tx pgx.Tx, txnID uuid.UUID, lines []domain.TransactionLine) error
	UpdateHeader(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	DeleteWithdrawal(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// StatusUpdate carries the approval-workflow fields stamped on a
// transition. Nil pointer fields clear the corresponding column.
type StatusUpdate struct {
	Status      domain.TransactionStatus
	Reason      *string
	RequestedBy *uuid.UUID
	ApprovedBy  *uuid.UUID
	DeletedAt   *time.Time
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	StoreID  *uuid.UUID
	Status   *domain.TransactionStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// OperatorRepository defines read operations for operators.
type OperatorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error)
	GetByUsername(ctx context.Context, username string) (*domain.Operator, error)
}

// IdempotencyRepository defines persistence for settlement idempotency
// logs (DB backup behind the Redis fast path).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// DBTransactor provides database transaction management. A settlement's
// whole mutation sequence runs inside one Begin/Commit pair.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
