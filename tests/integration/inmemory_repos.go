package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// memState is the shared backing store for all in-memory repos. One
// mutex covers every mutation so each repo call is atomic, mirroring
// the row-lock discipline of the real postgres layer closely enough
// for the invariants these tests check.
type memState struct {
	mu          sync.Mutex
	stores      map[uuid.UUID]*domain.Store
	wallets     map[uuid.UUID]*domain.Wallet
	stocks      map[string]*domain.StockLevel
	flows       []domain.StockFlowEntry
	feeRules    []domain.FeeRule
	operators   map[uuid.UUID]*domain.Operator
	txns        map[uuid.UUID]*domain.Transaction
	lines       map[uuid.UUID][]domain.TransactionLine
	topups      map[uuid.UUID]*domain.TopupRecord
	withdrawals map[uuid.UUID]*domain.WithdrawalRecord
	idempotency map[string]*domain.IdempotencyLog
}

func newMemState() *memState {
	return &memState{
		stores:      make(map[uuid.UUID]*domain.Store),
		wallets:     make(map[uuid.UUID]*domain.Wallet),
		stocks:      make(map[string]*domain.StockLevel),
		operators:   make(map[uuid.UUID]*domain.Operator),
		txns:        make(map[uuid.UUID]*domain.Transaction),
		lines:       make(map[uuid.UUID][]domain.TransactionLine),
		topups:      make(map[uuid.UUID]*domain.TopupRecord),
		withdrawals: make(map[uuid.UUID]*domain.WithdrawalRecord),
		idempotency: make(map[string]*domain.IdempotencyLog),
	}
}

func stockKey(storeID, productID uuid.UUID) string {
	return storeID.String() + "|" + productID.String()
}

// --- Balance Repo ---

type memBalanceRepo struct{ s *memState }

func (r *memBalanceRepo) AdjustCash(ctx context.Context, tx pgx.Tx, storeID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stores[storeID]
	if !ok {
		return decimal.Zero, ports.ErrRowNotFound
	}
	next := st.Cash.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ports.ErrInsufficient
	}
	st.Cash = next
	return next, nil
}

func (r *memBalanceRepo) AdjustWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[walletID]
	if !ok {
		return decimal.Zero, ports.ErrRowNotFound
	}
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ports.ErrInsufficient
	}
	w.Balance = next
	return next, nil
}

func (r *memBalanceRepo) AdjustStock(ctx context.Context, tx pgx.Tx, storeID, productID uuid.UUID, delta int, allowNegative bool) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.stocks[stockKey(storeID, productID)]
	if !ok {
		return 0, ports.ErrRowNotFound
	}
	next := sl.Stock + delta
	if next < 0 && !allowNegative {
		return 0, ports.ErrInsufficient
	}
	sl.Stock = next
	return next, nil
}

func (r *memBalanceRepo) ResetWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, value decimal.Decimal) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[walletID]
	if !ok {
		return decimal.Zero, ports.ErrRowNotFound
	}
	w.Balance = value
	return value, nil
}

func (r *memBalanceRepo) Snapshot(ctx context.Context, storeID uuid.UUID, walletIDs, productIDs []uuid.UUID) (*domain.BalanceSnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stores[storeID]
	if !ok {
		return nil, ports.ErrRowNotFound
	}
	snap := &domain.BalanceSnapshot{StoreID: storeID, Cash: st.Cash}
	if len(walletIDs) > 0 {
		snap.Wallets = make(map[uuid.UUID]decimal.Decimal, len(walletIDs))
		for _, id := range walletIDs {
			if w, ok := r.s.wallets[id]; ok {
				snap.Wallets[id] = w.Balance
			}
		}
	}
	if len(productIDs) > 0 {
		snap.Stocks = make(map[uuid.UUID]int, len(productIDs))
		for _, id := range productIDs {
			if sl, ok := r.s.stocks[stockKey(storeID, id)]; ok {
				snap.Stocks[id] = sl.Stock
			}
		}
	}
	return snap, nil
}

// --- Store / Wallet / Operator Repos ---

type memStoreRepo struct{ s *memState }

func (r *memStoreRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stores[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

type memWalletRepo struct{ s *memState }

func (r *memWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Wallet
	for _, w := range r.s.wallets {
		if w.StoreID == storeID {
			out = append(out, *w)
		}
	}
	return out, nil
}

type memOperatorRepo struct{ s *memState }

func (r *memOperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	op, ok := r.s.operators[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (r *memOperatorRepo) GetByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, op := range r.s.operators {
		if op.Username == username {
			cp := *op
			return &cp, nil
		}
	}
	return nil, nil
}

// --- Stock Level Repo ---

type memStockRepo struct{ s *memState }

func (r *memStockRepo) GetLevel(ctx context.Context, storeID, productID uuid.UUID) (*domain.StockLevel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.stocks[stockKey(storeID, productID)]
	if !ok {
		return nil, nil
	}
	cp := *sl
	return &cp, nil
}

func (r *memStockRepo) Archive(ctx context.Context, tx pgx.Tx, storeID, productID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.stocks[stockKey(storeID, productID)]
	if !ok || sl.Status != domain.StockStatusActive {
		return fmt.Errorf("stock level not found for store %s product %s", storeID, productID)
	}
	now := time.Now().UTC()
	sl.Status = domain.StockStatusArchived
	sl.ArchivedAt = &now
	sl.UpdatedAt = now
	return nil
}

// --- Fee Rule Repo ---

type memFeeRuleRepo struct{ s *memState }

func (r *memFeeRuleRepo) ListByKind(ctx context.Context, kind domain.FeeRuleKind, sourceID *uuid.UUID) ([]domain.FeeRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.FeeRule
	for _, rule := range r.s.feeRules {
		if rule.Kind != kind {
			continue
		}
		if rule.SourceID == nil {
			out = append(out, rule)
			continue
		}
		if sourceID != nil && *rule.SourceID == *sourceID {
			out = append(out, rule)
		}
	}
	return out, nil
}

// --- Stock Flow Repo ---

type memStockFlowRepo struct{ s *memState }

func (r *memStockFlowRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.StockFlowEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.flows = append(r.s.flows, *entry)
	return nil
}

func (r *memStockFlowRepo) List(ctx context.Context, params ports.StockFlowListParams) ([]domain.StockFlowEntry, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.StockFlowEntry
	for _, f := range r.s.flows {
		if f.StoreID != params.StoreID {
			continue
		}
		if params.Type != nil && f.FlowType != *params.Type {
			continue
		}
		if params.Search != "" && !strings.Contains(f.Note, params.Search) {
			continue
		}
		out = append(out, f)
	}
	return paginate(out, params.Page, params.PageSize)
}

// --- Transaction Repo ---

type memTransactionRepo struct{ s *memState }

func (r *memTransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *txn
	cp.Lines = nil
	r.s.txns[txn.ID] = &cp
	return nil
}

func (r *memTransactionRepo) CreateLine(ctx context.Context, tx pgx.Tx, line *domain.TransactionLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lines[line.TransactionID] = append(r.s.lines[line.TransactionID], *line)
	return nil
}

func (r *memTransactionRepo) CreateTopup(ctx context.Context, tx pgx.Tx, rec *domain.TopupRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *rec
	r.s.topups[rec.ID] = &cp
	return nil
}

func (r *memTransactionRepo) CreateWithdrawal(ctx context.Context, tx pgx.Tx, rec *domain.WithdrawalRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *rec
	r.s.withdrawals[rec.ID] = &cp
	return nil
}

func (r *memTransactionRepo) getLocked(id uuid.UUID) *domain.Transaction {
	t, ok := r.s.txns[id]
	if !ok {
		return nil
	}
	cp := *t
	cp.Lines = append([]domain.TransactionLine(nil), r.s.lines[id]...)
	return &cp
}

func (r *memTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.getLocked(id), nil
}

func (r *memTransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.getLocked(id), nil
}

func (r *memTransactionRepo) GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wd, ok := r.s.withdrawals[id]
	if !ok {
		return nil, nil
	}
	cp := *wd
	return &cp, nil
}

func (r *memTransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, upd ports.StatusUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.txns[id]
	if !ok {
		return fmt.Errorf("transaction not found: %s", id)
	}
	t.Status = upd.Status
	t.DeleteReason = upd.Reason
	t.DeleteRequestBy = upd.RequestedBy
	t.DeleteApprovedBy = upd.ApprovedBy
	t.DeletedAt = upd.DeletedAt
	return nil
}

func (r *memTransactionRepo) ReplaceLines(ctx context.Context, tx pgx.Tx, txnID uuid.UUID, lines []domain.TransactionLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lines[txnID] = append([]domain.TransactionLine(nil), lines...)
	return nil
}

func (r *memTransactionRepo) UpdateHeader(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.txns[txn.ID]
	if !ok {
		return fmt.Errorf("transaction not found: %s", txn.ID)
	}
	t.PaymentMethod = txn.PaymentMethod
	t.Subtotal = txn.Subtotal
	t.Tax = txn.Tax
	t.Total = txn.Total
	return nil
}

func (r *memTransactionRepo) DeleteWithdrawal(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.withdrawals[id]; !ok {
		return fmt.Errorf("withdrawal not found: %s", id)
	}
	delete(r.s.withdrawals, id)
	return nil
}

func (r *memTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Transaction
	for id, t := range r.s.txns {
		if params.StoreID != nil && t.StoreID != *params.StoreID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		cp := *t
		cp.Lines = append([]domain.TransactionLine(nil), r.s.lines[id]...)
		out = append(out, cp)
	}
	return paginate(out, params.Page, params.PageSize)
}

// --- Idempotency Repo ---

type memIdempotencyRepo struct{ s *memState }

func (r *memIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *log
	r.s.idempotency[log.Key] = &cp
	return nil
}

func (r *memIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.idempotency[key]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func paginate[T any](items []T, page, pageSize int) ([]T, int64, error) {
	total := int64(len(items))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}, total, nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}

// --- Transactor (no-op tx) ---

type memTransactor struct{}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
