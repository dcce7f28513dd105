package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const txnColumns = `id, store_id, operator_id, payment_method, reference_id,
		subtotal, tax, total, status, delete_reason, delete_requested_by,
		delete_approved_by, deleted_at, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.StoreID, &t.OperatorID, &t.PaymentMethod, &t.ReferenceID,
		&t.Subtotal, &t.Tax, &t.Total, &t.Status, &t.DeleteReason,
		&t.DeleteRequestBy, &t.DeleteApprovedBy, &t.DeletedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a transaction header within a database transaction.
// Lines go through CreateLine so callers control line order.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	query := `INSERT INTO transactions
		(id, store_id, operator_id, payment_method, reference_id, subtotal, tax, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		txn.ID, txn.StoreID, txn.OperatorID, txn.PaymentMethod, txn.ReferenceID,
		txn.Subtotal, txn.Tax, txn.Total, txn.Status, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateLine inserts one line. The tagged detail is stored as a kind
// column plus at most one populated reference column.
func (r *TransactionRepo) CreateLine(ctx context.Context, tx pgx.Tx, line *domain.TransactionLine) error {
	var productID, topupID, withdrawalID *uuid.UUID
	switch line.Detail.Kind {
	case domain.LineKindProduct:
		productID = &line.Detail.Product.ProductID
	case domain.LineKindTopup:
		topupID = &line.Detail.Topup.ID
	case domain.LineKindWithdrawal:
		withdrawalID = &line.Detail.Withdrawal.ID
	}

	query := `INSERT INTO transaction_lines
		(id, transaction_id, line_kind, product_id, topup_id, withdrawal_id, quantity, unit_price, subtotal, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		line.ID, line.TransactionID, line.Detail.Kind, productID, topupID, withdrawalID,
		line.Quantity, line.UnitPrice, line.Subtotal, line.CreatedBy, line.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction line: %w", err)
	}
	return nil
}

// CreateTopup inserts a topup record within a database transaction.
func (r *TransactionRepo) CreateTopup(ctx context.Context, tx pgx.Tx, rec *domain.TopupRecord) error {
	query := `INSERT INTO topups
		(id, store_id, wallet_id, customer_ref, nominal_request, nominal_pay, provider_fee, profit_fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		rec.ID, rec.StoreID, rec.WalletID, rec.CustomerRef,
		rec.NominalRequest, rec.NominalPay, rec.ProviderFee, rec.ProfitFee, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert topup record: %w", err)
	}
	return nil
}

// CreateWithdrawal inserts a withdrawal record within a database transaction.
func (r *TransactionRepo) CreateWithdrawal(ctx context.Context, tx pgx.Tx, rec *domain.WithdrawalRecord) error {
	query := `INSERT INTO withdrawals
		(id, store_id, customer_name, source_id, amount, admin_fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		rec.ID, rec.StoreID, rec.CustomerName, rec.SourceID,
		rec.Amount, rec.AdminFee, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal record: %w", err)
	}
	return nil
}

// GetByID fetches a transaction header with its lines.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}

	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	txn.Lines = lines
	return txn, nil
}

// GetByIDForUpdate locks the header row for an approval transition.
// MUST be called within a transaction.
func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := scanTransaction(tx.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction for update: %w", err)
	}
	return txn, nil
}

// loadLines fetches a transaction's lines with their sub-records, in
// insertion order.
func (r *TransactionRepo) loadLines(ctx context.Context, txnID uuid.UUID) ([]domain.TransactionLine, error) {
	query := `SELECT l.id, l.transaction_id, l.line_kind, l.product_id, l.quantity, l.unit_price, l.subtotal, l.created_by, l.created_at,
			tp.id, tp.store_id, tp.wallet_id, tp.customer_ref, tp.nominal_request, tp.nominal_pay, tp.provider_fee, tp.profit_fee, tp.created_at,
			wd.id, wd.store_id, wd.customer_name, wd.source_id, wd.amount, wd.admin_fee, wd.created_at
		FROM transaction_lines l
		LEFT JOIN topups tp ON tp.id = l.topup_id
		LEFT JOIN withdrawals wd ON wd.id = l.withdrawal_id
		WHERE l.transaction_id = $1
		ORDER BY l.created_at, l.id`

	rows, err := r.pool.Query(ctx, query, txnID)
	if err != nil {
		return nil, fmt.Errorf("load transaction lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.TransactionLine
	for rows.Next() {
		var l domain.TransactionLine
		var kind domain.LineKind
		var productID *uuid.UUID

		// The joined columns are NULL for every line without that
		// sub-record, so they scan through nullable intermediates.
		var (
			tpID, tpStoreID, tpWalletID                            *uuid.UUID
			tpCustomerRef                                          *string
			tpNominalRequest, tpNominalPay, tpProvFee, tpProfitFee decimal.NullDecimal
			tpCreatedAt                                            *time.Time

			wdID, wdStoreID, wdSourceID *uuid.UUID
			wdCustomerName              *string
			wdAmount, wdAdminFee        decimal.NullDecimal
			wdCreatedAt                 *time.Time
		)
		err := rows.Scan(
			&l.ID, &l.TransactionID, &kind, &productID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &l.CreatedBy, &l.CreatedAt,
			&tpID, &tpStoreID, &tpWalletID, &tpCustomerRef, &tpNominalRequest, &tpNominalPay, &tpProvFee, &tpProfitFee, &tpCreatedAt,
			&wdID, &wdStoreID, &wdCustomerName, &wdSourceID, &wdAmount, &wdAdminFee, &wdCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction line: %w", err)
		}

		l.Detail.Kind = kind
		switch kind {
		case domain.LineKindProduct:
			if productID != nil {
				l.Detail.Product = &domain.ProductSaleRef{ProductID: *productID}
			}
		case domain.LineKindTopup:
			if tpID != nil {
				tp := &domain.TopupRecord{
					ID:             *tpID,
					NominalRequest: tpNominalRequest.Decimal,
					NominalPay:     tpNominalPay.Decimal,
					ProviderFee:    tpProvFee.Decimal,
					ProfitFee:      tpProfitFee.Decimal,
				}
				if tpStoreID != nil {
					tp.StoreID = *tpStoreID
				}
				if tpWalletID != nil {
					tp.WalletID = *tpWalletID
				}
				if tpCustomerRef != nil {
					tp.CustomerRef = *tpCustomerRef
				}
				if tpCreatedAt != nil {
					tp.CreatedAt = *tpCreatedAt
				}
				l.Detail.Topup = tp
			}
		case domain.LineKindWithdrawal:
			if wdID != nil {
				wd := &domain.WithdrawalRecord{
					ID:       *wdID,
					SourceID: wdSourceID,
					Amount:   wdAmount.Decimal,
					AdminFee: wdAdminFee.Decimal,
				}
				if wdStoreID != nil {
					wd.StoreID = *wdStoreID
				}
				if wdCustomerName != nil {
					wd.CustomerName = *wdCustomerName
				}
				if wdCreatedAt != nil {
					wd.CreatedAt = *wdCreatedAt
				}
				l.Detail.Withdrawal = wd
			}
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction lines: %w", err)
	}
	return lines, nil
}

// UpdateStatus applies an approval-workflow transition. Nil fields in
// upd clear the corresponding columns (reject path).
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, upd ports.StatusUpdate) error {
	query := `UPDATE transactions SET status = $1, delete_reason = $2,
		delete_requested_by = $3, delete_approved_by = $4, deleted_at = $5
		WHERE id = $6`

	tag, err := tx.Exec(ctx, query, upd.Status, upd.Reason, upd.RequestedBy, upd.ApprovedBy, upd.DeletedAt, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// ReplaceLines hard-deletes the existing lines and inserts new ones.
// Legacy edit path: no balance reconciliation happens here.
func (r *TransactionRepo) ReplaceLines(ctx context.Context, tx pgx.Tx, txnID uuid.UUID, lines []domain.TransactionLine) error {
	if _, err := tx.Exec(ctx, `DELETE FROM transaction_lines WHERE transaction_id = $1`, txnID); err != nil {
		return fmt.Errorf("delete transaction lines: %w", err)
	}
	for i := range lines {
		if err := r.CreateLine(ctx, tx, &lines[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateHeader rewrites the mutable header fields of a transaction.
func (r *TransactionRepo) UpdateHeader(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	query := `UPDATE transactions SET payment_method = $1, subtotal = $2, tax = $3, total = $4
		WHERE id = $5`

	tag, err := tx.Exec(ctx, query, txn.PaymentMethod, txn.Subtotal, txn.Tax, txn.Total, txn.ID)
	if err != nil {
		return fmt.Errorf("update transaction header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", txn.ID)
	}
	return nil
}

// GetWithdrawal fetches a withdrawal record by id.
func (r *TransactionRepo) GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRecord, error) {
	query := `SELECT id, store_id, customer_name, source_id, amount, admin_fee, created_at
		FROM withdrawals WHERE id = $1`

	wd := &domain.WithdrawalRecord{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&wd.ID, &wd.StoreID, &wd.CustomerName, &wd.SourceID, &wd.Amount, &wd.AdminFee, &wd.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	return wd, nil
}

// DeleteWithdrawal removes a withdrawal record. Lines referencing it
// keep their row with the reference cleared (ON DELETE SET NULL).
func (r *TransactionRepo) DeleteWithdrawal(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM withdrawals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete withdrawal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("withdrawal not found: %s", id)
	}
	return nil
}

// List returns a filtered page of transaction headers plus the total count.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	conditions := []string{"1=1"}
	args := []any{}
	idx := 1

	if params.StoreID != nil {
		conditions = append(conditions, fmt.Sprintf("store_id = $%d", idx))
		args = append(args, *params.StoreID)
		idx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", idx))
		args = append(args, *params.Status)
		idx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", idx))
		args = append(args, *params.From)
		idx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", idx))
		args = append(args, *params.To)
		idx++
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := fmt.Sprintf(`SELECT `+txnColumns+` FROM transactions WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID, &t.StoreID, &t.OperatorID, &t.PaymentMethod, &t.ReferenceID,
			&t.Subtotal, &t.Tax, &t.Total, &t.Status, &t.DeleteReason,
			&t.DeleteRequestBy, &t.DeleteApprovedBy, &t.DeletedAt, &t.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, total, nil
}
