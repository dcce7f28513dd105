package postgres

import (
	"context"
	"errors"
	"fmt"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// BalanceRepo implements ports.BalanceRepository. It is the only code
// path that writes the cash, wallet balance, and stock columns; every
// mutation locks the row first so concurrent settlements on the same
// resource serialize.
type BalanceRepo struct {
	pool Pool
}

// NewBalanceRepo creates a new BalanceRepo.
func NewBalanceRepo(pool Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

// AdjustCash applies delta to a store's cash drawer inside tx.
func (r *BalanceRepo) AdjustCash(ctx context.Context, tx pgx.Tx, storeID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var current decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT cash FROM stores WHERE id = $1 FOR UPDATE`, storeID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ports.ErrRowNotFound
		}
		return decimal.Zero, fmt.Errorf("lock store cash: %w", err)
	}

	next := current.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ports.ErrInsufficient
	}

	_, err = tx.Exec(ctx, `UPDATE stores SET cash = $1, updated_at = NOW() WHERE id = $2`, next, storeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("update store cash: %w", err)
	}
	return next, nil
}

// AdjustWallet applies delta to a wallet balance inside tx.
func (r *BalanceRepo) AdjustWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var current decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1 FOR UPDATE`, walletID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ports.ErrRowNotFound
		}
		return decimal.Zero, fmt.Errorf("lock wallet balance: %w", err)
	}

	next := current.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ports.ErrInsufficient
	}

	_, err = tx.Exec(ctx, `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`, next, walletID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("update wallet balance: %w", err)
	}
	return next, nil
}

// ResetWallet forces a wallet balance to an absolute non-negative value.
func (r *BalanceRepo) ResetWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, value decimal.Decimal) (decimal.Decimal, error) {
	if value.IsNegative() {
		return decimal.Zero, ports.ErrInsufficient
	}

	var current decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1 FOR UPDATE`, walletID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ports.ErrRowNotFound
		}
		return decimal.Zero, fmt.Errorf("lock wallet balance: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`, value, walletID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reset wallet balance: %w", err)
	}
	return value, nil
}

// AdjustStock applies delta to a (store, product) stock count inside tx.
// Product lines may overdraw stock when allowNegative is set; manual
// adjustments never do.
func (r *BalanceRepo) AdjustStock(ctx context.Context, tx pgx.Tx, storeID, productID uuid.UUID, delta int, allowNegative bool) (int, error) {
	var current int
	err := tx.QueryRow(ctx,
		`SELECT stock FROM stock_levels WHERE store_id = $1 AND product_id = $2 AND status = 'active' FOR UPDATE`,
		storeID, productID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ports.ErrRowNotFound
		}
		return 0, fmt.Errorf("lock stock level: %w", err)
	}

	next := current + delta
	if next < 0 && !allowNegative {
		return 0, ports.ErrInsufficient
	}

	_, err = tx.Exec(ctx,
		`UPDATE stock_levels SET stock = $1, updated_at = NOW() WHERE store_id = $2 AND product_id = $3`,
		next, storeID, productID,
	)
	if err != nil {
		return 0, fmt.Errorf("update stock level: %w", err)
	}
	return next, nil
}

// Snapshot recomputes a store's balances from committed state. Wallet
// and stock maps only include the ids asked for.
func (r *BalanceRepo) Snapshot(ctx context.Context, storeID uuid.UUID, walletIDs, productIDs []uuid.UUID) (*domain.BalanceSnapshot, error) {
	snap := &domain.BalanceSnapshot{StoreID: storeID}

	err := r.pool.QueryRow(ctx, `SELECT cash FROM stores WHERE id = $1`, storeID).Scan(&snap.Cash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrRowNotFound
		}
		return nil, fmt.Errorf("read store cash: %w", err)
	}

	if len(walletIDs) > 0 {
		snap.Wallets = make(map[uuid.UUID]decimal.Decimal, len(walletIDs))
		rows, err := r.pool.Query(ctx, `SELECT id, balance FROM wallets WHERE id = ANY($1)`, walletIDs)
		if err != nil {
			return nil, fmt.Errorf("read wallet balances: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id uuid.UUID
			var balance decimal.Decimal
			if err := rows.Scan(&id, &balance); err != nil {
				return nil, fmt.Errorf("scan wallet balance: %w", err)
			}
			snap.Wallets[id] = balance
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate wallet balances: %w", err)
		}
	}

	if len(productIDs) > 0 {
		snap.Stocks = make(map[uuid.UUID]int, len(productIDs))
		rows, err := r.pool.Query(ctx,
			`SELECT product_id, stock FROM stock_levels WHERE store_id = $1 AND product_id = ANY($2)`,
			storeID, productIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("read stock levels: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id uuid.UUID
			var stock int
			if err := rows.Scan(&id, &stock); err != nil {
				return nil, fmt.Errorf("scan stock level: %w", err)
			}
			snap.Stocks[id] = stock
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate stock levels: %w", err)
		}
	}

	return snap, nil
}
