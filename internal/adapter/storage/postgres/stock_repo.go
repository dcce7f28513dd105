package postgres

import (
	"context"
	"errors"
	"fmt"

	"pos-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StockRepo implements ports.StockRepository.
type StockRepo struct {
	pool Pool
}

// NewStockRepo creates a new StockRepo.
func NewStockRepo(pool Pool) *StockRepo {
	return &StockRepo{pool: pool}
}

// GetLevel fetches the stock level for one (store, product) pair.
func (r *StockRepo) GetLevel(ctx context.Context, storeID, productID uuid.UUID) (*domain.StockLevel, error) {
	query := `SELECT id, store_id, product_id, stock, status, archived_at, created_at, updated_at
		FROM stock_levels WHERE store_id = $1 AND product_id = $2`

	lvl := &domain.StockLevel{}
	err := r.pool.QueryRow(ctx, query, storeID, productID).Scan(
		&lvl.ID, &lvl.StoreID, &lvl.ProductID, &lvl.Stock,
		&lvl.Status, &lvl.ArchivedAt, &lvl.CreatedAt, &lvl.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return lvl, nil
}

// Archive soft-deletes a stock level. History rows stay intact.
func (r *StockRepo) Archive(ctx context.Context, tx pgx.Tx, storeID, productID uuid.UUID) error {
	query := `UPDATE stock_levels SET status = 'archived', archived_at = NOW(), updated_at = NOW()
		WHERE store_id = $1 AND product_id = $2 AND status = 'active'`

	tag, err := tx.Exec(ctx, query, storeID, productID)
	if err != nil {
		return fmt.Errorf("archive stock level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stock level not found for store %s product %s", storeID, productID)
	}
	return nil
}
