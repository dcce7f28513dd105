package postgres

import (
	"context"
	"errors"
	"fmt"

	"pos-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StoreRepo implements ports.StoreRepository.
type StoreRepo struct {
	pool Pool
}

// NewStoreRepo creates a new StoreRepo.
func NewStoreRepo(pool Pool) *StoreRepo {
	return &StoreRepo{pool: pool}
}

// GetByID fetches a store by its UUID.
func (r *StoreRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	query := `SELECT id, name, cash, created_at, updated_at FROM stores WHERE id = $1`

	s := &domain.Store{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Cash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store by id: %w", err)
	}
	return s, nil
}
