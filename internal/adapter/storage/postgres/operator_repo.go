package postgres

import (
	"context"
	"errors"
	"fmt"

	"pos-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OperatorRepo implements ports.OperatorRepository.
type OperatorRepo struct {
	pool Pool
}

// NewOperatorRepo creates a new OperatorRepo.
func NewOperatorRepo(pool Pool) *OperatorRepo {
	return &OperatorRepo{pool: pool}
}

const operatorColumns = `id, username, password_hash, pin_hash, role, store_id, active, created_at`

func scanOperator(row pgx.Row) (*domain.Operator, error) {
	op := &domain.Operator{}
	err := row.Scan(&op.ID, &op.Username, &op.PasswordHash, &op.PINHash, &op.Role, &op.StoreID, &op.Active, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return op, nil
}

// GetByID fetches an operator by UUID.
func (r *OperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	op, err := scanOperator(r.pool.QueryRow(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get operator by id: %w", err)
	}
	return op, nil
}

// GetByUsername fetches an operator by login name.
func (r *OperatorRepo) GetByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	op, err := scanOperator(r.pool.QueryRow(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("get operator by username: %w", err)
	}
	return op, nil
}
