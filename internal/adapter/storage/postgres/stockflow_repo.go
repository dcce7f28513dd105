package postgres

import (
	"context"
	"fmt"
	"strings"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// StockFlowRepo implements ports.StockFlowRepository. The table is
// append-only: there is deliberately no update or delete method.
type StockFlowRepo struct {
	pool Pool
}

// NewStockFlowRepo creates a new StockFlowRepo.
func NewStockFlowRepo(pool Pool) *StockFlowRepo {
	return &StockFlowRepo{pool: pool}
}

// Create appends one audit entry inside the caller's transaction so it
// commits or rolls back with the settlement that caused it.
func (r *StockFlowRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.StockFlowEntry) error {
	query := `INSERT INTO stock_flows
		(id, store_id, product_id, quantity_change, flow_type, ref_type, ref_id, operator_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		entry.ID, entry.StoreID, entry.ProductID, entry.QuantityChange,
		entry.FlowType, entry.RefType, entry.RefID, entry.OperatorID,
		entry.Note, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock flow: %w", err)
	}
	return nil
}

// List returns a time-ranged, type-filtered, text-searched page of the
// stock flow history plus the total match count.
func (r *StockFlowRepo) List(ctx context.Context, params ports.StockFlowListParams) ([]domain.StockFlowEntry, int64, error) {
	conditions := []string{"store_id = $1"}
	args := []any{params.StoreID}
	idx := 2

	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("flow_type = $%d", idx))
		args = append(args, *params.Type)
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
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("note ILIKE $%d", idx))
		args = append(args, "%"+params.Search+"%")
		idx++
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM stock_flows WHERE " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock flows: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := fmt.Sprintf(`SELECT id, store_id, product_id, quantity_change, flow_type, ref_type, ref_id, operator_id, note, created_at
		FROM stock_flows WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock flows: %w", err)
	}
	defer rows.Close()

	var entries []domain.StockFlowEntry
	for rows.Next() {
		var e domain.StockFlowEntry
		if err := rows.Scan(
			&e.ID, &e.StoreID, &e.ProductID, &e.QuantityChange,
			&e.FlowType, &e.RefType, &e.RefID, &e.OperatorID,
			&e.Note, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan stock flow: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate stock flows: %w", err)
	}

	return entries, total, nil
}
