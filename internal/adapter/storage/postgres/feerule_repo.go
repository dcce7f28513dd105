package postgres

import (
	"context"
	"fmt"

	"pos-backoffice/internal/core/domain"

	"github.com/google/uuid"
)

// FeeRuleRepo implements ports.FeeRuleRepository.
type FeeRuleRepo struct {
	pool Pool
}

// NewFeeRuleRepo creates a new FeeRuleRepo.
func NewFeeRuleRepo(pool Pool) *FeeRuleRepo {
	return &FeeRuleRepo{pool: pool}
}

// ListByKind returns the fee tiers for a kind. With a sourceID the
// source-specific rules are returned along with global (NULL source)
// rules; resolution picks among them by range.
func (r *FeeRuleRepo) ListByKind(ctx context.Context, kind domain.FeeRuleKind, sourceID *uuid.UUID) ([]domain.FeeRule, error) {
	query := `SELECT id, kind, source_id, min_limit, max_limit, fee, admin_fee, created_at, updated_at
		FROM fee_rules WHERE kind = $1 AND (source_id IS NULL OR source_id = $2)
		ORDER BY min_limit`

	rows, err := r.pool.Query(ctx, query, kind, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list fee rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.FeeRule
	for rows.Next() {
		var fr domain.FeeRule
		if err := rows.Scan(
			&fr.ID, &fr.Kind, &fr.SourceID, &fr.MinLimit, &fr.MaxLimit,
			&fr.Fee, &fr.AdminFee, &fr.CreatedAt, &fr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fee rule: %w", err)
		}
		rules = append(rules, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee rules: %w", err)
	}
	return rules, nil
}
