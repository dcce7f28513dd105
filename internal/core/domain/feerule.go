package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeRuleKind distinguishes topup fee tiers from withdrawal fee tiers.
type FeeRuleKind string

const (
	FeeRuleTopup      FeeRuleKind = "topup"
	FeeRuleWithdrawal FeeRuleKind = "withdrawal"
)

// FeeRule maps an amount range to a fee. A negative MaxLimit marks the
// range as open-ended upward. Ranges are intended to be non-overlapping
// but this is not enforced at write time; resolution breaks ties by the
// highest matching MinLimit.
type FeeRule struct {
	ID       uuid.UUID       `json:"id"`
	Kind     FeeRuleKind     `json:"kind"`
	SourceID *uuid.UUID      `json:"source_id,omitempty"` // withdrawal source / topup provider, nil = global
	MinLimit decimal.Decimal `json:"min_limit"`
	MaxLimit decimal.Decimal `json:"max_limit"` // < 0 means unlimited
	Fee      decimal.Decimal `json:"fee"`
	AdminFee decimal.Decimal `json:"admin_fee"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Unlimited reports whether the rule has no upper bound.
func (r FeeRule) Unlimited() bool {
	return r.MaxLimit.IsNegative()
}

// Matches reports whether amount falls inside the rule's range.
func (r FeeRule) Matches(amount decimal.Decimal) bool {
	if amount.LessThan(r.MinLimit) {
		return false
	}
	return r.Unlimited() || amount.LessThanOrEqual(r.MaxLimit)
}

// ResolveFee selects the applicable fee for amount from rules. Among
// matching rules the one with the largest MinLimit wins. A zero fee is
// returned when nothing matches; resolution never fails a settlement.
// Pure function: identical inputs always yield identical results.
func ResolveFee(amount decimal.Decimal, rules []FeeRule) decimal.Decimal {
	var best *FeeRule
	for i := range rules {
		r := &rules[i]
		if !r.Matches(amount) {
			continue
		}
		if best == nil || r.MinLimit.GreaterThan(best.MinLimit) {
			best = r
		}
	}
	if best == nil {
		return decimal.Zero
	}
	return best.Fee
}
