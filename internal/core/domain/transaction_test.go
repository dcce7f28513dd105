package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_String(t *testing.T) {
	assert.Equal(t, "settled", StatusSettled.String())
	assert.Equal(t, "pending_delete", StatusPendingDelete.String())
	assert.Equal(t, "deleted", StatusDeleted.String())
	assert.Equal(t, "unknown", TransactionStatus(99).String())
}

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{"settled to pending_delete", StatusSettled, StatusPendingDelete, true},
		{"pending_delete to deleted", StatusPendingDelete, StatusDeleted, true},
		{"pending_delete back to settled", StatusPendingDelete, StatusSettled, true},
		{"settled directly to deleted", StatusSettled, StatusDeleted, false},
		{"deleted to anything", StatusDeleted, StatusSettled, false},
		{"deleted to pending_delete", StatusDeleted, StatusPendingDelete, false},
		{"settled to settled", StatusSettled, StatusSettled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLineDetail_Validate(t *testing.T) {
	productRef := &ProductSaleRef{ProductID: uuid.New()}
	topup := &TopupRecord{ID: uuid.New()}
	withdrawal := &WithdrawalRecord{ID: uuid.New()}

	tests := []struct {
		name   string
		detail LineDetail
		valid  bool
	}{
		{"product line", LineDetail{Kind: LineKindProduct, Product: productRef}, true},
		{"topup line", LineDetail{Kind: LineKindTopup, Topup: topup}, true},
		{"withdrawal line", LineDetail{Kind: LineKindWithdrawal, Withdrawal: withdrawal}, true},
		{"nothing populated", LineDetail{Kind: LineKindProduct}, false},
		{"two populated", LineDetail{Kind: LineKindTopup, Topup: topup, Withdrawal: withdrawal}, false},
		{"all populated", LineDetail{Kind: LineKindProduct, Product: productRef, Topup: topup, Withdrawal: withdrawal}, false},
		{"kind disagrees with variant", LineDetail{Kind: LineKindTopup, Product: productRef}, false},
		{"unknown kind", LineDetail{Kind: "mystery", Product: productRef}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.detail.Validate())
		})
	}
}

func TestStockFlowType_Valid(t *testing.T) {
	for _, ft := range []StockFlowType{
		StockFlowInitial, StockFlowSale, StockFlowRestock,
		StockFlowReturn, StockFlowAdjustment, StockFlowAudit,
	} {
		assert.True(t, ft.Valid(), string(ft))
	}
	assert.False(t, StockFlowType("theft").Valid())
}

func TestWalletAdjustmentOp_Valid(t *testing.T) {
	assert.True(t, WalletAdjustAdd.Valid())
	assert.True(t, WalletAdjustSubtract.Valid())
	assert.True(t, WalletAdjustReset.Valid())
	assert.False(t, WalletAdjustmentOp("multiply").Valid())
}

func TestBuildSettlementKey(t *testing.T) {
	storeID := uuid.New()
	key := BuildSettlementKey(storeID, "POS-001")
	assert.Contains(t, key, storeID.String())
	assert.Contains(t, key, "POS-001")

	other := BuildSettlementKey(storeID, "POS-002")
	assert.NotEqual(t, key, other)
}
