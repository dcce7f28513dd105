package postgres

import (
	"context"
	"testing"
	"time"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlowEntry(storeID uuid.UUID) *domain.StockFlowEntry {
	refType := "transaction"
	refID := uuid.New()
	return &domain.StockFlowEntry{
		ID:             uuid.New(),
		StoreID:        storeID,
		ProductID:      uuid.New(),
		QuantityChange: -2,
		FlowType:       domain.StockFlowSale,
		RefType:        &refType,
		RefID:          &refID,
		OperatorID:     uuid.New(),
		Note:           "",
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func stockFlowColumns() []string {
	return []string{"id", "store_id", "product_id", "quantity_change", "flow_type", "ref_type", "ref_id", "operator_id", "note", "created_at"}
}

func stockFlowRow(e *domain.StockFlowEntry) *pgxmock.Rows {
	return pgxmock.NewRows(stockFlowColumns()).AddRow(
		e.ID, e.StoreID, e.ProductID, e.QuantityChange, e.FlowType,
		e.RefType, e.RefID, e.OperatorID, e.Note, e.CreatedAt,
	)
}

func TestStockFlowRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewStockFlowRepo(mock)
	e := newTestFlowEntry(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO stock_flows").
		WithArgs(e.ID, e.StoreID, e.ProductID, e.QuantityChange, e.FlowType,
			e.RefType, e.RefID, e.OperatorID, e.Note, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Manual adjustments have no causing record, so ref_type and ref_id
// go in as NULL.
func TestStockFlowRepo_Create_ManualNoRef(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewStockFlowRepo(mock)
	e := newTestFlowEntry(uuid.New())
	e.QuantityChange = 24
	e.FlowType = domain.StockFlowRestock
	e.RefType = nil
	e.RefID = nil
	e.Note = "weekly restock"

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO stock_flows").
		WithArgs(e.ID, e.StoreID, e.ProductID, e.QuantityChange, e.FlowType,
			(*string)(nil), (*uuid.UUID)(nil), e.OperatorID, e.Note, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockFlowRepo_List_ByStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewStockFlowRepo(mock)
	storeID := uuid.New()
	e := newTestFlowEntry(storeID)

	mock.ExpectQuery("SELECT COUNT.+ FROM stock_flows").
		WithArgs(storeID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM stock_flows").
		WithArgs(storeID, 20, 0).
		WillReturnRows(stockFlowRow(e))

	entries, total, err := repo.List(context.Background(), ports.StockFlowListParams{StoreID: storeID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StockFlowSale, entries[0].FlowType)
	assert.Equal(t, -2, entries[0].QuantityChange)
	assert.NoError(t, mock.ExpectationsWereMet())
}
