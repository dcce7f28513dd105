package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos-backoffice/internal/adapter/http/dto"
	"pos-backoffice/internal/adapter/http/middleware"
	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/internal/core/ports/mocks"
	"pos-backoffice/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// authedContext builds a test context carrying the identity the JWT
// middleware would have set.
func authedContext(w *httptest.ResponseRecorder, operatorID, storeID uuid.UUID) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	c.Set(middleware.CtxOperatorID, operatorID)
	c.Set(middleware.CtxStoreID, storeID)
	return c, r
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// --- Auth Handler Tests ---

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "kasir1", "password123").
		Return("jwt-token", expiry, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		jsonBody(t, dto.LoginRequest{Username: "kasir1", Password: "password123"}))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "kasir1", "wrong").
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		jsonBody(t, dto.LoginRequest{Username: "kasir1", Password: "wrong"}))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_001")
}

func TestLogin_MissingFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"username":"kasir1"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_001")
}

// --- Settlement Handler Tests ---

func TestSettle_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettle := mocks.NewMockSettlementService(ctrl)
	h := NewSettlementHandler(mockSettle)

	operatorID := uuid.New()
	storeID := uuid.New()
	productID := uuid.New()
	txnID := uuid.New()

	mockSettle.EXPECT().Settle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.SettleRequest) (*ports.SettleResult, error) {
			assert.Equal(t, storeID, req.StoreID)
			assert.Equal(t, operatorID, req.OperatorID)
			assert.Equal(t, "cash", req.PaymentMethod)
			assert.Equal(t, "ORDER-001", req.ReferenceID)
			require.Len(t, req.Lines, 1)
			require.NotNil(t, req.Lines[0].ProductID)
			assert.Equal(t, productID, *req.Lines[0].ProductID)
			assert.Equal(t, 2, req.Lines[0].Quantity)
			assert.True(t, req.Lines[0].UnitPrice.Equal(decimal.NewFromInt(15000)))
			return &ports.SettleResult{
				Transaction: &domain.Transaction{ID: txnID, StoreID: storeID, Status: domain.StatusSettled},
				Snapshot:    &domain.BalanceSnapshot{StoreID: storeID, Cash: decimal.NewFromInt(30000)},
			}, nil
		})

	pid := productID.String()
	body := dto.SettleRequest{
		PaymentMethod: "cash",
		ReferenceID:   "ORDER-001",
		Lines: []dto.SettleLine{
			{ProductID: &pid, Quantity: 2, UnitPrice: decimal.NewFromInt(15000)},
		},
	}

	w := httptest.NewRecorder()
	c, _ := authedContext(w, operatorID, storeID)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/settlements", jsonBody(t, body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Settle(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	txn := data["transaction"].(map[string]interface{})
	assert.Equal(t, txnID.String(), txn["id"])
}

func TestSettle_MissingIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewSettlementHandler(mocks.NewMockSettlementService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/settlements",
		bytes.NewReader([]byte(`{}`)))

	h.Settle(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_002")
}

func TestSettle_RejectsEmptyLines(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewSettlementHandler(mocks.NewMockSettlementService(ctrl))

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), uuid.New())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/settlements",
		bytes.NewReader([]byte(`{"payment_method":"cash","lines":[]}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Settle(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_001")
}

func TestEdit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettle := mocks.NewMockSettlementService(ctrl)
	h := NewSettlementHandler(mockSettle)

	operatorID := uuid.New()
	txnID := uuid.New()
	productID := uuid.New()

	mockSettle.EXPECT().Edit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.EditRequest) (*domain.Transaction, error) {
			assert.Equal(t, txnID, req.TransactionID)
			assert.Equal(t, operatorID, req.OperatorID)
			assert.Equal(t, "qris", req.PaymentMethod)
			require.Len(t, req.Lines, 1)
			return &domain.Transaction{ID: txnID, PaymentMethod: "qris"}, nil
		})

	pid := productID.String()
	body := dto.EditRequest{
		PaymentMethod: "qris",
		Lines: []dto.SettleLine{
			{ProductID: &pid, Quantity: 1, UnitPrice: decimal.NewFromInt(5000)},
		},
	}

	w := httptest.NewRecorder()
	c, _ := authedContext(w, operatorID, uuid.New())
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/transactions/"+txnID.String(), jsonBody(t, body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: txnID.String()}}

	h.Edit(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEdit_BadTransactionID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewSettlementHandler(mocks.NewMockSettlementService(ctrl))

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), uuid.New())
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/transactions/not-a-uuid",
		bytes.NewReader([]byte(`{}`)))
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Edit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteWithdrawal_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettle := mocks.NewMockSettlementService(ctrl)
	h := NewSettlementHandler(mockSettle)

	operatorID := uuid.New()
	withdrawalID := uuid.New()

	mockSettle.EXPECT().DeleteWithdrawal(gomock.Any(), withdrawalID, operatorID).Return(nil)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, operatorID, uuid.New())
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/withdrawals/"+withdrawalID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: withdrawalID.String()}}

	h.DeleteWithdrawal(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)
}

// --- Approval Handler Tests ---

func TestRequestDelete_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockApproval := mocks.NewMockApprovalService(ctrl)
	h := NewApprovalHandler(mockApproval)

	operatorID := uuid.New()
	txnID := uuid.New()

	mockApproval.EXPECT().RequestDelete(gomock.Any(), txnID, "wrong items rung up", operatorID).
		Return(&domain.Transaction{ID: txnID, Status: domain.StatusPendingDelete}, nil)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, operatorID, uuid.New())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txnID.String()+"/delete-request",
		jsonBody(t, dto.RequestDeleteRequest{Reason: "wrong items rung up"}))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: txnID.String()}}

	h.RequestDelete(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestDelete_MissingReason(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewApprovalHandler(mocks.NewMockApprovalService(ctrl))

	txnID := uuid.New()
	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), uuid.New())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txnID.String()+"/delete-request",
		bytes.NewReader([]byte(`{}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: txnID.String()}}

	h.RequestDelete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_001")
}

func TestApprove_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockApproval := mocks.NewMockApprovalService(ctrl)
	h := NewApprovalHandler(mockApproval)

	approverID := uuid.New()
	txnID := uuid.New()

	mockApproval.EXPECT().Approve(gomock.Any(), txnID, approverID, "123456").
		Return(&domain.Transaction{ID: txnID, Status: domain.StatusDeleted}, nil)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, approverID, uuid.New())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txnID.String()+"/approve",
		jsonBody(t, dto.ApproveRequest{PIN: "123456"}))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: txnID.String()}}

	h.Approve(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApprove_WrongPIN(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockApproval := mocks.NewMockApprovalService(ctrl)
	h := NewApprovalHandler(mockApproval)

	approverID := uuid.New()
	txnID := uuid.New()

	mockApproval.EXPECT().Approve(gomock.Any(), txnID, approverID, "000000").
		Return(nil, apperror.ErrInvalidPIN())

	w := httptest.NewRecorder()
	c, _ := authedContext(w, approverID, uuid.New())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txnID.String()+"/approve",
		jsonBody(t, dto.ApproveRequest{PIN: "000000"}))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: txnID.String()}}

	h.Approve(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_003")
}

func TestReject_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockApproval := mocks.NewMockApprovalService(ctrl)
	h := NewApprovalHandler(mockApproval)

	txnID := uuid.New()
	mockApproval.EXPECT().Reject(gomock.Any(), txnID).
		Return(&domain.Transaction{ID: txnID, Status: domain.StatusSettled}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txnID.String()+"/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: txnID.String()}}

	h.Reject(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Adjustment Handler Tests ---

func TestAdjustWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAdjust := mocks.NewMockAdjustmentService(ctrl)
	h := NewAdjustmentHandler(mockAdjust)

	operatorID := uuid.New()
	walletID := uuid.New()

	mockAdjust.EXPECT().AdjustWallet(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.WalletAdjustRequest) (decimal.Decimal, error) {
			assert.Equal(t, walletID, req.WalletID)
			assert.Equal(t, operatorID, req.OperatorID)
			assert.Equal(t, domain.WalletAdjustAdd, req.Op)
			assert.True(t, req.Amount.Equal(decimal.NewFromInt(500000)))
			return decimal.NewFromInt(1500000), nil
		})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, operatorID, uuid.New())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/wallets/"+walletID.String()+"/adjust",
		jsonBody(t, dto.WalletAdjustRequest{Op: "add", Amount: decimal.NewFromInt(500000)}))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.AdjustWallet(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":"1500000"`)
}

func TestAdjustWallet_UnknownOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAdjustmentHandler(mocks.NewMockAdjustmentService(ctrl))

	walletID := uuid.New()
	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), uuid.New())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/wallets/"+walletID.String()+"/adjust",
		bytes.NewReader([]byte(`{"op":"double","amount":"100"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}

	h.AdjustWallet(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustStock_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAdjust := mocks.NewMockAdjustmentService(ctrl)
	h := NewAdjustmentHandler(mockAdjust)

	operatorID := uuid.New()
	storeID := uuid.New()
	productID := uuid.New()

	mockAdjust.EXPECT().AdjustStock(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.StockAdjustRequest) (int, error) {
			assert.Equal(t, storeID, req.StoreID)
			assert.Equal(t, productID, req.ProductID)
			assert.Equal(t, 24, req.Delta)
			assert.Equal(t, domain.StockFlowRestock, req.FlowType)
			assert.Equal(t, "weekly delivery", req.Note)
			return 36, nil
		})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, operatorID, storeID)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/stocks/adjust",
		jsonBody(t, dto.StockAdjustRequest{
			ProductID: productID.String(),
			Delta:     24,
			FlowType:  "restock",
			Note:      "weekly delivery",
		}))
	c.Request.Header.Set("Content-Type", "application/json")

	h.AdjustStock(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stock":36`)
}

func TestArchiveStock_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAdjust := mocks.NewMockAdjustmentService(ctrl)
	h := NewAdjustmentHandler(mockAdjust)

	operatorID := uuid.New()
	storeID := uuid.New()
	productID := uuid.New()

	mockAdjust.EXPECT().ArchiveStock(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.StockArchiveRequest) error {
			assert.Equal(t, storeID, req.StoreID)
			assert.Equal(t, productID, req.ProductID)
			assert.Equal(t, operatorID, req.OperatorID)
			return nil
		})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, operatorID, storeID)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/stocks/"+productID.String(), nil)
	c.Params = gin.Params{{Key: "product_id", Value: productID.String()}}

	h.ArchiveStock(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"archived":true`)
}

func TestArchiveStock_BadProductID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAdjust := mocks.NewMockAdjustmentService(ctrl)
	h := NewAdjustmentHandler(mockAdjust)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), uuid.New())
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/stocks/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "product_id", Value: "not-a-uuid"}}

	h.ArchiveStock(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Reporting Handler Tests ---

func TestListTransactions_StatusFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReport := mocks.NewMockReportingService(ctrl)
	h := NewReportingHandler(mockReport)

	storeID := uuid.New()

	mockReport.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			require.NotNil(t, params.StoreID)
			assert.Equal(t, storeID, *params.StoreID)
			require.NotNil(t, params.Status)
			assert.Equal(t, domain.StatusPendingDelete, *params.Status)
			assert.Equal(t, 2, params.Page)
			assert.Equal(t, 10, params.PageSize)
			return []domain.Transaction{{ID: uuid.New(), StoreID: storeID}}, 11, nil
		})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), storeID)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/v1/transactions?status=pending_delete&page=2&page_size=10", nil)

	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	meta := data["meta"].(map[string]interface{})
	assert.Equal(t, float64(11), meta["total"])
	assert.Equal(t, float64(2), meta["page"])
}

func TestListTransactions_BadStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewReportingHandler(mocks.NewMockReportingService(ctrl))

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), uuid.New())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/transactions?status=voided", nil)

	h.ListTransactions(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTransaction_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReport := mocks.NewMockReportingService(ctrl)
	h := NewReportingHandler(mockReport)

	txnID := uuid.New()
	mockReport.EXPECT().GetTransaction(gomock.Any(), txnID).
		Return(nil, apperror.ErrNotFound("Transaction"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+txnID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: txnID.String()}}

	h.GetTransaction(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "POS_001")
}

func TestListStockFlows_TypeFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReport := mocks.NewMockReportingService(ctrl)
	h := NewReportingHandler(mockReport)

	storeID := uuid.New()

	mockReport.EXPECT().ListStockFlows(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.StockFlowListParams) ([]domain.StockFlowEntry, int64, error) {
			assert.Equal(t, storeID, params.StoreID)
			require.NotNil(t, params.Type)
			assert.Equal(t, domain.StockFlowRestock, *params.Type)
			return nil, 0, nil
		})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), storeID)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/stock-flows?type=restock", nil)

	h.ListStockFlows(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListStockFlows_BadType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewReportingHandler(mocks.NewMockReportingService(ctrl))

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), uuid.New())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/stock-flows?type=shrinkage", nil)

	h.ListStockFlows(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBalances_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReport := mocks.NewMockReportingService(ctrl)
	h := NewReportingHandler(mockReport)

	storeID := uuid.New()
	mockReport.EXPECT().GetStoreBalances(gomock.Any(), storeID).
		Return(&domain.BalanceSnapshot{StoreID: storeID, Cash: decimal.NewFromInt(250000)}, nil)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New(), storeID)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/balances", nil)

	h.GetBalances(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cash":"250000"`)
}

// --- Health Check ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                 { return s.name }
func (s stubChecker) Ping(_ context.Context) error { return s.err }

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgres"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestHealthCheck_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgres"}, stubChecker{name: "redis", err: errors.New("connection refused")})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), "connection refused")
}
