package handler

import (
	"strconv"
	"time"

	"pos-backoffice/internal/adapter/http/dto"
	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/pkg/apperror"
	"pos-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportingHandler handles the read-only reporting endpoints.
type ReportingHandler struct {
	reportingSvc ports.ReportingService
}

// NewReportingHandler creates a new ReportingHandler.
func NewReportingHandler(reportingSvc ports.ReportingService) *ReportingHandler {
	return &ReportingHandler{reportingSvc: reportingSvc}
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *ReportingHandler) GetTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.reportingSvc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txn)
}

// ListTransactions handles GET /api/v1/transactions.
func (h *ReportingHandler) ListTransactions(c *gin.Context) {
	_, storeID, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params := ports.TransactionListParams{StoreID: &storeID}
	params.Page, params.PageSize = pagination(c)

	if s := c.Query("status"); s != "" {
		status, err := parseStatus(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		params.Status = &status
	}
	var err error
	if params.From, params.To, err = timeRange(c); err != nil {
		response.Error(c, err)
		return
	}

	items, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ListResponse{
		Items: items,
		Meta:  dto.PageMeta{Page: params.Page, PageSize: params.PageSize, Total: total},
	})
}

// ListStockFlows handles GET /api/v1/stock-flows.
func (h *ReportingHandler) ListStockFlows(c *gin.Context) {
	_, storeID, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params := ports.StockFlowListParams{
		StoreID: storeID,
		Search:  c.Query("search"),
	}
	params.Page, params.PageSize = pagination(c)

	if t := c.Query("type"); t != "" {
		flowType := domain.StockFlowType(t)
		if !flowType.Valid() {
			response.Error(c, apperror.Validation("unknown flow type"))
			return
		}
		params.Type = &flowType
	}
	var err error
	if params.From, params.To, err = timeRange(c); err != nil {
		response.Error(c, err)
		return
	}

	items, total, err := h.reportingSvc.ListStockFlows(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ListResponse{
		Items: items,
		Meta:  dto.PageMeta{Page: params.Page, PageSize: params.PageSize, Total: total},
	})
}

// ListFeeRules handles GET /api/v1/fee-rules.
func (h *ReportingHandler) ListFeeRules(c *gin.Context) {
	kind := domain.FeeRuleKind(c.Query("kind"))

	var sourceID *uuid.UUID
	if s := c.Query("source_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.Error(c, apperror.Validation("malformed source_id"))
			return
		}
		sourceID = &id
	}

	rules, err := h.reportingSvc.ListFeeRules(c.Request.Context(), kind, sourceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, rules)
}

// GetBalances handles GET /api/v1/balances.
func (h *ReportingHandler) GetBalances(c *gin.Context) {
	_, storeID, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	snapshot, err := h.reportingSvc.GetStoreBalances(c.Request.Context(), storeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, snapshot)
}

// pagination reads page/page_size query params with sane defaults.
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// timeRange reads optional RFC3339 from/to query params.
func timeRange(c *gin.Context) (from, to *time.Time, err error) {
	if s := c.Query("from"); s != "" {
		t, parseErr := time.Parse(time.RFC3339, s)
		if parseErr != nil {
			return nil, nil, apperror.Validation("from must be RFC3339")
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, parseErr := time.Parse(time.RFC3339, s)
		if parseErr != nil {
			return nil, nil, apperror.Validation("to must be RFC3339")
		}
		to = &t
	}
	return from, to, nil
}

// parseStatus maps a status label to its lifecycle value.
func parseStatus(s string) (domain.TransactionStatus, error) {
	switch s {
	case "settled":
		return domain.StatusSettled, nil
	case "pending_delete":
		return domain.StatusPendingDelete, nil
	case "deleted":
		return domain.StatusDeleted, nil
	}
	return 0, apperror.Validation("unknown status")
}
