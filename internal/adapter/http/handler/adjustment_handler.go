package handler

import (
	"pos-backoffice/internal/adapter/http/dto"
	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/pkg/apperror"
	"pos-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdjustmentHandler handles manual wallet and stock adjustment endpoints.
type AdjustmentHandler struct {
	adjustmentSvc ports.AdjustmentService
}

// NewAdjustmentHandler creates a new AdjustmentHandler.
func NewAdjustmentHandler(adjustmentSvc ports.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustmentSvc: adjustmentSvc}
}

// AdjustWallet handles POST /api/v1/wallets/:id/adjust.
func (h *AdjustmentHandler) AdjustWallet(c *gin.Context) {
	operatorID, _, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.WalletAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	balance, err := h.adjustmentSvc.AdjustWallet(c.Request.Context(), ports.WalletAdjustRequest{
		WalletID:   walletID,
		OperatorID: operatorID,
		Op:         domain.WalletAdjustmentOp(req.Op),
		Amount:     req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletAdjustResponse{
		WalletID: walletID.String(),
		Balance:  balance,
	})
}

// AdjustStock handles POST /api/v1/stocks/adjust.
func (h *AdjustmentHandler) AdjustStock(c *gin.Context) {
	operatorID, storeID, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(c, apperror.Validation("malformed product_id"))
		return
	}

	stock, err := h.adjustmentSvc.AdjustStock(c.Request.Context(), ports.StockAdjustRequest{
		StoreID:    storeID,
		ProductID:  productID,
		OperatorID: operatorID,
		Delta:      req.Delta,
		FlowType:   domain.StockFlowType(req.FlowType),
		Note:       req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StockAdjustResponse{
		ProductID: productID.String(),
		Stock:     stock,
	})
}

// ArchiveStock handles DELETE /api/v1/stocks/:product_id.
// Soft-delete: the level row is flagged archived, flow history stays.
func (h *AdjustmentHandler) ArchiveStock(c *gin.Context) {
	operatorID, storeID, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		response.Error(c, apperror.Validation("malformed product_id"))
		return
	}

	if err := h.adjustmentSvc.ArchiveStock(c.Request.Context(), ports.StockArchiveRequest{
		StoreID:    storeID,
		ProductID:  productID,
		OperatorID: operatorID,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"archived": true})
}
