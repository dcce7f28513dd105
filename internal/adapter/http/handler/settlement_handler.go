package handler

import (
	"strconv"

	"pos-backoffice/internal/adapter/http/dto"
	"pos-backoffice/internal/adapter/http/middleware"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/pkg/apperror"
	"pos-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementHandler handles settlement endpoints.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// Settle handles POST /api/v1/settlements.
func (h *SettlementHandler) Settle(c *gin.Context) {
	operatorID, storeID, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	lines, err := toSettleLines(req.Lines)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.settlementSvc.Settle(c.Request.Context(), ports.SettleRequest{
		StoreID:       storeID,
		OperatorID:    operatorID,
		PaymentMethod: req.PaymentMethod,
		ReferenceID:   req.ReferenceID,
		Tax:           req.Tax,
		Lines:         lines,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Edit handles PUT /api/v1/transactions/:id.
func (h *SettlementHandler) Edit(c *gin.Context) {
	operatorID, _, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	var req dto.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	lines, err := toSettleLines(req.Lines)
	if err != nil {
		response.Error(c, err)
		return
	}

	txn, err := h.settlementSvc.Edit(c.Request.Context(), ports.EditRequest{
		TransactionID: txnID,
		OperatorID:    operatorID,
		PaymentMethod: req.PaymentMethod,
		Tax:           req.Tax,
		Lines:         lines,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txn)
}

// DeleteWithdrawal handles DELETE /api/v1/withdrawals/:id.
func (h *SettlementHandler) DeleteWithdrawal(c *gin.Context) {
	operatorID, _, ok := callerIdentity(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal id"))
		return
	}

	if err := h.settlementSvc.DeleteWithdrawal(c.Request.Context(), withdrawalID, operatorID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// callerIdentity extracts the authenticated operator and store from the
// request context set by the JWT middleware.
func callerIdentity(c *gin.Context) (operatorID, storeID uuid.UUID, ok bool) {
	opVal, opOK := c.Get(middleware.CtxOperatorID)
	storeVal, storeOK := c.Get(middleware.CtxStoreID)
	if !opOK || !storeOK {
		return uuid.Nil, uuid.Nil, false
	}
	return opVal.(uuid.UUID), storeVal.(uuid.UUID), true
}

// toSettleLines converts bound request lines to service inputs. The
// binding layer already validated UUID shapes; the exactly-one-variant
// rule is enforced by the settlement service.
func toSettleLines(in []dto.SettleLine) ([]ports.SettleLine, error) {
	lines := make([]ports.SettleLine, 0, len(in))
	for i, l := range in {
		line := ports.SettleLine{
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
		if l.ProductID != nil {
			id, err := uuid.Parse(*l.ProductID)
			if err != nil {
				return nil, apperror.ErrInvalidLine("line " + strconv.Itoa(i) + ": malformed product_id")
			}
			line.ProductID = &id
		}
		if l.Topup != nil {
			walletID, err := uuid.Parse(l.Topup.WalletID)
			if err != nil {
				return nil, apperror.ErrInvalidLine("line " + strconv.Itoa(i) + ": malformed wallet_id")
			}
			line.Topup = &ports.TopupInput{
				WalletID:       walletID,
				CustomerRef:    l.Topup.CustomerRef,
				NominalRequest: l.Topup.NominalRequest,
				NominalPay:     l.Topup.NominalPay,
				ProviderFee:    l.Topup.ProviderFee,
				ProfitFee:      l.Topup.ProfitFee,
			}
		}
		if l.Withdrawal != nil {
			wd := &ports.WithdrawalInput{
				CustomerName: l.Withdrawal.CustomerName,
				Amount:       l.Withdrawal.Amount,
			}
			if l.Withdrawal.SourceID != nil {
				id, err := uuid.Parse(*l.Withdrawal.SourceID)
				if err != nil {
					return nil, apperror.ErrInvalidLine("line " + strconv.Itoa(i) + ": malformed source_id")
				}
				wd.SourceID = &id
			}
			line.Withdrawal = wd
		}
		lines = append(lines, line)
	}
	return lines, nil
}
