package handler

import (
	"pos-backoffice/internal/adapter/http/dto"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/pkg/apperror"
	"pos-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApprovalHandler handles the delete-approval workflow endpoints.
type ApprovalHandler struct {
	approvalSvc ports.ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler.
func NewApprovalHandler(approvalSvc ports.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc}
}

// RequestDelete handles POST /api/v1/transactions/:id/delete-request.
func (h *ApprovalHandler) RequestDelete(c *gin.Context) {
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

	var req dto.RequestDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.approvalSvc.RequestDelete(c.Request.Context(), txnID, req.Reason, operatorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txn)
}

// Approve handles POST /api/v1/transactions/:id/approve.
func (h *ApprovalHandler) Approve(c *gin.Context) {
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

	var req dto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.approvalSvc.Approve(c.Request.Context(), txnID, operatorID, req.PIN)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txn)
}

// Reject handles POST /api/v1/transactions/:id/reject.
func (h *ApprovalHandler) Reject(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.approvalSvc.Reject(c.Request.Context(), txnID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, txn)
}
