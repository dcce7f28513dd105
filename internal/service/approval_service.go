package service

import (
	"context"
	"fmt"
	"time"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ApprovalServiceImpl implements ports.ApprovalService. Deletion of a
// settled transaction is a two-step workflow: one operator requests
// with a reason, a second operator approves with their PIN. Approval
// soft-deletes the header; the balance effects of the original
// settlement are never reversed.
type ApprovalServiceImpl struct {
	txRepo     ports.TransactionRepository
	opRepo     ports.OperatorRepository
	hashSvc    ports.HashService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewApprovalService creates a new ApprovalServiceImpl.
func NewApprovalService(
	txRepo ports.TransactionRepository,
	opRepo ports.OperatorRepository,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *ApprovalServiceImpl {
	return &ApprovalServiceImpl{
		txRepo:     txRepo,
		opRepo:     opRepo,
		hashSvc:    hashSvc,
		transactor: transactor,
		log:        log,
	}
}

// RequestDelete moves a settled transaction to pending_delete.
func (s *ApprovalServiceImpl) RequestDelete(ctx context.Context, txnID uuid.UUID, reason string, requestedBy uuid.UUID) (*domain.Transaction, error) {
	if reason == "" {
		return nil, apperror.Validation("delete reason is required")
	}

	return s.transition(ctx, txnID, domain.StatusPendingDelete, func(txn *domain.Transaction) ports.StatusUpdate {
		return ports.StatusUpdate{
			Status:      domain.StatusPendingDelete,
			Reason:      &reason,
			RequestedBy: &requestedBy,
		}
	})
}

// Approve finalizes a pending deletion. The approver must not be the
// requester, and must present a valid approval PIN.
func (s *ApprovalServiceImpl) Approve(ctx context.Context, txnID uuid.UUID, approvedBy uuid.UUID, pin string) (*domain.Transaction, error) {
	approver, err := s.opRepo.GetByID(ctx, approvedBy)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get approver: %w", err))
	}
	if approver == nil {
		return nil, apperror.ErrNotFound("operator")
	}

	ok, err := s.hashSvc.Verify(pin, approver.PINHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInvalidPIN()
	}

	now := time.Now().UTC()
	txn, err := s.transition(ctx, txnID, domain.StatusDeleted, func(txn *domain.Transaction) ports.StatusUpdate {
		return ports.StatusUpdate{
			Status:      domain.StatusDeleted,
			Reason:      txn.DeleteReason,
			RequestedBy: txn.DeleteRequestBy,
			ApprovedBy:  &approvedBy,
			DeletedAt:   &now,
		}
	}, func(txn *domain.Transaction) error {
		if txn.DeleteRequestBy != nil && *txn.DeleteRequestBy == approvedBy {
			return apperror.Validation("approver cannot be the requester")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", txnID.String()).
		Str("approved_by", approvedBy.String()).
		Msg("transaction deletion approved")

	return txn, nil
}

// Reject cancels a pending deletion, returning the transaction to
// settled and clearing the request fields.
func (s *ApprovalServiceImpl) Reject(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error) {
	return s.transition(ctx, txnID, domain.StatusSettled, func(txn *domain.Transaction) ports.StatusUpdate {
		return ports.StatusUpdate{Status: domain.StatusSettled}
	})
}

// transition locks the header, validates the state machine, applies
// extra guards, and stamps the update, all in one transaction.
func (s *ApprovalServiceImpl) transition(
	ctx context.Context,
	txnID uuid.UUID,
	target domain.TransactionStatus,
	buildUpdate func(*domain.Transaction) ports.StatusUpdate,
	guards ...func(*domain.Transaction) error,
) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, txnID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if !txn.Status.CanTransitionTo(target) {
		return nil, apperror.ErrInvalidStateTransition(txn.Status.String(), target.String())
	}
	for _, guard := range guards {
		if err := guard(txn); err != nil {
			return nil, err
		}
	}

	upd := buildUpdate(txn)
	if err := s.txRepo.UpdateStatus(ctx, dbTx, txnID, upd); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update status: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	txn.Status = upd.Status
	txn.DeleteReason = upd.Reason
	txn.DeleteRequestBy = upd.RequestedBy
	txn.DeleteApprovedBy = upd.ApprovedBy
	txn.DeletedAt = upd.DeletedAt
	return txn, nil
}
