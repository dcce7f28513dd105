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
	"github.com/shopspring/decimal"
)

// AdjustmentServiceImpl implements ports.AdjustmentService: manual
// admin corrections that reuse the settlement discipline of one atomic
// unit plus the non-negativity rules.
type AdjustmentServiceImpl struct {
	balanceRepo ports.BalanceRepository
	stockRepo   ports.StockRepository
	flowRepo    ports.StockFlowRepository
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewAdjustmentService creates a new AdjustmentServiceImpl.
func NewAdjustmentService(
	balanceRepo ports.BalanceRepository,
	stockRepo ports.StockRepository,
	flowRepo ports.StockFlowRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *AdjustmentServiceImpl {
	return &AdjustmentServiceImpl{
		balanceRepo: balanceRepo,
		stockRepo:   stockRepo,
		flowRepo:    flowRepo,
		transactor:  transactor,
		log:         log,
	}
}

// AdjustWallet applies a manual add, subtract, or reset to a wallet
// balance and returns the new balance.
func (s *AdjustmentServiceImpl) AdjustWallet(ctx context.Context, req ports.WalletAdjustRequest) (decimal.Decimal, error) {
	if !req.Op.Valid() {
		return decimal.Zero, apperror.Validation("unknown wallet adjustment op")
	}
	if req.Op == domain.WalletAdjustReset {
		if req.Amount.IsNegative() {
			return decimal.Zero, apperror.ErrInvalidAmount()
		}
	} else if !req.Amount.IsPositive() {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	var next decimal.Decimal
	switch req.Op {
	case domain.WalletAdjustAdd:
		next, err = s.balanceRepo.AdjustWallet(ctx, dbTx, req.WalletID, req.Amount)
	case domain.WalletAdjustSubtract:
		next, err = s.balanceRepo.AdjustWallet(ctx, dbTx, req.WalletID, req.Amount.Neg())
	case domain.WalletAdjustReset:
		_, err = s.balanceRepo.ResetWallet(ctx, dbTx, req.WalletID, req.Amount)
		next = req.Amount
	}
	if err != nil {
		return decimal.Zero, mapBalanceErr(err, "wallet")
	}

	if err := dbTx.Commit(ctx); err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", req.WalletID.String()).
		Str("operator_id", req.OperatorID.String()).
		Str("op", string(req.Op)).
		Str("balance", next.String()).
		Msg("wallet adjusted")

	return next, nil
}

// AdjustStock applies a manual stock delta and writes the matching
// ledger entry in the same transaction. Manual adjustments never drive
// stock negative regardless of the settlement backorder flag.
func (s *AdjustmentServiceImpl) AdjustStock(ctx context.Context, req ports.StockAdjustRequest) (int, error) {
	if req.Delta == 0 {
		return 0, apperror.Validation("stock delta cannot be zero")
	}
	if !req.FlowType.Valid() || req.FlowType == domain.StockFlowSale {
		return 0, apperror.Validation("invalid stock flow type for manual adjustment")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	next, err := s.balanceRepo.AdjustStock(ctx, dbTx, req.StoreID, req.ProductID, req.Delta, false)
	if err != nil {
		return 0, mapBalanceErr(err, "stock")
	}

	entry := &domain.StockFlowEntry{
		ID:             uuid.New(),
		StoreID:        req.StoreID,
		ProductID:      req.ProductID,
		QuantityChange: req.Delta,
		FlowType:       req.FlowType,
		OperatorID:     req.OperatorID,
		Note:           req.Note,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.flowRepo.Create(ctx, dbTx, entry); err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("create stock flow: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("product_id", req.ProductID.String()).
		Str("operator_id", req.OperatorID.String()).
		Int("delta", req.Delta).
		Int("stock", next).
		Msg("stock adjusted")

	return next, nil
}

// ArchiveStock soft-deletes a stock level. The row and its flow history
// survive; only the status and archive timestamp change.
func (s *AdjustmentServiceImpl) ArchiveStock(ctx context.Context, req ports.StockArchiveRequest) error {
	lvl, err := s.stockRepo.GetLevel(ctx, req.StoreID, req.ProductID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get stock level: %w", err))
	}
	if lvl == nil {
		return apperror.ErrNotFound("stock level")
	}
	if lvl.Status == domain.StockStatusArchived {
		return apperror.ErrInvalidStateTransition(string(domain.StockStatusArchived), string(domain.StockStatusArchived))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.stockRepo.Archive(ctx, dbTx, req.StoreID, req.ProductID); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("archive stock level: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("product_id", req.ProductID.String()).
		Str("operator_id", req.OperatorID.String()).
		Msg("stock level archived")

	return nil
}
