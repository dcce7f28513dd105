package service

import (
	"context"
	"fmt"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	txRepo      ports.TransactionRepository
	flowRepo    ports.StockFlowRepository
	feeRepo     ports.FeeRuleRepository
	balanceRepo ports.BalanceRepository
	walletRepo  ports.WalletRepository
	storeRepo   ports.StoreRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	txRepo ports.TransactionRepository,
	flowRepo ports.StockFlowRepository,
	feeRepo ports.FeeRuleRepository,
	balanceRepo ports.BalanceRepository,
	walletRepo ports.WalletRepository,
	storeRepo ports.StoreRepository,
) ports.ReportingService {
	return &reportingService{
		txRepo:      txRepo,
		flowRepo:    flowRepo,
		feeRepo:     feeRepo,
		balanceRepo: balanceRepo,
		walletRepo:  walletRepo,
		storeRepo:   storeRepo,
	}
}

// GetTransaction returns one transaction with its lines.
func (s *reportingService) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// ListTransactions returns a filtered page of transaction headers.
func (s *reportingService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// ListStockFlows returns a filtered page of the stock audit ledger.
func (s *reportingService) ListStockFlows(ctx context.Context, params ports.StockFlowListParams) ([]domain.StockFlowEntry, int64, error) {
	entries, total, err := s.flowRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list stock flows: %w", err))
	}
	return entries, total, nil
}

// ListFeeRules returns the fee tiers for a kind, optionally scoped to a source.
func (s *reportingService) ListFeeRules(ctx context.Context, kind domain.FeeRuleKind, sourceID *uuid.UUID) ([]domain.FeeRule, error) {
	if kind != domain.FeeRuleTopup && kind != domain.FeeRuleWithdrawal {
		return nil, apperror.Validation("kind must be topup or withdrawal")
	}
	rules, err := s.feeRepo.ListByKind(ctx, kind, sourceID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list fee rules: %w", err))
	}
	return rules, nil
}

// GetStoreBalances recomputes the store's full balance snapshot: cash,
// every wallet, and every active stock level.
func (s *reportingService) GetStoreBalances(ctx context.Context, storeID uuid.UUID) (*domain.BalanceSnapshot, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get store: %w", err))
	}
	if store == nil {
		return nil, apperror.ErrNotFound("store")
	}

	wallets, err := s.walletRepo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list wallets: %w", err))
	}
	walletIDs := make([]uuid.UUID, 0, len(wallets))
	for _, w := range wallets {
		walletIDs = append(walletIDs, w.ID)
	}

	snap, err := s.balanceRepo.Snapshot(ctx, storeID, walletIDs, nil)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("balance snapshot: %w", err))
	}
	return snap, nil
}
