package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports"
	"pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultIdempotencyTTL = 24 * time.Hour

const flowRefTransaction = "transaction"

// SettlementServiceImpl implements ports.SettlementService.
type SettlementServiceImpl struct {
	txRepo        ports.TransactionRepository
	balanceRepo   ports.BalanceRepository
	flowRepo      ports.StockFlowRepository
	feeRepo       ports.FeeRuleRepository
	idempRepo     ports.IdempotencyRepository
	idempCache    ports.IdempotencyCache
	transactor    ports.DBTransactor
	log           zerolog.Logger
	allowNegStock bool
	idempTTL      time.Duration
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	txRepo ports.TransactionRepository,
	balanceRepo ports.BalanceRepository,
	flowRepo ports.StockFlowRepository,
	feeRepo ports.FeeRuleRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
	allowNegativeStock bool,
	idempotencyTTL time.Duration,
) *SettlementServiceImpl {
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyTTL
	}
	return &SettlementServiceImpl{
		txRepo:        txRepo,
		balanceRepo:   balanceRepo,
		flowRepo:      flowRepo,
		feeRepo:       feeRepo,
		idempRepo:     idempRepo,
		idempCache:    idempCache,
		transactor:    transactor,
		log:           log,
		allowNegStock: allowNegativeStock,
		idempTTL:      idempotencyTTL,
	}
}

// Settle applies one checkout as a single atomic unit: every line's
// balance mutation, sub-record, and ledger write commits together or
// not at all. Lines are processed in request order with pessimistic
// row locks, so concurrent settlements against the same balances
// serialize rather than overdraw.
func (s *SettlementServiceImpl) Settle(ctx context.Context, req ports.SettleRequest) (*ports.SettleResult, error) {
	if len(req.Lines) == 0 {
		return nil, apperror.Validation("settlement requires at least one line")
	}
	if req.Tax.IsNegative() {
		return nil, apperror.Validation("tax cannot be negative")
	}
	for i, line := range req.Lines {
		if err := validateLine(i, line); err != nil {
			return nil, err
		}
	}

	idempKey := domain.BuildSettlementKey(req.StoreID, req.ReferenceID)

	// Layer 1: Redis idempotency check
	if req.ReferenceID != "" {
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return unmarshalCachedResult(cached)
		}

		// Layer 2: DB idempotency check
		idempLog, err := s.idempRepo.Get(ctx, idempKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if idempLog != nil {
			return unmarshalCachedResult(idempLog.ResponseJSON)
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		StoreID:       req.StoreID,
		OperatorID:    req.OperatorID,
		PaymentMethod: req.PaymentMethod,
		ReferenceID:   req.ReferenceID,
		Tax:           req.Tax,
		Status:        domain.StatusSettled,
		CreatedAt:     now,
	}

	subtotal := decimal.Zero
	var walletIDs, productIDs []uuid.UUID

	for i := range req.Lines {
		line, err := s.settleLine(ctx, dbTx, txn, &req.Lines[i], now)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(line.Subtotal)
		txn.Lines = append(txn.Lines, *line)

		switch line.Detail.Kind {
		case domain.LineKindProduct:
			productIDs = append(productIDs, line.Detail.Product.ProductID)
		case domain.LineKindTopup:
			walletIDs = append(walletIDs, line.Detail.Topup.WalletID)
		}
	}

	txn.Subtotal = subtotal
	txn.Total = subtotal.Add(req.Tax)

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create transaction: %w", err))
	}
	for i := range txn.Lines {
		if err := s.txRepo.CreateLine(ctx, dbTx, &txn.Lines[i]); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("create line: %w", err))
		}
	}

	result := &ports.SettleResult{Transaction: txn}
	respJSON, err := json.Marshal(result)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	if req.ReferenceID != "" {
		idempEntry := &domain.IdempotencyLog{
			Key:           idempKey,
			TransactionID: txn.ID,
			ResponseJSON:  respJSON,
			CreatedAt:     now,
		}
		if err := s.idempRepo.Create(ctx, dbTx, idempEntry); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit: snapshot for the terminal and best-effort Redis cache.
	snap, err := s.balanceRepo.Snapshot(ctx, req.StoreID, walletIDs, productIDs)
	if err != nil {
		s.log.Warn().Err(err).Str("store_id", req.StoreID.String()).Msg("balance snapshot after settlement failed")
	} else {
		result.Snapshot = snap
	}

	if req.ReferenceID != "" {
		if respJSON, err = json.Marshal(result); err == nil {
			if err := s.idempCache.Set(ctx, idempKey, respJSON, s.idempTTL); err != nil {
				s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache settlement in redis")
			}
		}
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("store_id", req.StoreID.String()).
		Int("lines", len(txn.Lines)).
		Str("total", txn.Total.String()).
		Msg("settlement committed")

	return result, nil
}

// settleLine applies one line's balance mutations inside dbTx and
// returns the persisted-shape line. The caller inserts the rows after
// all lines succeed.
func (s *SettlementServiceImpl) settleLine(ctx context.Context, dbTx pgx.Tx, txn *domain.Transaction, in *ports.SettleLine, now time.Time) (*domain.TransactionLine, error) {
	line := &domain.TransactionLine{
		ID:            uuid.New(),
		TransactionID: txn.ID,
		CreatedBy:     txn.OperatorID,
		CreatedAt:     now,
	}

	switch {
	case in.Topup != nil:
		tp := &domain.TopupRecord{
			ID:             uuid.New(),
			StoreID:        txn.StoreID,
			WalletID:       in.Topup.WalletID,
			CustomerRef:    in.Topup.CustomerRef,
			NominalRequest: in.Topup.NominalRequest,
			NominalPay:     in.Topup.NominalPay,
			ProviderFee:    in.Topup.ProviderFee,
			ProfitFee:      in.Topup.ProfitFee,
			CreatedAt:      now,
		}

		// Wallet funds the top-up: debit nominal plus provider fee.
		debit := tp.NominalRequest.Add(tp.ProviderFee)
		if _, err := s.balanceRepo.AdjustWallet(ctx, dbTx, tp.WalletID, debit.Neg()); err != nil {
			return nil, mapBalanceErr(err, "wallet")
		}
		// Customer pays cash: credit the drawer with what they handed over.
		if _, err := s.balanceRepo.AdjustCash(ctx, dbTx, txn.StoreID, tp.NominalPay); err != nil {
			return nil, mapBalanceErr(err, "cash")
		}

		if err := s.txRepo.CreateTopup(ctx, dbTx, tp); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("create topup: %w", err))
		}

		line.Detail = domain.LineDetail{Kind: domain.LineKindTopup, Topup: tp}
		line.Quantity = 1
		line.UnitPrice = tp.NominalPay
		line.Subtotal = tp.NominalPay

	case in.Withdrawal != nil:
		rules, err := s.feeRepo.ListByKind(ctx, domain.FeeRuleWithdrawal, in.Withdrawal.SourceID)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("list withdrawal fee rules: %w", err))
		}
		adminFee := domain.ResolveFee(in.Withdrawal.Amount, rules)

		wd := &domain.WithdrawalRecord{
			ID:           uuid.New(),
			StoreID:      txn.StoreID,
			CustomerName: in.Withdrawal.CustomerName,
			SourceID:     in.Withdrawal.SourceID,
			Amount:       in.Withdrawal.Amount,
			AdminFee:     adminFee,
			CreatedAt:    now,
		}

		// Cash leaves the drawer net of the admin fee the store keeps.
		payout := wd.Amount.Sub(wd.AdminFee)
		if _, err := s.balanceRepo.AdjustCash(ctx, dbTx, txn.StoreID, payout.Neg()); err != nil {
			return nil, mapBalanceErr(err, "cash")
		}

		if err := s.txRepo.CreateWithdrawal(ctx, dbTx, wd); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("create withdrawal: %w", err))
		}

		line.Detail = domain.LineDetail{Kind: domain.LineKindWithdrawal, Withdrawal: wd}
		line.Quantity = 1
		line.UnitPrice = wd.Amount
		line.Subtotal = wd.Amount

	default: // product line
		productID := *in.ProductID
		if _, err := s.balanceRepo.AdjustStock(ctx, dbTx, txn.StoreID, productID, -in.Quantity, s.allowNegStock); err != nil {
			return nil, mapBalanceErr(err, "stock")
		}

		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		if _, err := s.balanceRepo.AdjustCash(ctx, dbTx, txn.StoreID, lineTotal); err != nil {
			return nil, mapBalanceErr(err, "cash")
		}

		refType := flowRefTransaction
		refID := txn.ID
		entry := &domain.StockFlowEntry{
			ID:             uuid.New(),
			StoreID:        txn.StoreID,
			ProductID:      productID,
			QuantityChange: -in.Quantity,
			FlowType:       domain.StockFlowSale,
			RefType:        &refType,
			RefID:          &refID,
			OperatorID:     txn.OperatorID,
			CreatedAt:      now,
		}
		if err := s.flowRepo.Create(ctx, dbTx, entry); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("create stock flow: %w", err))
		}

		line.Detail = domain.LineDetail{Kind: domain.LineKindProduct, Product: &domain.ProductSaleRef{ProductID: productID}}
		line.Quantity = in.Quantity
		line.UnitPrice = in.UnitPrice
		line.Subtotal = lineTotal
	}

	return line, nil
}

// Edit replaces a settled transaction's header fields and lines without
// re-running settlement math. Balances stay untouched: this is a
// display-level correction of what was recorded, not a re-settlement.
func (s *SettlementServiceImpl) Edit(ctx context.Context, req ports.EditRequest) (*domain.Transaction, error) {
	if len(req.Lines) == 0 {
		return nil, apperror.Validation("edit requires at least one line")
	}
	for i, line := range req.Lines {
		if err := validateLine(i, line); err != nil {
			return nil, err
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, req.TransactionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if txn.Status != domain.StatusSettled {
		return nil, apperror.ErrInvalidStateTransition(txn.Status.String(), domain.StatusSettled.String())
	}

	now := time.Now().UTC()
	subtotal := decimal.Zero
	var lines []domain.TransactionLine
	for i := range req.Lines {
		line, err := buildEditLine(txn, &req.Lines[i], req.OperatorID, now)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(line.Subtotal)
		lines = append(lines, *line)
	}

	txn.PaymentMethod = req.PaymentMethod
	txn.Tax = req.Tax
	txn.Subtotal = subtotal
	txn.Total = subtotal.Add(req.Tax)
	txn.Lines = lines

	if err := s.txRepo.ReplaceLines(ctx, dbTx, txn.ID, lines); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("replace lines: %w", err))
	}
	if err := s.txRepo.UpdateHeader(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update header: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("operator_id", req.OperatorID.String()).
		Msg("transaction edited")

	return txn, nil
}

// buildEditLine converts an edit line to the persisted shape. Product
// lines only: topup and withdrawal sub-records are settlement artifacts
// and cannot be fabricated through the edit path.
func buildEditLine(txn *domain.Transaction, in *ports.SettleLine, operatorID uuid.UUID, now time.Time) (*domain.TransactionLine, error) {
	if in.ProductID == nil {
		return nil, apperror.ErrInvalidLine("edit lines must be product lines")
	}
	return &domain.TransactionLine{
		ID:            uuid.New(),
		TransactionID: txn.ID,
		Detail:        domain.LineDetail{Kind: domain.LineKindProduct, Product: &domain.ProductSaleRef{ProductID: *in.ProductID}},
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		Subtotal:      in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
		CreatedBy:     operatorID,
		CreatedAt:     now,
	}, nil
}

// DeleteWithdrawal removes a withdrawal record and returns the withdrawn
// cash to the drawer in the same atomic unit.
func (s *SettlementServiceImpl) DeleteWithdrawal(ctx context.Context, withdrawalID, operatorID uuid.UUID) error {
	wd, err := s.txRepo.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get withdrawal: %w", err))
	}
	if wd == nil {
		return apperror.ErrNotFound("withdrawal")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Reverse the payout: the net amount that left the drawer comes back.
	restore := wd.Amount.Sub(wd.AdminFee)
	if _, err := s.balanceRepo.AdjustCash(ctx, dbTx, wd.StoreID, restore); err != nil {
		return mapBalanceErr(err, "cash")
	}
	if err := s.txRepo.DeleteWithdrawal(ctx, dbTx, withdrawalID); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("delete withdrawal: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("withdrawal_id", withdrawalID.String()).
		Str("operator_id", operatorID.String()).
		Str("restored", restore.String()).
		Msg("withdrawal deleted, cash restored")

	return nil
}

// validateLine enforces the exactly-one-variant rule plus per-variant
// amount checks before any balance is touched.
func validateLine(i int, line ports.SettleLine) error {
	variants := 0
	if line.ProductID != nil {
		variants++
	}
	if line.Topup != nil {
		variants++
	}
	if line.Withdrawal != nil {
		variants++
	}
	if variants != 1 {
		return apperror.ErrInvalidLine(fmt.Sprintf("line %d must carry exactly one of product, topup, withdrawal", i))
	}

	switch {
	case line.ProductID != nil:
		if line.Quantity <= 0 {
			return apperror.ErrInvalidLine(fmt.Sprintf("line %d quantity must be positive", i))
		}
		if line.UnitPrice.IsNegative() {
			return apperror.ErrInvalidLine(fmt.Sprintf("line %d unit price cannot be negative", i))
		}
	case line.Topup != nil:
		tp := line.Topup
		if !tp.NominalRequest.IsPositive() || !tp.NominalPay.IsPositive() {
			return apperror.ErrInvalidAmount()
		}
		if tp.ProviderFee.IsNegative() || tp.ProfitFee.IsNegative() {
			return apperror.ErrInvalidAmount()
		}
	case line.Withdrawal != nil:
		if !line.Withdrawal.Amount.IsPositive() {
			return apperror.ErrInvalidAmount()
		}
	}
	return nil
}

// mapBalanceErr translates storage sentinels into the API error taxonomy.
func mapBalanceErr(err error, resource string) error {
	switch {
	case errors.Is(err, ports.ErrInsufficient):
		return apperror.ErrInsufficientBalance(resource)
	case errors.Is(err, ports.ErrRowNotFound):
		return apperror.ErrNotFound(resource)
	default:
		return apperror.ErrDatabaseError(fmt.Errorf("adjust %s: %w", resource, err))
	}
}

func unmarshalCachedResult(data []byte) (*ports.SettleResult, error) {
	var result ports.SettleResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached settlement: %w", err))
	}
	return &result, nil
}
