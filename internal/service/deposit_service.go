package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"settlement-ledger/internal/core/domain"
	"settlement-ledger/internal/core/ports"
	"settlement-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DepositServiceImpl implements ports.DepositService.
type DepositServiceImpl struct {
	driverRepo  ports.DriverRepository
	accountRepo ports.AccountRepository
	ledgerRepo  ports.LedgerRepository
	depositRepo ports.DepositRepository
	notifier    ports.Notifier
	auditSvc    ports.AuditService
	transactor  ports.DBTransactor
	settings    LedgerSettings
	log         zerolog.Logger
}

// NewDepositService creates a new DepositServiceImpl.
func NewDepositService(
	driverRepo ports.DriverRepository,
	accountRepo ports.AccountRepository,
	ledgerRepo ports.LedgerRepository,
	depositRepo ports.DepositRepository,
	notifier ports.Notifier,
	auditSvc ports.AuditService,
	transactor ports.DBTransactor,
	settings LedgerSettings,
	log zerolog.Logger,
) *DepositServiceImpl {
	return &DepositServiceImpl{
		driverRepo:  driverRepo,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		depositRepo: depositRepo,
		notifier:    notifier,
		auditSvc:    auditSvc,
		transactor:  transactor,
		settings:    settings,
		log:         log,
	}
}

// RecordDeposit credits a confirmed cash deposit to the driver's wallet and
// re-evaluates the lock. The wallet must already exist.
func (s *DepositServiceImpl) RecordDeposit(ctx context.Context, req ports.DepositRequest) (*domain.DepositResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get driver: %w", err))
	}
	if driver == nil {
		return nil, apperror.ErrNotFound("driver")
	}

	var (
		result     *domain.DepositResult
		transition domain.WalletTransition
	)
	err = withRetry(ctx, s.settings.MaxAttempts, s.log.With().Str("driver_id", req.DriverID.String()).Logger(), func() error {
		res, tr, err := s.depositOnce(ctx, req)
		if err != nil {
			return err
		}
		result, transition = res, tr
		return nil
	})
	if err != nil {
		return nil, err
	}

	notice := domain.DepositConfirmedNotice(req.Amount, result.WalletBalance, transition.Unlocked)
	if err := s.notifier.Notify(ctx, domain.NewNotification(req.DriverID, notice, result.Deposit.CreatedAt)); err != nil {
		s.log.Warn().Err(err).Str("driver_id", req.DriverID.String()).Msg("deposit notification dropped")
	}

	details, _ := json.Marshal(map[string]any{
		"deposit_id":  result.Deposit.ID,
		"amount":      req.Amount,
		"new_balance": result.WalletBalance,
		"unlocked":    transition.Unlocked,
	})
	var actor *string
	if req.OperatorID != "" {
		actor = &req.OperatorID
	}
	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      actor,
		Action:       domain.AuditActionRecordDeposit,
		ResourceType: "driver",
		ResourceID:   req.DriverID.String(),
		Details:      string(details),
		IPAddress:    req.ClientIP,
		CreatedAt:    result.Deposit.CreatedAt,
	})

	s.log.Info().
		Str("driver_id", req.DriverID.String()).
		Str("deposit_id", result.Deposit.ID.String()).
		Int64("amount", req.Amount).
		Int64("new_balance", result.WalletBalance).
		Bool("unlocked", transition.Unlocked).
		Msg("cash deposit recorded")

	return result, nil
}

func (s *DepositServiceImpl) depositOnce(ctx context.Context, req ports.DepositRequest) (*domain.DepositResult, domain.WalletTransition, error) {
	var none domain.WalletTransition

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, none, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	driver, err := s.driverRepo.GetByIDForUpdate(ctx, dbTx, req.DriverID)
	if err != nil {
		return nil, none, apperror.ErrDatabaseError(fmt.Errorf("lock driver: %w", err))
	}
	if driver == nil {
		return nil, none, apperror.ErrNotFound("driver")
	}

	wallet, err := s.accountRepo.GetDriverWalletInTx(ctx, dbTx, req.DriverID)
	if err != nil {
		return nil, none, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, none, apperror.ErrWalletNotOpened()
	}

	now := time.Now().UTC()
	deposit := domain.NewCompletedCashDeposit(req.DriverID, req.Amount, domain.DepositMetadata{
		ReceiptReference: req.ReceiptReference,
		Notes:            req.Notes,
		OperatorID:       req.OperatorID,
	}, now)
	if err := s.depositRepo.Create(ctx, dbTx, deposit); err != nil {
		return nil, none, apperror.ErrDatabaseError(fmt.Errorf("create deposit: %w", err))
	}

	entry := domain.NewDepositCredit(wallet.ID, deposit.ID, req.Amount, now)
	if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
		return nil, none, apperror.ErrDatabaseError(fmt.Errorf("append entry: %w", err))
	}

	decision := s.settings.Policy.Evaluate(driver.Wallet.Balance + req.Amount)
	if err := s.driverRepo.UpdateWallet(ctx, dbTx, driver.ID, decision.State()); err != nil {
		return nil, none, apperror.ErrDatabaseError(fmt.Errorf("update wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, none, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	transition := domain.Transition(driver.Wallet, decision)
	return &domain.DepositResult{
		Deposit:       deposit,
		EntryID:       entry.ID,
		WalletBalance: decision.Balance,
		WalletStatus:  decision.Status,
		WalletLocked:  decision.Locked,
		Unlocked:      transition.Unlocked,
	}, transition, nil
}
