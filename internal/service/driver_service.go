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

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DriverServiceImpl implements ports.DriverService.
type DriverServiceImpl struct {
	driverRepo  ports.DriverRepository
	accountRepo ports.AccountRepository
	ledgerRepo  ports.LedgerRepository
	auditSvc    ports.AuditService
	settings    LedgerSettings
	log         zerolog.Logger
}

// NewDriverService creates a new DriverServiceImpl.
func NewDriverService(
	driverRepo ports.DriverRepository,
	accountRepo ports.AccountRepository,
	ledgerRepo ports.LedgerRepository,
	auditSvc ports.AuditService,
	settings LedgerSettings,
	log zerolog.Logger,
) *DriverServiceImpl {
	return &DriverServiceImpl{
		driverRepo:  driverRepo,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		auditSvc:    auditSvc,
		settings:    settings,
		log:         log,
	}
}

// GetWallet returns the wallet view of a driver. A driver without a wallet
// account reports a zero balance and no account ID.
func (s *DriverServiceImpl) GetWallet(ctx context.Context, driverID uuid.UUID) (*domain.WalletView, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if driver == nil {
		return nil, apperror.ErrNotFound("driver")
	}

	account, err := s.accountRepo.GetDriverWallet(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return s.view(driver, account), nil
}

// GoOnline flips the driver online unless the wallet is locked.
func (s *DriverServiceImpl) GoOnline(ctx context.Context, driverID uuid.UUID) (*domain.WalletView, error) {
	ok, err := s.driverRepo.MarkOnline(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mark online: %w", err))
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if driver == nil {
		return nil, apperror.ErrNotFound("driver")
	}

	if !ok {
		reason := "Wallet locked"
		if driver.Wallet.LockReason != nil {
			reason = *driver.Wallet.LockReason
		}
		s.log.Info().Str("driver_id", driverID.String()).Msg("go online rejected, wallet locked")
		return nil, apperror.ErrWalletLocked(reason)
	}

	account, err := s.accountRepo.GetDriverWallet(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	details, _ := json.Marshal(map[string]any{"balance": driver.Wallet.Balance})
	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		Action:       domain.AuditActionGoOnline,
		ResourceType: "driver",
		ResourceID:   driverID.String(),
		Details:      string(details),
		CreatedAt:    time.Now().UTC(),
	})

	return s.view(driver, account), nil
}

// ListLedger returns one page of the driver's wallet entries in insertion order.
func (s *DriverServiceImpl) ListLedger(ctx context.Context, driverID uuid.UUID, page, pageSize int) ([]domain.LedgerEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	account, err := s.walletAccount(ctx, driverID)
	if err != nil {
		return nil, 0, err
	}
	if account == nil {
		return []domain.LedgerEntry{}, 0, nil
	}

	entries, total, err := s.ledgerRepo.ListByAccount(ctx, ports.LedgerListParams{
		AccountID: account.ID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return entries, total, nil
}

// VerifyWallet recomputes the balance from the ledger and compares it with
// the cached balance on the driver record.
func (s *DriverServiceImpl) VerifyWallet(ctx context.Context, driverID uuid.UUID) (*domain.WalletVerification, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if driver == nil {
		return nil, apperror.ErrNotFound("driver")
	}

	account, err := s.accountRepo.GetDriverWallet(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	var entries domain.Entries
	if account != nil {
		entries, err = s.ledgerRepo.AllByAccount(ctx, account.ID)
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
	}

	v := &domain.WalletVerification{
		DriverID:      driverID,
		CachedBalance: driver.Wallet.Balance,
		LedgerBalance: entries.Balance(),
		EntryCount:    int64(len(entries)),
	}
	v.Consistent = v.CachedBalance == v.LedgerBalance
	if !v.Consistent {
		s.log.Error().
			Str("driver_id", driverID.String()).
			Int64("cached_balance", v.CachedBalance).
			Int64("ledger_balance", v.LedgerBalance).
			Msg("wallet balance drifted from ledger")
	}
	return v, nil
}

func (s *DriverServiceImpl) walletAccount(ctx context.Context, driverID uuid.UUID) (*domain.Account, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if driver == nil {
		return nil, apperror.ErrNotFound("driver")
	}
	account, err := s.accountRepo.GetDriverWallet(ctx, driverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return account, nil
}

func (s *DriverServiceImpl) view(driver *domain.Driver, account *domain.Account) *domain.WalletView {
	v := &domain.WalletView{
		DriverID:   driver.ID,
		Currency:   s.settings.Currency,
		Balance:    driver.Wallet.Balance,
		Status:     s.settings.Policy.Classify(driver.Wallet.Balance),
		Locked:     driver.Wallet.Locked,
		LockReason: driver.Wallet.LockReason,
	}
	if account != nil {
		v.AccountID = &account.ID
		v.Currency = account.Currency
	}
	return v
}
