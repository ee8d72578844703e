package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"settlement-ledger/internal/core/domain"
	"settlement-ledger/internal/core/ports"
	"settlement-ledger/internal/core/ports/mocks"
	"settlement-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type depositTestDeps struct {
	svc         *DepositServiceImpl
	driverRepo  *mocks.MockDriverRepository
	accountRepo *mocks.MockAccountRepository
	ledgerRepo  *mocks.MockLedgerRepository
	depositRepo *mocks.MockDepositRepository
	notifier    *mocks.MockNotifier
	auditSvc    *mocks.MockAuditService
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupDepositService(t *testing.T) *depositTestDeps {
	ctrl := gomock.NewController(t)
	d := &depositTestDeps{
		driverRepo:  mocks.NewMockDriverRepository(ctrl),
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		ledgerRepo:  mocks.NewMockLedgerRepository(ctrl),
		depositRepo: mocks.NewMockDepositRepository(ctrl),
		notifier:    mocks.NewMockNotifier(ctrl),
		auditSvc:    mocks.NewMockAuditService(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewDepositService(
		d.driverRepo, d.accountRepo, d.ledgerRepo, d.depositRepo,
		d.notifier, d.auditSvc, d.transactor,
		testSettings(), zerolog.Nop(),
	)
	return d
}

func lockedDriver(balance int64) *domain.Driver {
	d := driverWithBalance(balance)
	reason := domain.DefaultWalletPolicy().Evaluate(balance).LockReason
	d.Wallet.Locked = true
	d.Wallet.LockReason = reason
	return d
}

func TestDepositService_RecordDeposit_UnlocksWallet(t *testing.T) {
	d := setupDepositService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	driver := lockedDriver(-120_000)
	wallet := domain.NewDriverWalletAccount(driver.ID, "VND", time.Now())
	receipt := "RCPT-0042"

	req := ports.DepositRequest{
		DriverID:         driver.ID,
		Amount:           150_000,
		ReceiptReference: &receipt,
		OperatorID:       "admin-1",
		ClientIP:         "10.0.0.5",
	}

	d.driverRepo.EXPECT().GetByID(ctx, driver.ID).Return(driver, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.driverRepo.EXPECT().GetByIDForUpdate(ctx, tx, driver.ID).Return(driver, nil)
	d.accountRepo.EXPECT().GetDriverWalletInTx(ctx, tx, driver.ID).Return(wallet, nil)
	d.depositRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, dep *domain.Deposit) error {
			assert.Equal(t, int64(150_000), dep.Amount)
			assert.Equal(t, domain.DepositMethodManualCash, dep.Method)
			assert.Equal(t, domain.DepositStatusCompleted, dep.Status)
			assert.Equal(t, &receipt, dep.Metadata.ReceiptReference)
			assert.Equal(t, "admin-1", dep.Metadata.OperatorID)
			return nil
		})
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, entries ...domain.LedgerEntry) error {
			if assert.Len(t, entries, 1) {
				assert.Equal(t, wallet.ID, entries[0].AccountID)
				assert.Equal(t, domain.DirectionCredit, entries[0].Direction)
				assert.Equal(t, domain.EntryTypeSettlement, entries[0].EntryType)
				assert.Equal(t, int64(150_000), entries[0].Signed())
			}
			return nil
		})
	d.driverRepo.EXPECT().UpdateWallet(ctx, tx, driver.ID, domain.WalletState{Balance: 30_000}).Return(nil)
	d.notifier.EXPECT().Notify(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, n *domain.Notification) error {
		assert.Equal(t, domain.NotificationDepositConfirmed, n.Category)
		assert.Equal(t, int64(30_000), n.Data["amount"])
		assert.Contains(t, n.Body, "unlocked")
		return nil
	})
	d.auditSvc.EXPECT().Log(ctx, gomock.Any()).Do(func(_ context.Context, entry *domain.AuditLog) {
		assert.Equal(t, domain.AuditActionRecordDeposit, entry.Action)
		assert.Equal(t, "10.0.0.5", entry.IPAddress)
		if assert.NotNil(t, entry.ActorID) {
			assert.Equal(t, "admin-1", *entry.ActorID)
		}
	})

	res, err := d.svc.RecordDeposit(ctx, req)
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Equal(t, int64(30_000), res.WalletBalance)
	assert.Equal(t, domain.WalletStatusNormal, res.WalletStatus)
	assert.False(t, res.WalletLocked)
	assert.True(t, res.Unlocked)
}

func TestDepositService_RecordDeposit_StillLocked(t *testing.T) {
	d := setupDepositService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	driver := lockedDriver(-250_000)
	wallet := domain.NewDriverWalletAccount(driver.ID, "VND", time.Now())

	d.driverRepo.EXPECT().GetByID(ctx, driver.ID).Return(driver, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.driverRepo.EXPECT().GetByIDForUpdate(ctx, tx, driver.ID).Return(driver, nil)
	d.accountRepo.EXPECT().GetDriverWalletInTx(ctx, tx, driver.ID).Return(wallet, nil)
	d.depositRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).Return(nil)
	d.driverRepo.EXPECT().UpdateWallet(ctx, tx, driver.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, _ uuid.UUID, state domain.WalletState) error {
			assert.Equal(t, int64(-200_000), state.Balance)
			assert.True(t, state.Locked)
			if assert.NotNil(t, state.LockReason) {
				assert.Contains(t, *state.LockReason, "200,000")
			}
			return nil
		})
	d.notifier.EXPECT().Notify(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, n *domain.Notification) error {
		assert.NotContains(t, n.Body, "unlocked")
		return nil
	})
	d.auditSvc.EXPECT().Log(ctx, gomock.Any())

	res, err := d.svc.RecordDeposit(ctx, ports.DepositRequest{DriverID: driver.ID, Amount: 50_000})
	require.NoError(t, err)
	assert.True(t, res.WalletLocked)
	assert.False(t, res.Unlocked)
}

func TestDepositService_RecordDeposit_InvalidAmount(t *testing.T) {
	for _, amount := range []int64{0, -1, -50_000} {
		d := setupDepositService(t)

		res, err := d.svc.RecordDeposit(context.Background(), ports.DepositRequest{DriverID: uuid.New(), Amount: amount})
		assert.Nil(t, res)
		assert.True(t, apperror.HasCode(err, "LEDGER_001"), "amount %d", amount)

		d.ctrl.Finish()
	}
}

func TestDepositService_RecordDeposit_DriverNotFound(t *testing.T) {
	d := setupDepositService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	driverID := uuid.New()
	d.driverRepo.EXPECT().GetByID(ctx, driverID).Return(nil, nil)

	_, err := d.svc.RecordDeposit(ctx, ports.DepositRequest{DriverID: driverID, Amount: 10_000})
	assert.True(t, apperror.HasCode(err, "LEDGER_404"))
}

func TestDepositService_RecordDeposit_WalletNotOpened(t *testing.T) {
	d := setupDepositService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	driver := driverWithBalance(0)

	d.driverRepo.EXPECT().GetByID(ctx, driver.ID).Return(driver, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.driverRepo.EXPECT().GetByIDForUpdate(ctx, tx, driver.ID).Return(driver, nil)
	d.accountRepo.EXPECT().GetDriverWalletInTx(ctx, tx, driver.ID).Return(nil, nil)
	// nothing is written, nothing is notified

	_, err := d.svc.RecordDeposit(ctx, ports.DepositRequest{DriverID: driver.ID, Amount: 10_000})
	assert.True(t, apperror.HasCode(err, "LEDGER_004"))
	assert.False(t, tx.committed)
}

func TestDepositService_RecordDeposit_DeadlockExhaustsRetries(t *testing.T) {
	d := setupDepositService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	driver := driverWithBalance(0)

	d.driverRepo.EXPECT().GetByID(ctx, driver.ID).Return(driver, nil)
	d.transactor.EXPECT().Begin(ctx).Return(&mockTx{}, nil).Times(3)
	d.driverRepo.EXPECT().GetByIDForUpdate(ctx, gomock.Any(), driver.ID).
		Return(nil, &pgconn.PgError{Code: "40P01"}).Times(3)

	_, err := d.svc.RecordDeposit(ctx, ports.DepositRequest{DriverID: driver.ID, Amount: 10_000})

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SYS_002", appErr.Code)
	assert.True(t, appErr.Retryable)
}
