package ports

import (
	"context"

	"settlement-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines persistence operations for ledger accounts.
// Ensure* methods create the account on first use and are safe under concurrent callers.
type AccountRepository interface {
	EnsureDriverWallet(ctx context.Context, tx pgx.Tx, driverID uuid.UUID, currency string) (*domain.Account, error)
	EnsurePlatformRevenue(ctx context.Context, tx pgx.Tx, currency string) (*domain.Account, error)
	GetDriverWallet(ctx context.Context, driverID uuid.UUID) (*domain.Account, error)
	GetDriverWalletInTx(ctx context.Context, tx pgx.Tx, driverID uuid.UUID) (*domain.Account, error)
}

// LedgerRepository defines the append-only ledger entry store.
type LedgerRepository interface {
	Append(ctx context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error
	ListByAccount(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, int64, error)
	AllByAccount(ctx context.Context, accountID uuid.UUID) (domain.Entries, error)
}

// LedgerListParams holds pagination for listing ledger entries.
type LedgerListParams struct {
	AccountID uuid.UUID
	Page      int
	PageSize  int
}

// TripRepository defines the trip fields the ledger reads and the single status transition it writes.
type TripRepository interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Trip, error)
	// MarkCollected persists the trip's collected payment state unless the row
	// is already collected. It returns false when no row changed.
	MarkCollected(ctx context.Context, tx pgx.Tx, trip *domain.Trip) (bool, error)
}

// DriverRepository defines persistence operations for the wallet fields of drivers.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type DriverRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Driver, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Driver, error)
	UpdateWallet(ctx context.Context, tx pgx.Tx, id uuid.UUID, state domain.WalletState) error
	// MarkOnline sets is_online unless the wallet is locked. It returns false when no row changed.
	MarkOnline(ctx context.Context, id uuid.UUID) (bool, error)
}

// DepositRepository defines persistence for deposit settlement records.
type DepositRepository interface {
	Create(ctx context.Context, tx pgx.Tx, deposit *domain.Deposit) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// NotificationDeliveryRepository persists webhook delivery attempts.
type NotificationDeliveryRepository interface {
	Create(ctx context.Context, d *domain.NotificationDelivery) error
	Update(ctx context.Context, d *domain.NotificationDelivery) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
