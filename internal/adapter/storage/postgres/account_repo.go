package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"settlement-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, kind, owner_reference, currency, created_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// EnsureDriverWallet returns the driver's wallet account, creating it on first use.
// The partial unique index on owner_reference makes concurrent first calls converge on one row.
func (r *AccountRepo) EnsureDriverWallet(ctx context.Context, tx pgx.Tx, driverID uuid.UUID, currency string) (*domain.Account, error) {
	query := `INSERT INTO accounts (id, kind, owner_reference, currency, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_reference) WHERE kind = 'driver_wallet'
		DO UPDATE SET currency = accounts.currency
		RETURNING ` + accountColumns

	a, err := scanAccount(tx.QueryRow(ctx, query,
		uuid.New(), domain.AccountKindDriverWallet, driverID, currency, time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("ensure driver wallet: %w", err)
	}
	return a, nil
}

// EnsurePlatformRevenue returns the singleton platform revenue account, creating it on first use.
func (r *AccountRepo) EnsurePlatformRevenue(ctx context.Context, tx pgx.Tx, currency string) (*domain.Account, error) {
	query := `INSERT INTO accounts (id, kind, owner_reference, currency, created_at)
		VALUES ($1, $2, NULL, $3, $4)
		ON CONFLICT (kind) WHERE kind = 'platform_revenue'
		DO UPDATE SET currency = accounts.currency
		RETURNING ` + accountColumns

	a, err := scanAccount(tx.QueryRow(ctx, query,
		uuid.New(), domain.AccountKindPlatformRevenue, currency, time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("ensure platform revenue: %w", err)
	}
	return a, nil
}

// GetDriverWallet fetches a driver's wallet account (non-locking read).
func (r *AccountRepo) GetDriverWallet(ctx context.Context, driverID uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE kind = 'driver_wallet' AND owner_reference = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver wallet: %w", err)
	}
	return a, nil
}

// GetDriverWalletInTx fetches a driver's wallet account within a transaction.
func (r *AccountRepo) GetDriverWalletInTx(ctx context.Context, tx pgx.Tx, driverID uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE kind = 'driver_wallet' AND owner_reference = $1`

	a, err := scanAccount(tx.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver wallet in tx: %w", err)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	if err := row.Scan(&a.ID, &a.Kind, &a.OwnerReference, &a.Currency, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}
