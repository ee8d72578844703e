package postgres

import (
	"context"
	"errors"
	"fmt"

	"settlement-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const driverColumns = `id, name, commission_rate, is_online, wallet_balance, wallet_locked, wallet_lock_reason, updated_at`

// DriverRepo implements ports.DriverRepository.
type DriverRepo struct {
	pool Pool
}

// NewDriverRepo creates a new DriverRepo.
func NewDriverRepo(pool Pool) *DriverRepo {
	return &DriverRepo{pool: pool}
}

// GetByID fetches a driver by UUID (without locking).
func (r *DriverRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	d, err := scanDriver(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver by id: %w", err)
	}
	return d, nil
}

// GetByIDForUpdate fetches a driver with pessimistic locking.
// The lock serializes every wallet mutation of the driver.
func (r *DriverRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1 FOR UPDATE`

	d, err := scanDriver(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver for update: %w", err)
	}
	return d, nil
}

// UpdateWallet persists the wallet balance and lock state. A locked driver is taken offline.
func (r *DriverRepo) UpdateWallet(ctx context.Context, tx pgx.Tx, id uuid.UUID, state domain.WalletState) error {
	query := `UPDATE drivers SET wallet_balance = $1, wallet_locked = $2, wallet_lock_reason = $3,
		is_online = CASE WHEN $2 THEN FALSE ELSE is_online END, updated_at = NOW()
		WHERE id = $4`

	tag, err := tx.Exec(ctx, query, state.Balance, state.Locked, state.LockReason, id)
	if err != nil {
		return fmt.Errorf("update driver wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("driver not found: %s", id)
	}
	return nil
}

// MarkOnline sets the driver online when the wallet is not locked.
func (r *DriverRepo) MarkOnline(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE drivers SET is_online = TRUE, updated_at = NOW() WHERE id = $1 AND wallet_locked = FALSE`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark driver online: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanDriver(row pgx.Row) (*domain.Driver, error) {
	d := &domain.Driver{}
	err := row.Scan(
		&d.ID, &d.Name, &d.CommissionRate, &d.IsOnline,
		&d.Wallet.Balance, &d.Wallet.Locked, &d.Wallet.LockReason, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}
