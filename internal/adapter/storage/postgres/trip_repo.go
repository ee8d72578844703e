package postgres

import (
	"context"
	"errors"
	"fmt"

	"settlement-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TripRepo implements ports.TripRepository.
type TripRepo struct {
	pool Pool
}

// NewTripRepo creates a new TripRepo.
func NewTripRepo(pool Pool) *TripRepo {
	return &TripRepo{pool: pool}
}

// GetByIDForUpdate fetches a trip with pessimistic locking.
// This MUST be called within a transaction.
func (r *TripRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Trip, error) {
	query := `SELECT id, driver_id, payment_method, payment_status, cash_collected,
		estimated_fare, final_fare, completed_at, updated_at
		FROM trips WHERE id = $1 FOR UPDATE`

	t := &domain.Trip{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.DriverID, &t.PaymentMethod, &t.PaymentStatus, &t.CashCollected,
		&t.EstimatedFare, &t.FinalFare, &t.CompletedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get trip for update: %w", err)
	}
	return t, nil
}

// MarkCollected writes the trip's payment state unless another writer already collected it.
func (r *TripRepo) MarkCollected(ctx context.Context, tx pgx.Tx, trip *domain.Trip) (bool, error) {
	query := `UPDATE trips SET payment_status = $1, cash_collected = $2, updated_at = NOW()
		WHERE id = $3 AND payment_status <> $4`

	tag, err := tx.Exec(ctx, query, trip.PaymentStatus, trip.CashCollected, trip.ID, domain.PaymentStatusCollected)
	if err != nil {
		return false, fmt.Errorf("mark trip collected: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
