package postgres

import (
	"context"
	"fmt"

	"settlement-ledger/internal/core/domain"
	"settlement-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const entryColumns = `id, account_id, amount, direction, entry_type, related_trip_id, related_settlement_id, created_at`

// LedgerRepo implements ports.LedgerRepository. Entries are never updated or deleted.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Append inserts entries within a database transaction, in order.
func (r *LedgerRepo) Append(ctx context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, e := range entries {
		if e.Amount < 0 {
			return fmt.Errorf("ledger entry %s: negative amount %d", e.ID, e.Amount)
		}
		_, err := tx.Exec(ctx, query,
			e.ID, e.AccountID, e.Amount, e.Direction, e.EntryType,
			e.RelatedTripID, e.RelatedSettlementID, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}
	return nil
}

// ListByAccount fetches one page of an account's entries in insertion order.
func (r *LedgerRepo) ListByAccount(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, params.AccountID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE account_id = $1 ORDER BY seq ASC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, params.AccountID, params.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// AllByAccount fetches every entry of an account in insertion order.
func (r *LedgerRepo) AllByAccount(ctx context.Context, accountID uuid.UUID) (domain.Entries, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1 ORDER BY seq ASC`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	return domain.Entries(entries), nil
}

func scanEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e := domain.LedgerEntry{}
		err := rows.Scan(
			&e.ID, &e.AccountID, &e.Amount, &e.Direction, &e.EntryType,
			&e.RelatedTripID, &e.RelatedSettlementID, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entry rows: %w", err)
	}
	return entries, nil
}
