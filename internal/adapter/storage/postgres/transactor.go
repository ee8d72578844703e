package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Ledger writes serialize on the trip and driver row locks (FOR UPDATE),
// so transactions run at READ COMMITTED.
var ledgerTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

// Transactor implements ports.DBTransactor.
type Transactor struct {
	pool Pool
}

func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a read-write ledger transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.BeginTx(ctx, ledgerTxOptions)
}
