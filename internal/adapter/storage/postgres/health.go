package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const healthTimeout = 2 * time.Second

// errSchemaMissing means the database answers but the ledger migrations have not run.
var errSchemaMissing = errors.New("ledger schema not migrated")

// HealthCheck implements ports.HealthChecker for PostgreSQL.
// Connectivity alone is not enough: the ledger tables must exist.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var migrated bool
	err := h.pool.QueryRow(ctx,
		`SELECT to_regclass('ledger_entries') IS NOT NULL AND to_regclass('accounts') IS NOT NULL`,
	).Scan(&migrated)
	if err != nil {
		return fmt.Errorf("query schema: %w", err)
	}
	if !migrated {
		return errSchemaMissing
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgres"
}
