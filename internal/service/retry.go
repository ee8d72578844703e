package service

import (
	"context"
	"errors"
	"time"

	"settlement-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes PostgreSQL uses for transient write conflicts.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// errConcurrentUpdate marks a compare-and-set that lost to another writer.
var errConcurrentUpdate = errors.New("row changed by a concurrent writer")

const retryBackoff = 20 * time.Millisecond

// isRetryable reports whether err is a transient conflict that a fresh attempt may resolve.
func isRetryable(err error) bool {
	if errors.Is(err, errConcurrentUpdate) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return true
		}
	}
	return false
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// maxAttempts is reached. Each attempt must open its own transaction.
func withRetry(ctx context.Context, maxAttempts int, log zerolog.Logger, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("concurrent update conflict, retrying")

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return apperror.ErrConcurrencyConflict(ctx.Err())
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return apperror.ErrConcurrencyConflict(err)
}
