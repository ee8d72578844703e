package ports

import (
	"context"
	"time"

	"settlement-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// Role is the caller class carried by an access token.
type Role string

const (
	RoleSystem Role = "system" // trip lifecycle source
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleAdmin, RoleDriver:
		return true
	}
	return false
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject string, role Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
	Role    Role
}

// SettlementCache is the Redis-layer settlement result cache (fast path).
type SettlementCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached result JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// Notifier is the notification sink. Delivery is asynchronous; a returned
// error only means the request could not be queued.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// SettlementService settles completed cash trips against driver wallets.
type SettlementService interface {
	Settle(ctx context.Context, tripID uuid.UUID) (*domain.SettlementResult, error)
}

// DepositService reconciles administrative cash deposits.
type DepositService interface {
	RecordDeposit(ctx context.Context, req DepositRequest) (*domain.DepositResult, error)
}

// DepositRequest holds validated input for a manual cash deposit.
type DepositRequest struct {
	DriverID         uuid.UUID
	Amount           int64
	ReceiptReference *string
	Notes            *string
	OperatorID       string
	ClientIP         string
}

// DriverService exposes wallet reads and the online-eligibility gate.
type DriverService interface {
	GetWallet(ctx context.Context, driverID uuid.UUID) (*domain.WalletView, error)
	GoOnline(ctx context.Context, driverID uuid.UUID) (*domain.WalletView, error)
	ListLedger(ctx context.Context, driverID uuid.UUID, page, pageSize int) ([]domain.LedgerEntry, int64, error)
	VerifyWallet(ctx context.Context, driverID uuid.UUID) (*domain.WalletVerification, error)
}
