package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletState is the denormalized wallet view stored on the driver record.
// Balance must always equal the ledger-derived balance of the driver's wallet account.
type WalletState struct {
	Balance    int64   `json:"balance"`
	Locked     bool    `json:"locked"`
	LockReason *string `json:"lock_reason,omitempty"`
}

// Driver holds the driver fields owned by the settlement ledger.
type Driver struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	CommissionRate decimal.NullDecimal `json:"commission_rate"` // NULL means the deployment default
	IsOnline       bool                `json:"is_online"`
	Wallet         WalletState         `json:"wallet"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// EffectiveCommissionRate returns the driver's own rate, or fallback when unset.
func (d *Driver) EffectiveCommissionRate(fallback decimal.Decimal) decimal.Decimal {
	if d.CommissionRate.Valid {
		return d.CommissionRate.Decimal
	}
	return fallback
}
