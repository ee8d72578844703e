package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SettlementResult is what a settlement call reports back to the trip lifecycle source.
type SettlementResult struct {
	TripID         uuid.UUID    `json:"trip_id"`
	DriverID       uuid.UUID    `json:"driver_id"`
	Fare           int64        `json:"fare"`
	Commission     int64        `json:"commission"`
	WalletBalance  int64        `json:"wallet_balance"`
	WalletStatus   WalletStatus `json:"wallet_status"`
	WalletLocked   bool         `json:"wallet_locked"`
	DebitEntryID   *uuid.UUID   `json:"debit_entry_id,omitempty"`
	CreditEntryID  *uuid.UUID   `json:"credit_entry_id,omitempty"`
	AlreadySettled bool         `json:"already_settled"`
	SettledAt      time.Time    `json:"settled_at"`
}

// DepositResult is what a deposit call reports back to the administrator.
type DepositResult struct {
	Deposit       *Deposit     `json:"deposit"`
	EntryID       uuid.UUID    `json:"entry_id"`
	WalletBalance int64        `json:"wallet_balance"`
	WalletStatus  WalletStatus `json:"wallet_status"`
	WalletLocked  bool         `json:"wallet_locked"`
	Unlocked      bool         `json:"unlocked"`
}

// WalletView is the read model of a driver's wallet.
type WalletView struct {
	DriverID   uuid.UUID    `json:"driver_id"`
	AccountID  *uuid.UUID   `json:"account_id,omitempty"`
	Currency   string       `json:"currency"`
	Balance    int64        `json:"balance"`
	Status     WalletStatus `json:"status"`
	Locked     bool         `json:"locked"`
	LockReason *string      `json:"lock_reason,omitempty"`
}

// WalletVerification compares the cached balance with the ledger-derived one.
type WalletVerification struct {
	DriverID      uuid.UUID `json:"driver_id"`
	CachedBalance int64     `json:"cached_balance"`
	LedgerBalance int64     `json:"ledger_balance"`
	EntryCount    int64     `json:"entry_count"`
	Consistent    bool      `json:"consistent"`
}

// SettlementCacheKey builds the cache key of a trip's settlement result.
func SettlementCacheKey(tripID uuid.UUID) string {
	return fmt.Sprintf("trip:%s", tripID.String())
}
