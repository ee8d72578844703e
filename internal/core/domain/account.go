package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountKind distinguishes the balance-bearing entities of the ledger.
type AccountKind string

const (
	AccountKindDriverWallet    AccountKind = "driver_wallet"
	AccountKindPlatformRevenue AccountKind = "platform_revenue"
)

// Account is a ledger account. Accounts are created lazily on first use and never deleted.
type Account struct {
	ID             uuid.UUID   `json:"id"`
	Kind           AccountKind `json:"kind"`
	OwnerReference *uuid.UUID  `json:"owner_reference,omitempty"` // driver ID; nil for platform revenue
	Currency       string      `json:"currency"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewDriverWalletAccount builds the wallet account owned by a driver.
func NewDriverWalletAccount(driverID uuid.UUID, currency string, now time.Time) *Account {
	owner := driverID
	return &Account{
		ID:             uuid.New(),
		Kind:           AccountKindDriverWallet,
		OwnerReference: &owner,
		Currency:       currency,
		CreatedAt:      now,
	}
}

// NewPlatformRevenueAccount builds the singleton platform revenue account.
func NewPlatformRevenueAccount(currency string, now time.Time) *Account {
	return &Account{
		ID:        uuid.New(),
		Kind:      AccountKindPlatformRevenue,
		Currency:  currency,
		CreatedAt: now,
	}
}

// IsDriverWallet returns true if the account is a driver's wallet.
func (a *Account) IsDriverWallet() bool {
	return a.Kind == AccountKindDriverWallet
}
