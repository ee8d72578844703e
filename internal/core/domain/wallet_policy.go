package domain

import (
	"errors"
	"fmt"
)

// WalletStatus is the classification of a wallet balance: normal, warning or locked.
type WalletStatus string

const (
	WalletStatusNormal  WalletStatus = "normal"
	WalletStatusWarning WalletStatus = "warning"
	WalletStatusLocked  WalletStatus = "locked"
)

const (
	DefaultSoftThreshold int64 = -50_000
	DefaultHardThreshold int64 = -100_000
)

// ErrInvalidThresholds is returned when the hard threshold sits above the soft one.
var ErrInvalidThresholds = errors.New("hard threshold must not exceed soft threshold")

// WalletPolicy holds the debt thresholds. Both are balances (normally negative).
type WalletPolicy struct {
	SoftThreshold int64
	HardThreshold int64
}

// DefaultWalletPolicy returns the stock -50,000 / -100,000 thresholds.
func DefaultWalletPolicy() WalletPolicy {
	return WalletPolicy{SoftThreshold: DefaultSoftThreshold, HardThreshold: DefaultHardThreshold}
}

// Validate checks the threshold ordering.
func (p WalletPolicy) Validate() error {
	if p.HardThreshold > p.SoftThreshold {
		return fmt.Errorf("%w: hard=%d soft=%d", ErrInvalidThresholds, p.HardThreshold, p.SoftThreshold)
	}
	return nil
}

// Classify maps a balance to its status. It depends on the balance alone.
func (p WalletPolicy) Classify(balance int64) WalletStatus {
	switch {
	case balance < p.HardThreshold:
		return WalletStatusLocked
	case balance < p.SoftThreshold:
		return WalletStatusWarning
	default:
		return WalletStatusNormal
	}
}

// WalletDecision is the outcome of evaluating a balance.
type WalletDecision struct {
	Status     WalletStatus
	Balance    int64
	Locked     bool
	LockReason *string
	Notice     *Notice
}

// State returns the wallet fields to persist on the driver record.
func (d WalletDecision) State() WalletState {
	return WalletState{Balance: d.Balance, Locked: d.Locked, LockReason: d.LockReason}
}

// Evaluate classifies balance and produces the lock state and notice content.
// It has no side effects.
func (p WalletPolicy) Evaluate(balance int64) WalletDecision {
	d := WalletDecision{Status: p.Classify(balance), Balance: balance}
	debt := Abs(balance)

	switch d.Status {
	case WalletStatusWarning:
		d.Notice = &Notice{
			Category: NotificationWalletWarning,
			Title:    "Wallet balance low",
			Body: fmt.Sprintf("Your outstanding commission debt is %s. Your wallet will be locked once it exceeds %s.",
				FormatAmount(debt), FormatAmount(Abs(p.HardThreshold))),
			Amount: debt,
		}
	case WalletStatusLocked:
		reason := fmt.Sprintf("Wallet locked: outstanding debt of %s exceeds the limit of %s. Deposit cash to go online again.",
			FormatAmount(debt), FormatAmount(Abs(p.HardThreshold)))
		d.Locked = true
		d.LockReason = &reason
		d.Notice = &Notice{
			Category: NotificationWalletLocked,
			Title:    "Wallet locked",
			Body:     reason,
			Amount:   debt,
		}
	}
	return d
}

// WalletTransition describes how the lock flag moved between two evaluations.
type WalletTransition struct {
	From     WalletState
	To       WalletStatus
	Locked   bool // unlocked -> locked
	Unlocked bool // locked -> unlocked
}

// Transition compares the persisted state with a fresh decision.
func Transition(prev WalletState, next WalletDecision) WalletTransition {
	return WalletTransition{
		From:     prev,
		To:       next.Status,
		Locked:   !prev.Locked && next.Locked,
		Unlocked: prev.Locked && !next.Locked,
	}
}
