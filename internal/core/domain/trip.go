package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how the rider pays for a trip.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// PaymentStatus is the trip's settlement state: unpaid -> collected.
type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusCollected PaymentStatus = "collected"
)

// ErrAlreadyCollected is returned when collecting a trip twice.
var ErrAlreadyCollected = errors.New("trip payment already collected")

// Collect is the only transition of the payment state machine.
func (s PaymentStatus) Collect() (PaymentStatus, error) {
	if s == PaymentStatusCollected {
		return s, ErrAlreadyCollected
	}
	return PaymentStatusCollected, nil
}

// Trip holds the fields of a trip the ledger cares about.
type Trip struct {
	ID            uuid.UUID     `json:"id"`
	DriverID      *uuid.UUID    `json:"driver_id,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CashCollected bool          `json:"cash_collected"`
	EstimatedFare int64         `json:"estimated_fare"`
	FinalFare     *int64        `json:"final_fare,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Fare is the final fare when set, else the estimate.
func (t *Trip) Fare() int64 {
	if t.FinalFare != nil {
		return *t.FinalFare
	}
	return t.EstimatedFare
}

// IsSettled returns true once the trip's payment has been collected.
func (t *Trip) IsSettled() bool {
	return t.PaymentStatus == PaymentStatusCollected
}

// IsCash returns true if the rider paid the driver in cash.
func (t *Trip) IsCash() bool {
	return t.PaymentMethod == PaymentMethodCash
}

// MarkCollected moves the trip to collected and flags the cash as received.
func (t *Trip) MarkCollected() error {
	next, err := t.PaymentStatus.Collect()
	if err != nil {
		return err
	}
	t.PaymentStatus = next
	t.CashCollected = true
	return nil
}
