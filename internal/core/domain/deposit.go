package domain

import (
	"time"

	"github.com/google/uuid"
)

// DepositMethod is how a driver paid down their debt.
type DepositMethod string

const DepositMethodManualCash DepositMethod = "manual_cash_deposit"

// DepositStatus is the lifecycle state of a deposit record.
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
)

// DepositMetadata is free-form operator input stored with the deposit.
type DepositMetadata struct {
	ReceiptReference *string `json:"receipt_reference,omitempty"`
	Notes            *string `json:"notes,omitempty"`
	OperatorID       string  `json:"operator_id,omitempty"`
}

// Deposit is the settlement record of an administrative cash deposit.
type Deposit struct {
	ID          uuid.UUID       `json:"id"`
	DriverID    uuid.UUID       `json:"driver_id"`
	Amount      int64           `json:"amount"`
	Method      DepositMethod   `json:"method"`
	Status      DepositStatus   `json:"status"`
	Metadata    DepositMetadata `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewCompletedCashDeposit creates a deposit that was confirmed out-of-band,
// so it starts in the completed state.
func NewCompletedCashDeposit(driverID uuid.UUID, amount int64, meta DepositMetadata, now time.Time) *Deposit {
	completed := now
	return &Deposit{
		ID:          uuid.New(),
		DriverID:    driverID,
		Amount:      amount,
		Method:      DepositMethodManualCash,
		Status:      DepositStatusCompleted,
		Metadata:    meta,
		CreatedAt:   now,
		CompletedAt: &completed,
	}
}
