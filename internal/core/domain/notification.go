package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationCategory identifies which wallet event a notification reports.
type NotificationCategory string

const (
	NotificationWalletWarning    NotificationCategory = "wallet_warning"
	NotificationWalletLocked     NotificationCategory = "wallet_locked"
	NotificationDepositConfirmed NotificationCategory = "deposit_confirmed"
)

// Notice is the recipient-less content produced by the wallet policy or a deposit.
type Notice struct {
	Category NotificationCategory
	Title    string
	Body     string
	Amount   int64 // outstanding debt, or new balance for deposit confirmations
}

// Notification is a structured request handed to the notification sink.
type Notification struct {
	ID        uuid.UUID            `json:"id"`
	Recipient uuid.UUID            `json:"recipient"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Data      map[string]any       `json:"data,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewNotification addresses a notice to a driver.
func NewNotification(recipient uuid.UUID, n Notice, now time.Time) *Notification {
	return &Notification{
		ID:        uuid.New(),
		Recipient: recipient,
		Category:  n.Category,
		Title:     n.Title,
		Body:      n.Body,
		Data:      map[string]any{"amount": n.Amount},
		CreatedAt: now,
	}
}

// DepositConfirmedNotice builds the confirmation sent after a deposit is applied.
func DepositConfirmedNotice(amount, newBalance int64, unlocked bool) Notice {
	body := "We received your cash deposit of " + FormatAmount(amount) +
		". Your wallet balance is now " + FormatAmount(newBalance) + "."
	if unlocked {
		body += " Your wallet has been unlocked and you can go online again."
	}
	return Notice{
		Category: NotificationDepositConfirmed,
		Title:    "Deposit received",
		Body:     body,
		Amount:   newBalance,
	}
}

// DeliveryStatus tracks a webhook notification through its retries.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// NotificationDelivery is the persisted record of one notification sent to the webhook sink.
type NotificationDelivery struct {
	ID             uuid.UUID            `json:"id"`
	NotificationID uuid.UUID            `json:"notification_id"`
	Recipient      uuid.UUID            `json:"recipient"`
	Category       NotificationCategory `json:"category"`
	WebhookURL     string               `json:"webhook_url"`
	Payload        []byte               `json:"payload"`
	HTTPStatus     *int                 `json:"http_status,omitempty"`
	Attempt        int                  `json:"attempt"`
	Status         DeliveryStatus       `json:"status"`
	LastError      *string              `json:"last_error,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}
