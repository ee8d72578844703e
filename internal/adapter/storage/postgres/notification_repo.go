package postgres

import (
	"context"
	"fmt"
	"time"

	"settlement-ledger/internal/core/domain"
)

// NotificationDeliveryRepo implements ports.NotificationDeliveryRepository.
type NotificationDeliveryRepo struct {
	pool Pool
}

// NewNotificationDeliveryRepo creates a PostgreSQL-backed delivery log.
func NewNotificationDeliveryRepo(pool Pool) *NotificationDeliveryRepo {
	return &NotificationDeliveryRepo{pool: pool}
}

func (r *NotificationDeliveryRepo) Create(ctx context.Context, d *domain.NotificationDelivery) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notification_deliveries
		(id, notification_id, recipient, category, webhook_url, payload, http_status, attempt, status, last_error, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		d.ID, d.NotificationID, d.Recipient, string(d.Category), d.WebhookURL,
		d.Payload, d.HTTPStatus, d.Attempt, string(d.Status),
		d.LastError, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification delivery: %w", err)
	}
	return nil
}

func (r *NotificationDeliveryRepo) Update(ctx context.Context, d *domain.NotificationDelivery) error {
	d.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_deliveries
		 SET http_status=$1, attempt=$2, status=$3, last_error=$4, updated_at=$5
		 WHERE id=$6`,
		d.HTTPStatus, d.Attempt, string(d.Status), d.LastError, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update notification delivery: %w", err)
	}
	return nil
}
