package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"settlement-ledger/internal/core/domain"
	"settlement-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notification requests carry an HMAC-SHA256 over SignedMessage(timestamp, body).
const (
	SignatureHeader          = "X-Signature"
	SignatureTimestampHeader = "X-Signature-Timestamp"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NotificationSettings configures webhook delivery.
type NotificationSettings struct {
	WebhookURL    string
	Secret        string
	MaxAttempts   int
	RetryInterval time.Duration
}

// WebhookNotifier implements ports.Notifier. With no webhook URL it only logs.
type WebhookNotifier struct {
	deliveries ports.NotificationDeliveryRepository
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	settings   NotificationSettings
	log        zerolog.Logger
	wg         sync.WaitGroup
}

// NewNotificationService creates a new notification service.
// deliveries may be nil, in which case delivery attempts are not persisted.
func NewNotificationService(
	deliveries ports.NotificationDeliveryRepository,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	settings NotificationSettings,
	log zerolog.Logger,
) *WebhookNotifier {
	if settings.MaxAttempts < 1 {
		settings.MaxAttempts = 1
	}
	return &WebhookNotifier{
		deliveries: deliveries,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		settings:   settings,
		log:        log,
	}
}

// Notify queues n for delivery and returns immediately.
func (s *WebhookNotifier) Notify(ctx context.Context, n *domain.Notification) error {
	s.log.Info().
		Str("notification_id", n.ID.String()).
		Str("recipient", n.Recipient.String()).
		Str("category", string(n.Category)).
		Str("title", n.Title).
		Msg("driver notification")

	if s.settings.WebhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	now := time.Now().UTC()
	delivery := &domain.NotificationDelivery{
		ID:             uuid.New(),
		NotificationID: n.ID,
		Recipient:      n.Recipient,
		Category:       n.Category,
		WebhookURL:     s.settings.WebhookURL,
		Payload:        payload,
		Status:         domain.DeliveryStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if s.deliveries != nil {
		if err := s.deliveries.Create(ctx, delivery); err != nil {
			s.log.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("failed to persist notification delivery")
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliverWithRetries(delivery)
	}()
	return nil
}

// Wait blocks until every queued delivery has finished.
func (s *WebhookNotifier) Wait() {
	s.wg.Wait()
}

func (s *WebhookNotifier) deliverWithRetries(d *domain.NotificationDelivery) {
	nid := d.NotificationID.String()

	for attempt := 1; attempt <= s.settings.MaxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(time.Duration(attempt-1) * s.settings.RetryInterval)
		}
		d.Attempt = attempt

		status, err := s.post(d.WebhookURL, d.Payload)
		if status != 0 {
			d.HTTPStatus = &status
		}
		if err == nil {
			d.Status = domain.DeliveryStatusDelivered
			d.LastError = nil
			s.record(d)
			s.log.Info().Str("notification_id", nid).Int("attempt", attempt).Int("status", status).Msg("notification: delivered")
			return
		}

		msg := err.Error()
		d.LastError = &msg
		s.log.Warn().Err(err).Str("notification_id", nid).Int("attempt", attempt).Msg("notification: delivery failed")
	}

	d.Status = domain.DeliveryStatusFailed
	s.record(d)
	s.log.Error().Str("notification_id", nid).Msg("notification: all retry attempts exhausted")
}

// post signs each attempt with a fresh timestamp.
func (s *WebhookNotifier) post(url string, body []byte) (int, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	ts := time.Now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureTimestampHeader, strconv.FormatInt(ts, 10))
	req.Header.Set(SignatureHeader, s.sigSvc.Sign(s.settings.Secret, SignedMessage(ts, body)))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (s *WebhookNotifier) record(d *domain.NotificationDelivery) {
	if s.deliveries == nil {
		return
	}
	d.UpdatedAt = time.Now().UTC()
	if err := s.deliveries.Update(context.Background(), d); err != nil {
		s.log.Warn().Err(err).Str("notification_id", d.NotificationID.String()).Msg("failed to update notification delivery")
	}
}
