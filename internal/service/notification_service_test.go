package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"settlement-ledger/internal/core/domain"
	"settlement-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// mockHTTPClient implements HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func okResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}
}

func testNotification() *domain.Notification {
	notice := domain.DefaultWalletPolicy().Evaluate(-105_000).Notice
	return domain.NewNotification(uuid.New(), *notice, time.Now().UTC())
}

func TestWebhookNotifier_NoURL_LogsOnly(t *testing.T) {
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		t.Error("no request expected without a webhook URL")
		return okResponse(http.StatusOK), nil
	}}

	svc := NewNotificationService(nil, NewHMACSignatureService(), client, NotificationSettings{}, newTestLogger())

	require.NoError(t, svc.Notify(context.Background(), testNotification()))
	svc.Wait()
}

func TestWebhookNotifier_Delivered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockNotificationDeliveryRepository(ctrl)
	sigSvc := NewHMACSignatureService()

	var gotSig, gotTS, gotBody string
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		gotSig = req.Header.Get(SignatureHeader)
		gotTS = req.Header.Get(SignatureTimestampHeader)
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		return okResponse(http.StatusOK), nil
	}}

	n := testNotification()

	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, d *domain.NotificationDelivery) error {
			assert.Equal(t, domain.DeliveryStatusPending, d.Status)
			assert.Equal(t, n.ID, d.NotificationID)
			return nil
		})
	mockRepo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, d *domain.NotificationDelivery) error {
			assert.Equal(t, domain.DeliveryStatusDelivered, d.Status)
			assert.Equal(t, 1, d.Attempt)
			if assert.NotNil(t, d.HTTPStatus) {
				assert.Equal(t, http.StatusOK, *d.HTTPStatus)
			}
			return nil
		})

	svc := NewNotificationService(mockRepo, sigSvc, client, NotificationSettings{
		WebhookURL:  "https://notify.example.com/hook",
		Secret:      "hook-secret",
		MaxAttempts: 3,
	}, newTestLogger())

	require.NoError(t, svc.Notify(context.Background(), n))
	svc.Wait()

	assert.Contains(t, gotBody, `"category":"wallet_locked"`)
	ts, err := strconv.ParseInt(gotTS, 10, 64)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), time.Unix(ts, 0), time.Minute)
	assert.True(t, sigSvc.Verify("hook-secret", SignedMessage(ts, []byte(gotBody)), gotSig))
}

func TestWebhookNotifier_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			return nil, errors.New("connection refused")
		case 2:
			return okResponse(http.StatusBadGateway), nil
		default:
			return okResponse(http.StatusNoContent), nil
		}
	}}

	svc := NewNotificationService(nil, NewHMACSignatureService(), client, NotificationSettings{
		WebhookURL:    "https://notify.example.com/hook",
		MaxAttempts:   5,
		RetryInterval: time.Millisecond,
	}, newTestLogger())

	require.NoError(t, svc.Notify(context.Background(), testNotification()))
	svc.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_GivesUpAfterMaxAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockNotificationDeliveryRepository(ctrl)

	var calls int32
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return okResponse(http.StatusInternalServerError), nil
	}}

	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
	mockRepo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, d *domain.NotificationDelivery) error {
			assert.Equal(t, domain.DeliveryStatusFailed, d.Status)
			assert.Equal(t, 2, d.Attempt)
			if assert.NotNil(t, d.LastError) {
				assert.Contains(t, *d.LastError, "500")
			}
			return nil
		})

	svc := NewNotificationService(mockRepo, NewHMACSignatureService(), client, NotificationSettings{
		WebhookURL:    "https://notify.example.com/hook",
		MaxAttempts:   2,
		RetryInterval: time.Millisecond,
	}, newTestLogger())

	require.NoError(t, svc.Notify(context.Background(), testNotification()))
	svc.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
