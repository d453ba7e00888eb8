package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/config"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
)

func TestNotification_PostsEventToWebhook(t *testing.T) {
	received := make(chan events.Event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var e events.Event
		_ = json.Unmarshal(body, &e)
		received <- e
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dispatcher := events.NewInMemoryDispatcher(nil)
	metrics := observability.NewMetrics()
	n := NewNotificationService(dispatcher, nil, metrics, config.NotificationConfig{WebhookURL: server.URL, TimeoutSeconds: 2})
	n.RegisterHandlers()

	event := events.New(events.EventTicketCreated, "ticket-1", "user-1", events.TicketCreatedPayload{Subject: "hello"})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	got := <-received
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, events.EventTicketCreated, got.Type)

	expected := `
# HELP helpdesk_webhook_deliveries_total Notification webhook deliveries, by outcome.
# TYPE helpdesk_webhook_deliveries_total counter
helpdesk_webhook_deliveries_total{outcome="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "helpdesk_webhook_deliveries_total"))
}

func TestNotification_FailedDeliveryIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	metrics := observability.NewMetrics()
	n := NewNotificationService(nil, nil, metrics, config.NotificationConfig{WebhookURL: server.URL})

	err := n.handle(context.Background(), events.New(events.EventSessionEnded, "s-1", "u-1", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	expected := `
# HELP helpdesk_webhook_deliveries_total Notification webhook deliveries, by outcome.
# TYPE helpdesk_webhook_deliveries_total counter
helpdesk_webhook_deliveries_total{outcome="failure"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "helpdesk_webhook_deliveries_total"))
}

func TestNotification_NoWebhookConfigured(t *testing.T) {
	metrics := observability.NewMetrics()
	n := NewNotificationService(nil, nil, metrics, config.NotificationConfig{})
	require.NoError(t, n.handle(context.Background(), events.New(events.EventCommentAdded, "c-1", "u-1", nil)))
	count, err := testutil.GatherAndCount(metrics.Registry(), "helpdesk_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotification_CancelledContextSkipsDelivery(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	metrics := observability.NewMetrics()
	n := NewNotificationService(nil, nil, metrics, config.NotificationConfig{WebhookURL: server.URL, TimeoutSeconds: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.handle(ctx, events.New(events.EventTicketCreated, "t-1", "u-1", nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits.Load())
}

func TestWebhookTimeout_FollowsContextDeadline(t *testing.T) {
	got, err := webhookTimeout(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, got)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err = webhookTimeout(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.LessOrEqual(t, got, time.Second)
	assert.Greater(t, got, time.Duration(0))
}
