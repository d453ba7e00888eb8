package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/config"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
)

// NotificationService reacts to domain events: it logs them, counts them and
// forwards them to the configured webhook.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.metrics.RecordEvent(string(event.Type))
	n.logger.Info("domain event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.ActorID),
	)
	return n.sendWebhook(ctx, event)
}

// sendWebhook posts the event as JSON. One attempt, no retry. The attempt is
// bounded by the configured timeout and by the deadline of ctx, whichever
// comes first.
func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	timeout, err := webhookTimeout(ctx, n.cfg.Timeout())
	if err != nil {
		n.metrics.RecordWebhook(false)
		return fmt.Errorf("deliver webhook: %w", err)
	}

	agent := fiber.Post(url).JSON(event).Timeout(timeout)
	if err := agent.Parse(); err != nil {
		n.metrics.RecordWebhook(false)
		return fmt.Errorf("prepare webhook: %w", err)
	}
	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		n.metrics.RecordWebhook(false)
		return fmt.Errorf("deliver webhook: %w", errs[0])
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		n.metrics.RecordWebhook(false)
		return fmt.Errorf("webhook responded with status %d", code)
	}
	n.metrics.RecordWebhook(true)
	n.logger.Debug("webhook delivered", zap.String("event_id", event.ID), zap.Int("status", code))
	return nil
}

func webhookTimeout(ctx context.Context, configured time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return configured, nil
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0, context.DeadlineExceeded
	}
	if configured <= 0 || remaining < configured {
		return remaining, nil
	}
	return configured, nil
}
