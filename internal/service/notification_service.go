package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/acme-ops/opsboard/internal/config"
	"github.com/acme-ops/opsboard/internal/events"
)

// channel is an outbound notification target. Delivery is stubbed: a channel
// with no configured endpoint is skipped, a configured one logs the message.
type channel int

const (
	channelEmail channel = 1 << iota
	channelWebhook
)

// notificationRoute says how an event type is announced.
type notificationRoute struct {
	label    string
	actorKey string
	channels channel
}

var notificationRoutes = map[events.EventType]notificationRoute{
	events.EventRequestSubmitted: {label: "RequestSubmitted", actorKey: "submitter_id", channels: channelWebhook},
	events.EventRequestAccepted:  {label: "RequestReviewed", actorKey: "reviewer_id", channels: channelEmail | channelWebhook},
	events.EventRequestRejected:  {label: "RequestReviewed", actorKey: "reviewer_id", channels: channelEmail | channelWebhook},
	events.EventUserRegistered:   {label: "UserEvent", actorKey: "actor_id"},
	events.EventUserDeactivated:  {label: "UserEvent", actorKey: "actor_id"},
}

// NotificationService announces lifecycle events on the configured channels.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	emailFrom  string
	webhookURL string
}

func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		emailFrom:  strings.TrimSpace(cfg.EmailFrom),
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
	}
}

// RegisterHandlers subscribes to every routed event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for eventType := range notificationRoutes {
		n.dispatcher.Subscribe(eventType, n.notify)
	}
}

func (n *NotificationService) notify(_ context.Context, event events.Event) error {
	route, ok := notificationRoutes[event.Type]
	if !ok {
		return nil
	}
	subjectKey := "request_id"
	if route.channels == 0 {
		subjectKey = "user_id"
	}
	n.logger.Info(route.label,
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.String(subjectKey, event.SubjectID),
		zap.String(route.actorKey, event.Actor.UserID),
		zap.Any("payload", event.Payload))

	if route.channels&channelEmail != 0 && n.emailFrom != "" {
		n.logger.Debug("email notification queued",
			zap.String("from", n.emailFrom),
			zap.String("event_type", string(event.Type)),
			zap.String(subjectKey, event.SubjectID))
	}
	if route.channels&channelWebhook != 0 && n.webhookURL != "" {
		n.logger.Debug("webhook notification queued",
			zap.String("url", n.webhookURL),
			zap.String("event_type", string(event.Type)),
			zap.String(subjectKey, event.SubjectID))
	}
	return nil
}
