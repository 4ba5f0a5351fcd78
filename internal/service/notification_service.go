package service

import (
	"context"
	"time"

	"insightflow-be/internal/pkg/logger"
	"insightflow-be/internal/websocket"
	"insightflow-be/pkg/events"
	pktNats "insightflow-be/pkg/nats"
)

// NotificationService bridges the NATS event stream to the websocket
// hub: every domain event carrying an org_id is pushed to that org's
// connected dashboards.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, hub *websocket.Hub, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		hub:        hub,
		logger:     log,
	}
}

// Start consumes the event stream. Safe to run in a goroutine; returns
// once the subscription is registered.
func (ns *NotificationService) Start() {
	err := ns.subscriber.Subscribe("events.>", "notification-workers", func(ctx context.Context, event events.Event) error {
		payload := event.Payload()
		orgID, ok := payload["org_id"].(string)
		if !ok || orgID == "" {
			// Event without a tenant scope; nothing to deliver.
			return nil
		}

		ns.hub.Notify(orgID, websocket.Notification{
			Event:     event.EventType(),
			Data:      payload,
			Timestamp: time.Now(),
		})
		return nil
	})
	if err != nil {
		ns.logger.Error("NotificationService", "Failed to subscribe to event stream", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
