package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes notifications to the application log.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(_ context.Context, title, message string) error {
	s.Logger.Info(title, zap.String("message", message))
	return nil
}

func (s *LogSender) Name() string { return "log" }

// EventBroadcaster pushes typed events to connected clients; the realtime
// hub satisfies it.
type EventBroadcaster interface {
	Broadcast(eventType string, data any)
}

// HubSender pushes notifications to websocket clients as alert_fired events.
type HubSender struct {
	Hub EventBroadcaster
}

func (s *HubSender) Send(_ context.Context, title, message string) error {
	s.Hub.Broadcast("alert_fired", map[string]string{
		"title":   title,
		"message": message,
	})
	return nil
}

func (s *HubSender) Name() string { return "websocket" }
