package rabbitmq

import (
	"context"
	"log/slog"

	"github.com/GoArmGo/ContactsApp/internal/messaging/payloads"
)

// NopPublisher подставляется, когда RABBITMQ_URL не задан: события не уходят никуда.
type NopPublisher struct {
	logger *slog.Logger
}

func NewNopPublisher(logger *slog.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) PublishContactEvent(_ context.Context, event payloads.ContactEvent) error {
	p.logger.Debug("contact events disabled, event skipped", "event_id", event.ID, "type", event.Type)
	return nil
}
