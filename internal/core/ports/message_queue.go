package ports

import (
	"context"

	"github.com/GoArmGo/ContactsApp/internal/messaging/payloads"
)

// ContactEventPublisher публикует события об изменении контактов.
// Используется бизнес-логикой после успешного commit.
type ContactEventPublisher interface {
	PublishContactEvent(ctx context.Context, event payloads.ContactEvent) error
}

// ContactEventConsumer определяет методы для потребления событий из очереди,
// используется воркером
type ContactEventConsumer interface {
	StartConsumingContactEvents(ctx context.Context, handler func(context.Context, payloads.ContactEvent) error) error
}
