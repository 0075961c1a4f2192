package payloads

import (
	"fmt"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/google/uuid"
)

// ContactEventType — вид изменения контакта.
type ContactEventType string

const (
	ContactCreated ContactEventType = "contact.created"
	ContactUpdated ContactEventType = "contact.updated"
	ContactDeleted ContactEventType = "contact.deleted"
)

// ContactEvent — сообщение об изменении контакта, передаётся через RabbitMQ.
// Для contact.deleted Contact содержит состояние до удаления.
type ContactEvent struct {
	ID         uuid.UUID        `json:"id"`
	Type       ContactEventType `json:"type"`
	Contact    domain.Contact   `json:"contact"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewContactEvent создаёт событие с новым идентификатором.
func NewContactEvent(eventType ContactEventType, contact domain.Contact, at time.Time) ContactEvent {
	return ContactEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Contact:    contact,
		OccurredAt: at.UTC(),
	}
}

// ArchiveKey — ключ объекта в хранилище: contact-events/YYYY/MM/DD/<id>.json
func (e ContactEvent) ArchiveKey() string {
	return fmt.Sprintf("contact-events/%s/%s.json", e.OccurredAt.UTC().Format("2006/01/02"), e.ID)
}
