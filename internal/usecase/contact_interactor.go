package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/GoArmGo/ContactsApp/internal/messaging/payloads"
)

// contactUseCase implements ContactUseCase
type contactUseCase struct {
	contactStorage ports.ContactStorage
	publisher      ports.ContactEventPublisher
	logger         *slog.Logger
	now            func() time.Time
}

// NewContactUseCase создает новый экземпляр ContactUseCase
func NewContactUseCase(
	contactStorage ports.ContactStorage,
	publisher ports.ContactEventPublisher,
	logger *slog.Logger,
) ContactUseCase {
	return &contactUseCase{
		contactStorage: contactStorage,
		publisher:      publisher,
		logger:         logger,
		now:            time.Now,
	}
}

func (uc *contactUseCase) CreateContact(ctx context.Context, sess ports.Session, fields domain.ContactFields) (*domain.Contact, error) {
	contact, err := uc.contactStorage.Create(ctx, sess, fields)
	if err != nil {
		return nil, fmt.Errorf("usecase: create contact: %w", err)
	}
	uc.publish(ctx, payloads.ContactCreated, *contact)
	return contact, nil
}

func (uc *contactUseCase) ListContacts(ctx context.Context, sess ports.Session, skip, limit int) ([]domain.Contact, error) {
	contacts, err := uc.contactStorage.List(ctx, sess, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("usecase: list contacts: %w", err)
	}
	return contacts, nil
}

func (uc *contactUseCase) GetContact(ctx context.Context, sess ports.Session, id int64) (*domain.Contact, error) {
	contact, err := uc.contactStorage.GetByID(ctx, sess, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: get contact %d: %w", id, err)
	}
	return contact, nil
}

func (uc *contactUseCase) UpdateContact(ctx context.Context, sess ports.Session, id int64, fields domain.ContactFields) (*domain.Contact, error) {
	contact, err := uc.contactStorage.Update(ctx, sess, id, fields)
	if err != nil {
		return nil, fmt.Errorf("usecase: update contact %d: %w", id, err)
	}
	uc.publish(ctx, payloads.ContactUpdated, *contact)
	return contact, nil
}

func (uc *contactUseCase) DeleteContact(ctx context.Context, sess ports.Session, id int64) (*domain.Contact, error) {
	contact, err := uc.contactStorage.Delete(ctx, sess, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: delete contact %d: %w", id, err)
	}
	uc.publish(ctx, payloads.ContactDeleted, *contact)
	return contact, nil
}

func (uc *contactUseCase) SearchContacts(ctx context.Context, sess ports.Session, filter domain.ContactFilter) ([]domain.Contact, error) {
	contacts, err := uc.contactStorage.Search(ctx, sess, filter)
	if err != nil {
		return nil, fmt.Errorf("usecase: search contacts: %w", err)
	}
	return contacts, nil
}

func (uc *contactUseCase) UpcomingBirthdays(ctx context.Context, sess ports.Session, ref domain.Date) ([]domain.Contact, error) {
	contacts, err := uc.contactStorage.UpcomingBirthdays(ctx, sess, ref)
	if err != nil {
		return nil, fmt.Errorf("usecase: upcoming birthdays: %w", err)
	}
	return contacts, nil
}

// publish вызывается после commit; ошибка публикации только логируется.
func (uc *contactUseCase) publish(ctx context.Context, eventType payloads.ContactEventType, contact domain.Contact) {
	event := payloads.NewContactEvent(eventType, contact, uc.now())
	if err := uc.publisher.PublishContactEvent(ctx, event); err != nil {
		uc.logger.Error("failed to publish contact event",
			"event_id", event.ID,
			"type", eventType,
			"contact_id", contact.ID,
			"error", err,
		)
	}
}
