package usecase

import (
	"context"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/domain"
)

// ContactUseCase — операции над контактами в рамках сессии запроса.
type ContactUseCase interface {
	// CreateContact сохраняет новый контакт и публикует contact.created.
	CreateContact(ctx context.Context, sess ports.Session, fields domain.ContactFields) (*domain.Contact, error)

	// ListContacts возвращает страницу контактов (skip >= 0, limit > 0 проверяет вызывающий).
	ListContacts(ctx context.Context, sess ports.Session, skip, limit int) ([]domain.Contact, error)

	GetContact(ctx context.Context, sess ports.Session, id int64) (*domain.Contact, error)

	// UpdateContact полностью заменяет поля контакта и публикует contact.updated.
	UpdateContact(ctx context.Context, sess ports.Session, id int64, fields domain.ContactFields) (*domain.Contact, error)

	// DeleteContact удаляет контакт, возвращает его прежнее состояние и публикует contact.deleted.
	DeleteContact(ctx context.Context, sess ports.Session, id int64) (*domain.Contact, error)

	SearchContacts(ctx context.Context, sess ports.Session, filter domain.ContactFilter) ([]domain.Contact, error)

	// UpcomingBirthdays — контакты с датой рождения в окне [ref, ref+7 дней].
	UpcomingBirthdays(ctx context.Context, sess ports.Session, ref domain.Date) ([]domain.Contact, error)
}
