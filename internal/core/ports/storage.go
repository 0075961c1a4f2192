package ports

import (
	"context"

	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/jmoiron/sqlx"
)

// Session — unit of work одного запроса (см. client.Session).
type Session interface {
	Tx(ctx context.Context) (*sqlx.Tx, error)
	Commit() error
	Rollback() error
	Close() error
}

// SessionProvider выдаёт сессии и проверяет доступность хранилища.
type SessionProvider interface {
	CheckConnection(ctx context.Context) error
	AcquireSession() Session
}

// ContactStorage определяет методы для взаимодействия с хранилищем контактов.
// Все методы работают внутри переданной сессии; отсутствие записи — domain.ErrNotFound.
type ContactStorage interface {
	Create(ctx context.Context, sess Session, fields domain.ContactFields) (*domain.Contact, error)
	List(ctx context.Context, sess Session, skip, limit int) ([]domain.Contact, error)
	GetByID(ctx context.Context, sess Session, id int64) (*domain.Contact, error)
	Update(ctx context.Context, sess Session, id int64, fields domain.ContactFields) (*domain.Contact, error)
	Delete(ctx context.Context, sess Session, id int64) (*domain.Contact, error)
	Search(ctx context.Context, sess Session, filter domain.ContactFilter) ([]domain.Contact, error)
	UpcomingBirthdays(ctx context.Context, sess Session, ref domain.Date) ([]domain.Contact, error)
}

// UserStorage определяет методы для взаимодействия с хранилищем пользователей
type UserStorage interface {
	FindByUsername(ctx context.Context, sess Session, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, sess Session, email string) (*domain.User, error)
	Create(ctx context.Context, sess Session, user *domain.User) error
}
