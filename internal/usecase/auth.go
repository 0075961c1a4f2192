package usecase

import (
	"context"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/domain"
)

// AccessTokenTTL — фиксированный срок жизни токена доступа.
const AccessTokenTTL = 30 * time.Minute

// AuthUseCase — регистрация, проверка учётных данных и выпуск токенов.
type AuthUseCase interface {
	FindByUsername(ctx context.Context, sess ports.Session, username string) (*domain.User, error)

	// Authenticate возвращает domain.ErrAuthFailure и при неизвестном имени, и при неверном пароле.
	Authenticate(ctx context.Context, sess ports.Session, username, password string) (*domain.User, error)

	// Register создаёт пользователя; занятый email или username — *domain.DuplicateError.
	Register(ctx context.Context, sess ports.Session, reg domain.Registration) (*domain.User, error)

	IssueToken(user *domain.User) (*domain.Token, error)

	// UserFromToken проверяет токен и загружает его владельца.
	UserFromToken(ctx context.Context, sess ports.Session, token string) (*domain.User, error)
}
