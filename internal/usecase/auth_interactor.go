package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/domain"
)

type authUseCase struct {
	userStorage ports.UserStorage
	hasher      ports.PasswordHasher
	tokens      ports.TokenIssuer
	logger      *slog.Logger
	dummyHash   string
}

// NewAuthUseCase создает новый экземпляр AuthUseCase
func NewAuthUseCase(
	userStorage ports.UserStorage,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	logger *slog.Logger,
) AuthUseCase {
	// хеш для сравнения, когда пользователя нет: время ответа не выдаёт существование имени
	dummyHash, err := hasher.Hash("contacts-app-dummy-password")
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", "error", err)
	}

	return &authUseCase{
		userStorage: userStorage,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger,
		dummyHash:   dummyHash,
	}
}

func (uc *authUseCase) FindByUsername(ctx context.Context, sess ports.Session, username string) (*domain.User, error) {
	user, err := uc.userStorage.FindByUsername(ctx, sess, username)
	if err != nil {
		return nil, fmt.Errorf("usecase: find user %q: %w", username, err)
	}
	return user, nil
}

func (uc *authUseCase) Authenticate(ctx context.Context, sess ports.Session, username, password string) (*domain.User, error) {
	user, err := uc.userStorage.FindByUsername(ctx, sess, username)
	if errors.Is(err, domain.ErrNotFound) {
		uc.hasher.Check(password, uc.dummyHash)
		uc.logger.Info("authentication failed", "username", username)
		return nil, domain.ErrAuthFailure
	}
	if err != nil {
		return nil, fmt.Errorf("usecase: authenticate: %w", err)
	}

	if !uc.hasher.Check(password, user.PasswordHash) {
		uc.logger.Info("authentication failed", "username", username)
		return nil, domain.ErrAuthFailure
	}

	uc.logger.Info("user authenticated", "user_id", user.ID)
	return user, nil
}

func (uc *authUseCase) Register(ctx context.Context, sess ports.Session, reg domain.Registration) (*domain.User, error) {
	// быстрая проверка; окончательный сигнал о дубликате — UNIQUE в бд
	existing, err := uc.userStorage.FindByEmail(ctx, sess, reg.Email)
	switch {
	case err == nil && existing != nil:
		uc.logger.Warn("email already registered", "email", reg.Email)
		return nil, &domain.DuplicateError{Field: "email", Value: reg.Email}
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("usecase: register: %w", err)
	}

	hash, err := uc.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("usecase: hash password: %w", err)
	}

	user := &domain.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
	}
	if err := uc.userStorage.Create(ctx, sess, user); err != nil {
		return nil, fmt.Errorf("usecase: register: %w", err)
	}

	uc.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (uc *authUseCase) IssueToken(user *domain.User) (*domain.Token, error) {
	signed, expiresAt, err := uc.tokens.Issue(user.Username, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("usecase: issue token: %w", err)
	}
	return &domain.Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (uc *authUseCase) UserFromToken(ctx context.Context, sess ports.Session, token string) (*domain.User, error) {
	username, err := uc.tokens.Subject(token)
	if err != nil {
		uc.logger.Info("rejected access token", "error", err)
		return nil, domain.ErrAuthFailure
	}

	user, err := uc.userStorage.FindByUsername(ctx, sess, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAuthFailure
	}
	if err != nil {
		return nil, fmt.Errorf("usecase: user from token: %w", err)
	}
	return user, nil
}
