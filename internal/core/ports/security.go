package ports

import "time"

// PasswordHasher скрывает алгоритм хеширования паролей.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

// TokenIssuer подписывает и проверяет токены доступа.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (token string, expiresAt time.Time, err error)
	Subject(token string) (string, error)
}
