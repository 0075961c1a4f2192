// Package auth содержит реализации хеширования паролей и выпуска токенов.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher реализует ports.PasswordHasher через bcrypt (соль генерируется автоматически).
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// NewBcryptHasherWithCost нужен в тестах, где DefaultCost слишком медленный.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

func (h *BcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
