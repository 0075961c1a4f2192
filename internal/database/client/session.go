package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// ErrSessionClosed возвращается при обращении к закрытой сессии.
var ErrSessionClosed = errors.New("session is closed")

// Session — unit of work одного запроса. Принадлежит одной горутине.
// После Commit или Rollback следующая операция откроет новую транзакцию.
type Session struct {
	db     *sqlx.DB
	logger *slog.Logger
	tx     *sqlx.Tx
	closed bool
}

func newSession(db *sqlx.DB, logger *slog.Logger) *Session {
	return &Session{db: db, logger: logger}
}

// Tx возвращает текущую транзакцию, открывая её при необходимости.
// Транзакция привязана к ctx: отмена контекста откатывает её.
func (s *Session) Tx(ctx context.Context) (*sqlx.Tx, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Commit фиксирует открытую транзакцию. Без транзакции ничего не делает.
func (s *Session) Commit() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}

	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback откатывает открытую транзакцию. Уже завершённая транзакция
// (например, из-за отмены контекста) ошибкой не считается.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}

	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// Close освобождает сессию: незафиксированная работа откатывается.
// Повторные вызовы ничего не делают.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	err := s.Rollback()
	s.closed = true
	if err != nil {
		s.logger.Error("database session close failed", "error", err)
	}
	return err
}
