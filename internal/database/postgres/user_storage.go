package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/database/client"
	"github.com/GoArmGo/ContactsApp/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormUserStorage реализует интерфейс ports.UserStorage с использованием GORM.
// Экземпляр GORM открывается один раз над пулом, а запросы идут
// через транзакцию сессии.
type GormUserStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormUserStorage создает новый экземпляр GormUserStorage
func NewGormUserStorage(pool *sql.DB, logger *slog.Logger) (*GormUserStorage, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: pool}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		logger.Error("failed to initialize gorm", "error", err)
		return nil, fmt.Errorf("initialize gorm: %w", err)
	}
	return &GormUserStorage{db: db, logger: logger}, nil
}

// orm привязывает общий экземпляр к транзакции сессии.
func (s *GormUserStorage) orm(ctx context.Context, sess ports.Session) (*gorm.DB, error) {
	tx, err := sess.Tx(ctx)
	if err != nil {
		return nil, err
	}

	db := s.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	db.Statement.ConnPool = tx.Tx
	return db, nil
}

// FindByUsername ищет пользователя по имени.
func (s *GormUserStorage) FindByUsername(ctx context.Context, sess ports.Session, username string) (*domain.User, error) {
	return s.findBy(ctx, sess, "username", username)
}

// FindByEmail ищет пользователя по email.
func (s *GormUserStorage) FindByEmail(ctx context.Context, sess ports.Session, email string) (*domain.User, error) {
	return s.findBy(ctx, sess, "email", email)
}

func (s *GormUserStorage) findBy(ctx context.Context, sess ports.Session, column, value string) (*domain.User, error) {
	op := "find user by " + column
	start := time.Now()

	db, err := s.orm(ctx, sess)
	if err != nil {
		s.logger.Error("failed to open user session", "op", op, "error", err)
		return nil, &domain.StoreError{Op: op, Err: err}
	}

	var user domain.User
	result := db.Where(column+" = ?", value).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		s.logger.Warn("user not found", column, value)
		return nil, domain.ErrNotFound
	}
	if result.Error != nil {
		s.logger.Error("failed to select user", "op", op, "error", result.Error)
		return nil, &domain.StoreError{Op: op, Err: result.Error}
	}

	s.logger.Info("user found",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, nil
}

// Create сохраняет пользователя и фиксирует транзакцию.
// Нарушение уникальности username/email — *domain.DuplicateError.
func (s *GormUserStorage) Create(ctx context.Context, sess ports.Session, user *domain.User) error {
	start := time.Now()

	db, err := s.orm(ctx, sess)
	if err != nil {
		return s.abort(sess, user, err)
	}

	if err := db.Create(user).Error; err != nil {
		return s.abort(sess, user, err)
	}

	if err := sess.Commit(); err != nil {
		return s.abort(sess, user, err)
	}

	s.logger.Info("user created successfully",
		"user_id", user.ID,
		"username", user.Username,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *GormUserStorage) abort(sess ports.Session, user *domain.User, err error) error {
	if rbErr := sess.Rollback(); rbErr != nil {
		s.logger.Error("rollback failed", "op", "create user", "error", rbErr)
	}

	if client.IsUniqueViolation(err) {
		dup := &domain.DuplicateError{Field: "email", Value: user.Email}
		if strings.Contains(client.ConstraintName(err), "username") {
			dup = &domain.DuplicateError{Field: "username", Value: user.Username}
		}
		s.logger.Warn("user already registered", "field", dup.Field)
		return dup
	}

	s.logger.Error("failed to insert user", "error", err)
	return &domain.StoreError{Op: "create user", Err: err}
}
