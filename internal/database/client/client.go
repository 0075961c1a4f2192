package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/config"
	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Client — шлюз к PostgreSQL: держит пул соединений, проверяет связь
// и выдаёт сессии (unit of work) на время одного запроса.
type Client struct {
	DB             *sqlx.DB
	logger         *slog.Logger
	connectTimeout time.Duration
}

// NewClient открывает пул соединений с PostgreSQL. Соединение не проверяется:
// для этого есть CheckConnection.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open PostgreSQL connection pool", "error", err)
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return NewFromDB(db, logger, cfg.DB.ConnectTimeout), nil
}

// NewFromDB оборачивает уже открытый пул.
func NewFromDB(db *sqlx.DB, logger *slog.Logger, connectTimeout time.Duration) *Client {
	return &Client{DB: db, logger: logger, connectTimeout: connectTimeout}
}

// CheckConnection берёт соединение из пула, пингует его и сразу возвращает.
func (c *Client) CheckConnection(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, err := c.DB.Connx(ctx)
	if err != nil {
		c.logger.Error("database connection failed", "error", err)
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		c.logger.Error("database ping failed", "error", err)
		return fmt.Errorf("ping database: %w", err)
	}

	c.logger.Debug("successfully connected to the database",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// AcquireSession возвращает новую сессию. Транзакция открывается лениво,
// при первом обращении к хранилищу. Вызывающий обязан вызвать Close.
func (c *Client) AcquireSession() ports.Session {
	return newSession(c.DB, c.logger)
}

func (c *Client) Close() error {
	start := time.Now()
	err := c.DB.Close()
	if err != nil {
		c.logger.Error("failed to close database connection", "error", err)
		return err
	}
	c.logger.Info("database connection closed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
