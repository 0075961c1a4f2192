package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/ContactsApp/internal/adapter/storage/minio"
	"github.com/GoArmGo/ContactsApp/internal/app"
	"github.com/GoArmGo/ContactsApp/internal/auth"
	"github.com/GoArmGo/ContactsApp/internal/config"
	"github.com/GoArmGo/ContactsApp/internal/core/ports"
	"github.com/GoArmGo/ContactsApp/internal/database/client"
	"github.com/GoArmGo/ContactsApp/internal/database/postgres"
	"github.com/GoArmGo/ContactsApp/internal/database/storage"
	"github.com/GoArmGo/ContactsApp/internal/handler"
	"github.com/GoArmGo/ContactsApp/internal/logger"
	"github.com/GoArmGo/ContactsApp/internal/metrics"
	"github.com/GoArmGo/ContactsApp/internal/rabbitmq"
	"github.com/GoArmGo/ContactsApp/internal/usecase"
)

// BuildApp инициализирует зависимости выбранного режима и возвращает готовый объект App.
// При ошибке уже открытые ресурсы закрываются.
func BuildApp(ctx context.Context, mode app.Mode) (_ *app.App, err error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Логгер
	slogger, logCloser, err := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat, "mode", mode)

	closers := []app.Closer{{Name: "log file", Closer: logCloser}}
	defer func() {
		if err != nil {
			_ = app.NewApp(app.Params{Logger: slogger, Closers: closers}).Shutdown()
		}
	}()

	m := metrics.New()
	params := app.Params{Config: cfg, Logger: slogger, Mode: mode}

	switch mode {
	case app.ModeServe:
		params.Handler, err = buildServer(ctx, cfg, slogger, m, &closers)
	case app.ModeWorker:
		params.Consumer, params.Archive, err = buildWorker(ctx, cfg, slogger, m, &closers)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	params.Closers = closers
	slogger.Info("all dependencies initialized", "mode", mode)
	return app.NewApp(params), nil
}

func buildServer(ctx context.Context, cfg *config.Config, slogger *slog.Logger, m *metrics.Metrics, closers *[]app.Closer) (http.Handler, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}

	// 3. Шлюз PostgreSQL: недоступная база при старте — фатальная ошибка
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, app.Closer{Name: "postgres", Closer: dbClient})

	if err := dbClient.CheckConnection(ctx); err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := client.ApplyMigrations(cfg.DatabaseURL, slogger); err != nil {
			return nil, err
		}
	}
	if err := m.RegisterDB(dbClient.DB.DB, "contacts"); err != nil {
		return nil, fmt.Errorf("register db metrics: %w", err)
	}

	// 4. Хранилища
	contactStorage := storage.NewContactStorage(slogger)
	userStorage, err := postgres.NewGormUserStorage(dbClient.DB.DB, slogger)
	if err != nil {
		return nil, err
	}

	// 5. Безопасность
	tokens, err := auth.NewJWTIssuer(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	// 6. Публикация событий: без RABBITMQ_URL события отключены
	var publisher ports.ContactEventPublisher = rabbitmq.NewNopPublisher(slogger)
	if cfg.EventsEnabled() {
		rabbitClient, err := rabbitmq.NewClient(cfg, slogger, m)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, app.Closer{Name: "rabbitmq", Closer: rabbitClient})
		publisher = rabbitClient
	} else {
		slogger.Warn("RABBITMQ_URL is not set, contact events are disabled")
	}

	// 7. Бизнес-логика
	contactUseCase := usecase.NewContactUseCase(contactStorage, publisher, slogger)
	authUseCase := usecase.NewAuthUseCase(userStorage, auth.NewBcryptHasher(), tokens, slogger)

	// 8. HTTP
	v := handler.NewValidator()
	return handler.NewRouter(handler.RouterConfig{
		Contacts:       handler.NewContactHandler(contactUseCase, v, slogger),
		Auth:           handler.NewAuthHandler(authUseCase, v, slogger),
		Health:         handler.NewHealthHandler(dbClient, slogger),
		Sessions:       dbClient,
		Metrics:        m,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         slogger,
	}), nil
}

func buildWorker(ctx context.Context, cfg *config.Config, slogger *slog.Logger, m *metrics.Metrics, closers *[]app.Closer) (ports.ContactEventConsumer, ports.FileStorage, error) {
	if err := cfg.ValidateWorker(); err != nil {
		return nil, nil, err
	}

	archive, err := minio.NewMinioClient(ctx, cfg, slogger)
	if err != nil {
		return nil, nil, err
	}

	rabbitClient, err := rabbitmq.NewClient(cfg, slogger, m)
	if err != nil {
		return nil, nil, err
	}
	*closers = append(*closers, app.Closer{Name: "rabbitmq", Closer: rabbitClient})

	return rabbitClient, archive, nil
}
