package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/ContactsApp/internal/config"
	"github.com/GoArmGo/ContactsApp/internal/core/ports"
)

// Mode — режим запуска процесса.
type Mode string

const (
	ModeServe  Mode = "serve"
	ModeWorker Mode = "worker"
)

// Closer — ресурс, закрываемый при завершении, с именем для логов.
type Closer struct {
	Name string
	io.Closer
}

// Params — собранные зависимости. Для serve нужен Handler,
// для worker — Consumer и Archive.
type Params struct {
	Config   *config.Config
	Logger   *slog.Logger
	Mode     Mode
	Handler  http.Handler
	Consumer ports.ContactEventConsumer
	Archive  ports.FileStorage
	Closers  []Closer
}

type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	mode     Mode
	handler  http.Handler
	consumer ports.ContactEventConsumer
	archive  ports.FileStorage
	closers  []Closer
}

func NewApp(p Params) *App {
	return &App{
		cfg:      p.Config,
		logger:   p.Logger,
		mode:     p.Mode,
		handler:  p.Handler,
		consumer: p.Consumer,
		archive:  p.Archive,
		closers:  p.Closers,
	}
}

// Run работает до SIGINT/SIGTERM или отмены ctx, затем освобождает ресурсы.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting application", "mode", a.mode)

	var err error
	switch a.mode {
	case ModeServe:
		err = a.runServer(ctx)
	case ModeWorker:
		err = a.runWorker(ctx)
	default:
		err = fmt.Errorf("unknown mode %q (use %q or %q)", a.mode, ModeServe, ModeWorker)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}

	if err != nil {
		return err
	}
	a.logger.Info("application stopped")
	return nil
}

// Shutdown закрывает ресурсы в порядке, обратном созданию.
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.Name, err))
			continue
		}
		a.logger.Debug("resource closed", "name", c.Name)
	}
	a.closers = nil
	return errors.Join(errs...)
}
