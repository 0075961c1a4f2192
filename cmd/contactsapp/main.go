package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/GoArmGo/ContactsApp/internal/app"
	"github.com/GoArmGo/ContactsApp/internal/di"
	"github.com/spf13/cobra"
)

func main() {
	// bootstrap-логгер: до загрузки конфигурации основного логгера ещё нет
	bootstrapLogger := slog.New(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		bootstrapLogger.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the contacts HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), app.ModeServe)
		},
	}

	worker := &cobra.Command{
		Use:   "worker",
		Short: "Archive contact change events from RabbitMQ to MinIO",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), app.ModeWorker)
		},
	}

	root := &cobra.Command{
		Use:           "contactsapp",
		Short:         "Contact management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		// без подкоманды запускается API
		RunE: serve.RunE,
	}
	root.AddCommand(serve, worker)
	return root
}

func run(ctx context.Context, mode app.Mode) error {
	application, err := di.BuildApp(ctx, mode)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}
