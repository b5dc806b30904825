package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/controller"
	"github.com/BuzzLyutic/tasklist/internal/handler"
	"github.com/BuzzLyutic/tasklist/internal/render"
	"github.com/BuzzLyutic/tasklist/internal/worker"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task list page and JSON API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
	cmd.Flags().String("port", "", `listen port or address (default "8080")`)
	_ = a.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	// Подключаем логгер
	logger, err := a.newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, slots, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", zap.Error(err))
		return err
	}
	defer slots.Close()

	page, err := render.NewPage()
	if err != nil {
		return err
	}

	timers := worker.NewTimers(logger)
	ctl := controller.New(store, page, timers,
		controller.WithLogger(logger),
		controller.WithRemoveDelay(cfg.RemoveDelay),
		// Удаления, догоняемые при остановке, должны сохраниться и после сигнала
		controller.WithContext(context.WithoutCancel(ctx)),
	)
	if err := ctl.Load(ctx); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	srv := &http.Server{ // Создаем сервер
		Addr:         cfg.Addr(),
		Handler:      handler.NewRouter(handler.NewTaskHandler(ctl, page, logger), logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			timers.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	timers.Stop()
	logger.Info("Server stopped successfully!")
	return nil
}
