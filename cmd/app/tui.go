package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/tui"
)

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Manage the task list in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			// Логи в терминал испортят экран: только в файл или никуда
			logger := zap.NewNop()
			if cfg.LogFile != "" {
				if logger, err = a.newLogger(cfg, cfg.LogFile); err != nil {
					return err
				}
				defer logger.Sync()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, slots, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer slots.Close()

			return tui.Run(ctx, store, cfg.RemoveDelay, logger)
		},
	}
}
