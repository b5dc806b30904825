package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/controller"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/render"
	"github.com/BuzzLyutic/tasklist/internal/worker"
)

func (a *app) listCmd() *cobra.Command {
	var filterFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := model.ParseMode(filterFlag)
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if a.debug {
				if logger, err = a.newLogger(cfg, "stderr"); err != nil {
					return err
				}
			}

			store, slots, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer slots.Close()

			out := cmd.OutOrStdout()
			term := render.NewTerm(out, false)
			ctl := controller.New(store, term, worker.NewTimers(logger), controller.WithLogger(logger))
			if err := ctl.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load tasks: %w", err)
			}
			if err := ctl.SetFilter(mode); err != nil {
				return err
			}

			_, err = fmt.Fprintln(out, term.String())
			return err
		},
	}
	cmd.Flags().StringVarP(&filterFlag, "filter", "f", "all", "all, active or completed")
	return cmd
}
