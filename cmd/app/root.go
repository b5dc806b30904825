package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/config"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
)

// app - общее состояние команд: viper и глобальные флаги
type app struct {
	v       *viper.Viper
	cfgFile string
	debug   bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "To-do list with a web page, a terminal UI and pluggable storage",
		Long: `tasklist keeps a single to-do list in a durable key-value slot.
The list can be served as a web page with a JSON API, driven from a
terminal UI, or printed.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./tasklist.yaml or $XDG_CONFIG_HOME/tasklist/tasklist.yaml)")
	pf.String("storage", "", "storage DSN: memory:, file:///dir, postgres://..., mysql://...")
	pf.String("slot", "", `storage slot key (default "todos")`)
	pf.BoolVar(&a.debug, "debug", false, "development logging")
	_ = a.v.BindPFlag("storage_dsn", pf.Lookup("storage"))
	_ = a.v.BindPFlag("slot_key", pf.Lookup("slot"))

	root.AddCommand(a.serveCmd(), a.tuiCmd(), a.listCmd())
	return root
}

func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return cfg, err
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger: production JSON по умолчанию, консольный вывод с --debug.
// Непустой file перенаправляет вывод в файл.
func (a *app) newLogger(cfg config.Config, file string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if a.debug {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc.Level = level

	if file != "" {
		zc.OutputPaths = []string{file}
		zc.ErrorOutputPaths = []string{file}
	}
	return zc.Build()
}

// openStore открывает хранилище по DSN и собирает над ним TaskStore
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*service.TaskStore, repo.SlotStore, error) {
	slots, err := repo.Open(ctx, cfg.StorageDSN)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("storage opened",
		zap.String("kind", repo.Kind(cfg.StorageDSN)),
		zap.String("slot", cfg.SlotKey),
	)

	store := service.NewTaskStore(slots,
		service.WithSlotKey(cfg.SlotKey),
		service.WithLogger(logger),
	)
	return store, slots, nil
}
