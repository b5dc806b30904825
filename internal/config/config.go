package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const AppName = "tasklist"

type Config struct {
	Port        string
	StorageDSN  string
	SlotKey     string
	RemoveDelay time.Duration
	LogLevel    string
	LogFile     string
}

// New создает viper с умолчаниями, путями поиска файла и переменными окружения
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("storage_dsn", "")
	v.SetDefault("slot_key", "todos")
	v.SetDefault("remove_delay", "250ms")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetConfigName(AppName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(DefaultConfigDir())

	// PORT, SLOT_KEY, REMOVE_DELAY, ... без префикса, как в старом getEnv
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	_ = v.BindEnv("storage_dsn", "STORAGE_DSN", "DATABASE_URL")

	return v
}

// Load читает файл конфигурации (если есть) и собирает Config.
// Явно указанный, но отсутствующий файл - ошибка.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Port:        strings.TrimSpace(v.GetString("port")),
		StorageDSN:  strings.TrimSpace(v.GetString("storage_dsn")),
		SlotKey:     strings.TrimSpace(v.GetString("slot_key")),
		RemoveDelay: v.GetDuration("remove_delay"),
		LogLevel:    strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFile:     strings.TrimSpace(v.GetString("log_file")),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.SlotKey == "" {
		errs = append(errs, errors.New("slot_key is required"))
	}
	if c.RemoveDelay < 0 {
		errs = append(errs, fmt.Errorf("remove_delay must not be negative, got %s", c.RemoveDelay))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Addr - адрес для http.Server
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/tasklist or ~/.config/tasklist.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}
