package repo

import (
	"context"
	"errors"
)

var (
	ErrorNotFound    = errors.New("not found")
	ErrorUnavailable = errors.New("storage unavailable")
)

// SlotStore определяет интерфейс долговременного key-value хранилища.
// Значение слота всегда читается и перезаписывается целиком.
type SlotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
