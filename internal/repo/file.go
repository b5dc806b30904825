package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gofrs/flock"
)

var slotKeyRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileSlots хранит каждый слот в отдельном файле <dir>/<key>.json.
// Запись атомарная (временный файл + rename), доступ защищен advisory lock.
type FileSlots struct {
	dir string
}

func OpenFile(dir string) (*FileSlots, error) {
	if dir == "" {
		return nil, errors.New("file slots: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot dir %s: %w", dir, err)
	}
	return &FileSlots{dir: dir}, nil
}

func (s *FileSlots) Dir() string { return s.dir }

func (s *FileSlots) path(key string) (string, error) {
	if !slotKeyRe.MatchString(key) {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileSlots) Get(ctx context.Context, key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}

	lk := flock.New(p + ".lock")
	locked, err := lk.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("%w: lock %s: %v", ErrorUnavailable, p, err)
	}
	if locked {
		defer lk.Unlock()
	}

	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read slot %s: %w", key, err)
	}
	return string(b), nil
}

func (s *FileSlots) Set(ctx context.Context, key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	lk := flock.New(p + ".lock")
	locked, err := lk.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("%w: lock %s: %v", ErrorUnavailable, p, err)
	}
	if locked {
		defer lk.Unlock()
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync slot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close slot %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), p)
}

func (s *FileSlots) Close() error { return nil }
