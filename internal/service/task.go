package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

const DefaultSlotKey = "todos"

// WarningEmptyText - текст предупреждения при попытке добавить пустую задачу
const WarningEmptyText = "You must write something!"

var (
	ErrValidation = errors.New("validation error")
)

// TaskStore владеет коллекцией задач и ее сериализацией в слот хранилища.
// Не потокобезопасен: вызовы сериализует контроллер.
type TaskStore struct {
	slots  repo.SlotStore
	key    string
	ids    IDGenerator
	logger *zap.Logger
	tasks  []model.Task
}

type Option func(*TaskStore)

func WithSlotKey(key string) Option {
	return func(s *TaskStore) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

func WithIDGenerator(g IDGenerator) Option {
	return func(s *TaskStore) { s.ids = g }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *TaskStore) { s.logger = l }
}

func NewTaskStore(slots repo.SlotStore, opts ...Option) *TaskStore {
	s := &TaskStore{
		slots:  slots,
		key:    DefaultSlotKey,
		ids:    NewClockIDs(nil),
		logger: zap.NewNop(),
		tasks:  []model.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskStore) Key() string { return s.key }

// Load читает слот. Пустой слот и поврежденные данные дают пустой список;
// ошибкой считается только сбой самого хранилища.
func (s *TaskStore) Load(ctx context.Context) error {
	raw, err := s.slots.Get(ctx, s.key)
	if errors.Is(err, repo.ErrorNotFound) {
		s.tasks = []model.Task{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load slot %q: %w", s.key, err)
	}

	tasks, err := Decode(raw)
	if err != nil {
		s.logger.Warn("stored tasks are corrupt, starting empty",
			zap.String("slot", s.key), zap.Error(err))
		s.tasks = []model.Task{}
		return nil
	}

	s.tasks = s.sanitize(tasks)
	for _, t := range s.tasks {
		s.ids.Observe(t.ID)
	}
	s.logger.Debug("tasks loaded", zap.String("slot", s.key), zap.Int("count", len(s.tasks)))
	return nil
}

// sanitize отбрасывает записи, нарушающие инварианты (пустой текст, повтор id)
func (s *TaskStore) sanitize(in []model.Task) []model.Task {
	out := make([]model.Task, 0, len(in))
	seen := make(map[int64]struct{}, len(in))
	for _, t := range in {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			s.logger.Warn("dropping stored task with empty text", zap.Int64("task_id", t.ID))
			continue
		}
		if _, dup := seen[t.ID]; dup {
			s.logger.Warn("dropping stored task with duplicate id", zap.Int64("task_id", t.ID))
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Persist перезаписывает слот всей коллекцией
func (s *TaskStore) Persist(ctx context.Context) error {
	raw, err := Encode(s.tasks)
	if err != nil {
		return err
	}
	if err := s.slots.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist slot %q: %w", s.key, err)
	}
	return nil
}

func (s *TaskStore) Add(text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" { // Пустой ввод не меняет состояние
		return model.Task{}, ErrValidation
	}

	t := model.Task{
		ID:        s.ids.Next(),
		Text:      text,
		Completed: false,
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *TaskStore) Toggle(id int64) bool {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = !s.tasks[i].Completed
			return true
		}
	}
	return false
}

func (s *TaskStore) Delete(id int64) bool {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// ClearCompleted удаляет выполненные задачи и возвращает их количество
func (s *TaskStore) ClearCompleted() int {
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if t.Completed {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	return removed
}

func (s *TaskStore) Has(id int64) bool {
	for _, t := range s.tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Tasks возвращает копию коллекции в порядке добавления
func (s *TaskStore) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *TaskStore) Len() int { return len(s.tasks) }

func Encode(tasks []model.Task) (string, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	return string(b), nil
}

func Decode(raw string) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if tasks == nil { // "null"
		tasks = []model.Task{}
	}
	return tasks, nil
}
