// Package controller turns user intents into store mutations and re-renders.
//
// Intents are processed one at a time: every exported method takes the
// controller lock for its whole duration, so a surface may call them from
// any goroutine. Each mutating intent follows the same cycle: mutate the
// store, persist the whole collection, select the visible subset, render.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/filter"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/render"
	"github.com/BuzzLyutic/tasklist/internal/service"
	"github.com/BuzzLyutic/tasklist/internal/worker"
)

// DefaultRemoveDelay leaves time for the fade-out before a deleted row goes away.
const DefaultRemoveDelay = 250 * time.Millisecond

// Input is the text source an add intent reads from.
type Input interface {
	Text() string
	Clear()
}

// Warner shows a validation warning to the user.
type Warner interface {
	Warn(msg string)
}

// Scheduler runs fn after a delay. *worker.Timers implements it.
type Scheduler interface {
	Schedule(name string, d time.Duration, fn func()) (*worker.Handle, error)
}

type Controller struct {
	mu        sync.Mutex
	store     *service.TaskStore
	renderer  render.Renderer
	scheduler Scheduler
	warner    Warner
	logger    *zap.Logger
	now       func() time.Time
	delay     time.Duration
	baseCtx   context.Context

	mode     model.Mode
	removing map[int64]*worker.Handle
}

type Option func(*Controller)

func WithRemoveDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithWarner задает получателя предупреждений, если Input сам их не показывает
func WithWarner(w Warner) Option {
	return func(c *Controller) { c.warner = w }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithContext задает контекст для отложенных удалений, которые выполняются вне запроса
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.baseCtx = ctx }
}

func New(store *service.TaskStore, renderer render.Renderer, scheduler Scheduler, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		renderer:  renderer,
		scheduler: scheduler,
		logger:    zap.NewNop(),
		now:       time.Now,
		delay:     DefaultRemoveDelay,
		baseCtx:   context.Background(),
		mode:      model.ModeAll,
		removing:  make(map[int64]*worker.Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.warner == nil {
		c.warner = logWarner{c.logger}
	}
	return c
}

// Load читает сохраненный список и выполняет первую отрисовку
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Load(ctx); err != nil {
		return err
	}
	return c.render()
}

func (c *Controller) Add(ctx context.Context, in Input) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.store.Add(in.Text())
	if errors.Is(err, service.ErrValidation) {
		c.warn(in, service.WarningEmptyText)
		return task, err
	}
	if err != nil {
		return task, err
	}

	perr := c.persist(ctx)
	in.Clear()
	c.logger.Debug("task added", zap.Int64("task_id", task.ID))
	return task, errors.Join(perr, c.render())
}

func (c *Controller) Toggle(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.Toggle(id) {
		c.logger.Debug("toggle of unknown task ignored", zap.Int64("task_id", id))
	}
	return errors.Join(c.persist(ctx), c.render())
}

// Delete помечает задачу как удаляемую и откладывает фактическое удаление,
// чтобы анимация исчезновения успела проиграться.
func (c *Controller) Delete(ctx context.Context, id int64) (*worker.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, pending := c.removing[id]; pending {
		return h, nil
	}
	if !c.store.Has(id) {
		c.logger.Debug("delete of unknown task ignored", zap.Int64("task_id", id))
		return nil, nil
	}

	h, err := c.scheduler.Schedule(fmt.Sprintf("remove-task-%d", id), c.delay, func() {
		c.finishDelete(id)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule removal of task %d: %w", id, err)
	}
	c.removing[id] = h
	return h, c.render()
}

func (c *Controller) finishDelete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.removing, id)
	c.store.Delete(id)
	if err := errors.Join(c.persist(c.baseCtx), c.render()); err != nil {
		c.logger.Error("deferred removal failed", zap.Int64("task_id", id), zap.Error(err))
		return
	}
	c.logger.Debug("task removed", zap.Int64("task_id", id))
}

func (c *Controller) ClearCompleted(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.store.ClearCompleted()
	return n, errors.Join(c.persist(ctx), c.render())
}

// SetFilter меняет режим отображения; хранилище не трогается
func (c *Controller) SetFilter(mode model.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode == "" {
		mode = model.ModeAll
	}
	c.mode = mode
	return c.render()
}

func (c *Controller) Mode() model.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Snapshot возвращает текущее представление без побочных эффектов
func (c *Controller) Snapshot() render.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return render.NewView(c.frame())
}

// SnapshotFor строит представление для другого режима, не меняя текущий
func (c *Controller) SnapshotFor(mode model.Mode) render.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.frame()
	f.Mode = mode
	f.Visible = filter.Select(f.All, mode)
	return render.NewView(f)
}

// Tasks возвращает всю коллекцию
func (c *Controller) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Tasks()
}

// Pending возвращает id задач, ожидающих удаления, по возрастанию
func (c *Controller) Pending() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int64, 0, len(c.removing))
	for id := range c.removing {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Controller) frame() render.Frame {
	all := c.store.Tasks()
	removing := make(map[int64]bool, len(c.removing))
	for id := range c.removing {
		removing[id] = true
	}
	return render.Frame{
		Visible:  filter.Select(all, c.mode),
		All:      all,
		Mode:     c.mode,
		Removing: removing,
		Now:      c.now(),
	}
}

func (c *Controller) render() error {
	if err := c.renderer.Render(c.frame()); err != nil {
		c.logger.Error("render failed", zap.Error(err))
		return err
	}
	return nil
}

// persist не прерывает цикл: состояние в памяти остается измененным, ошибка уходит наверх
func (c *Controller) persist(ctx context.Context) error {
	if err := c.store.Persist(ctx); err != nil {
		c.logger.Error("persist failed", zap.String("slot", c.store.Key()), zap.Error(err))
		return err
	}
	return nil
}

func (c *Controller) warn(in Input, msg string) {
	if w, ok := in.(Warner); ok {
		w.Warn(msg)
		return
	}
	c.warner.Warn(msg)
}

type logWarner struct{ logger *zap.Logger }

func (w logWarner) Warn(msg string) { w.logger.Warn(msg) }

// TextInput - Input поверх готовой строки (JSON API, CLI)
type TextInput struct {
	Value   string
	Cleared bool
}

func (t *TextInput) Text() string { return t.Value }
func (t *TextInput) Clear()       { t.Value = ""; t.Cleared = true }
