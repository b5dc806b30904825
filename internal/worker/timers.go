package worker

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrStopped = errors.New("scheduler stopped")

// Handle идентифицирует отложенное задание
type Handle struct {
	id    uuid.UUID
	name  string
	due   time.Time
	timer *time.Timer
	owner *Timers
}

func (h *Handle) ID() uuid.UUID  { return h.id }
func (h *Handle) Name() string   { return h.name }
func (h *Handle) Due() time.Time { return h.due }
func (h *Handle) Cancel() bool   { return h.owner.cancel(h) }

// Timers запускает функции с задержкой. Колбэки выполняются через dispatch:
// по умолчанию прямо в горутине таймера, TUI подставляет свой цикл событий.
type Timers struct {
	logger   *zap.Logger
	dispatch func(func())

	mu      sync.Mutex
	pending map[uuid.UUID]*Handle
	stopped bool
	wg      sync.WaitGroup
}

type Option func(*Timers)

// WithDispatch задает, где выполнять сработавшие задания
func WithDispatch(dispatch func(run func())) Option {
	return func(t *Timers) { t.dispatch = dispatch }
}

func NewTimers(logger *zap.Logger, opts ...Option) *Timers {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Timers{
		logger:   logger,
		dispatch: func(run func()) { run() },
		pending:  make(map[uuid.UUID]*Handle),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Schedule запускает fn через d. После Stop возвращает ErrStopped.
func (t *Timers) Schedule(name string, d time.Duration, fn func()) (*Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return nil, ErrStopped
	}

	h := &Handle{
		id:    uuid.New(),
		name:  name,
		due:   time.Now().Add(d),
		owner: t,
	}
	t.pending[h.id] = h
	t.wg.Add(1)
	h.timer = time.AfterFunc(d, func() { t.fire(h, fn) })

	t.logger.Debug("job scheduled",
		zap.String("job", name),
		zap.String("handle", h.id.String()),
		zap.Duration("delay", d),
	)
	return h, nil
}

func (t *Timers) fire(h *Handle, fn func()) {
	t.mu.Lock()
	if _, ok := t.pending[h.id]; !ok { // Уже отменено
		t.mu.Unlock()
		return
	}
	delete(t.pending, h.id)
	t.mu.Unlock()

	defer t.wg.Done()
	t.dispatch(func() { t.run(h, fn) })
}

func (t *Timers) run(h *Handle, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("job panicked",
				zap.String("job", h.name),
				zap.String("handle", h.id.String()),
				zap.Any("panic", r),
			)
		}
	}()

	fn()
	t.logger.Debug("job done", zap.String("job", h.name), zap.String("handle", h.id.String()))
}

func (t *Timers) cancel(h *Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pending[h.id]; !ok {
		return false
	}
	delete(t.pending, h.id)
	h.timer.Stop()
	t.wg.Done()
	t.logger.Debug("job canceled", zap.String("job", h.name), zap.String("handle", h.id.String()))
	return true
}

// Pending - число еще не сработавших заданий
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop перестает принимать задания и ждет, пока сработают уже запланированные
func (t *Timers) Stop() {
	t.mu.Lock()
	t.stopped = true
	n := len(t.pending)
	t.mu.Unlock()

	t.logger.Info("Stopping scheduler...", zap.Int("pending", n))
	t.wg.Wait()
	t.logger.Info("Scheduler stopped")
}
