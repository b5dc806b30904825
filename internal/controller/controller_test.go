package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/render"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
	"github.com/BuzzLyutic/tasklist/internal/testutil"
	"github.com/BuzzLyutic/tasklist/internal/worker"
)

// recorder запоминает все кадры
type recorder struct {
	mu     sync.Mutex
	frames []render.Frame
}

func (r *recorder) Render(f render.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) last() render.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

func (r *recorder) visibleTexts() []string {
	f := r.last()
	out := make([]string, 0, len(f.Visible))
	for _, t := range f.Visible {
		out = append(out, t.Text)
	}
	return out
}

// manualScheduler копит задания до явного вызова fire
type manualScheduler struct {
	timers *worker.Timers
	jobs   []func()
	delays []time.Duration
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{timers: worker.NewTimers(zap.NewNop())}
}

func (m *manualScheduler) Schedule(name string, d time.Duration, fn func()) (*worker.Handle, error) {
	m.jobs = append(m.jobs, fn)
	m.delays = append(m.delays, d)
	// настоящий handle, который за время теста не сработает
	return m.timers.Schedule(name, time.Hour, func() {})
}

func (m *manualScheduler) fireAll() {
	jobs := m.jobs
	m.jobs = nil
	for _, fn := range jobs {
		fn()
	}
}

// MockSlotStore - мок хранилища для проверки записи
type MockSlotStore struct {
	mock.Mock
}

func (m *MockSlotStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSlotStore) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockSlotStore) Close() error { return nil }

type warnInput struct {
	TextInput
	warnings []string
}

func (w *warnInput) Warn(msg string) { w.warnings = append(w.warnings, msg) }

type fixture struct {
	ctl   *Controller
	rec   *recorder
	sched *manualScheduler
	slots *repo.MemorySlots
}

func setup(t *testing.T) fixture {
	t.Helper()
	slots := repo.NewMemorySlots()
	rec := &recorder{}
	sched := newManualScheduler()

	store := service.NewTaskStore(slots)
	ctl := New(store, rec, sched,
		WithLogger(zap.NewNop()),
		WithClock(func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, ctl.Load(context.Background()))
	return fixture{ctl: ctl, rec: rec, sched: sched, slots: slots}
}

func add(t *testing.T, ctl *Controller, text string) model.Task {
	t.Helper()
	task, err := ctl.Add(context.Background(), &TextInput{Value: text})
	require.NoError(t, err)
	return task
}

func stored(t *testing.T, slots *repo.MemorySlots) []model.Task {
	t.Helper()
	raw, err := slots.Get(context.Background(), service.DefaultSlotKey)
	require.NoError(t, err)
	tasks, err := service.Decode(raw)
	require.NoError(t, err)
	return tasks
}

func TestController_LoadRendersInitialFrame(t *testing.T) {
	fx := setup(t)

	assert.Equal(t, 1, fx.rec.count())
	f := fx.rec.last()
	assert.Equal(t, model.ModeAll, f.Mode)
	assert.Empty(t, f.Visible)
	assert.Equal(t, "Thursday, Oct 15", render.NewView(f).Date)
}

func TestController_Add(t *testing.T) {
	fx := setup(t)

	in := &TextInput{Value: "  Buy milk  "}
	task, err := fx.ctl.Add(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", task.Text)
	assert.False(t, task.Completed)
	assert.True(t, in.Cleared, "input cleared on success")
	assert.Equal(t, "", in.Text())
	assert.Equal(t, []model.Task{task}, stored(t, fx.slots), "persisted after add")
	assert.Equal(t, []string{"Buy milk"}, fx.rec.visibleTexts())
}

func TestController_AddBlankWarns(t *testing.T) {
	for _, text := range []string{"", "   "} {
		t.Run("text="+text, func(t *testing.T) {
			fx := setup(t)
			renders := fx.rec.count()

			in := &warnInput{TextInput: TextInput{Value: text}}
			_, err := fx.ctl.Add(context.Background(), in)

			assert.ErrorIs(t, err, service.ErrValidation)
			assert.Equal(t, []string{service.WarningEmptyText}, in.warnings)
			assert.False(t, in.Cleared, "input kept on failure")
			assert.Empty(t, fx.ctl.Tasks())
			assert.Equal(t, renders, fx.rec.count(), "no re-render on validation error")

			_, err = fx.slots.Get(context.Background(), service.DefaultSlotKey)
			assert.ErrorIs(t, err, repo.ErrorNotFound, "nothing persisted")
		})
	}
}

type captureWarner struct{ msgs []string }

func (c *captureWarner) Warn(msg string) { c.msgs = append(c.msgs, msg) }

func TestController_AddBlankUsesDefaultWarner(t *testing.T) {
	w := &captureWarner{}
	ctl := New(service.NewTaskStore(repo.NewMemorySlots()), &recorder{}, newManualScheduler(), WithWarner(w))

	_, err := ctl.Add(context.Background(), &TextInput{Value: " "})
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, []string{service.WarningEmptyText}, w.msgs)
}

func TestController_Toggle(t *testing.T) {
	fx := setup(t)
	a := add(t, fx.ctl, "a")
	b := add(t, fx.ctl, "b")

	require.NoError(t, fx.ctl.Toggle(context.Background(), a.ID))
	tasks := stored(t, fx.slots)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, b, tasks[1])

	require.NoError(t, fx.ctl.Toggle(context.Background(), a.ID))
	assert.False(t, stored(t, fx.slots)[0].Completed)

	before := fx.ctl.Tasks()
	require.NoError(t, fx.ctl.Toggle(context.Background(), 424242))
	assert.Equal(t, before, fx.ctl.Tasks(), "unknown id is a no-op")
}

func TestController_DeleteIsDeferred(t *testing.T) {
	fx := setup(t)
	a := add(t, fx.ctl, "a")
	b := add(t, fx.ctl, "b")

	h, err := fx.ctl.Delete(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, h)
	defer h.Cancel()

	// строка еще видна и помечена как удаляемая
	f := fx.rec.last()
	assert.Len(t, f.Visible, 2)
	assert.True(t, f.Removing[a.ID])
	assert.Len(t, fx.ctl.Tasks(), 2)
	assert.Len(t, stored(t, fx.slots), 2)
	assert.Equal(t, []int64{a.ID}, fx.ctl.Pending())
	assert.Equal(t, []time.Duration{DefaultRemoveDelay}, fx.sched.delays)

	fx.sched.fireAll()

	assert.Equal(t, []model.Task{b}, fx.ctl.Tasks())
	assert.Equal(t, []model.Task{b}, stored(t, fx.slots))
	assert.Empty(t, fx.ctl.Pending())
	assert.Empty(t, fx.rec.last().Removing)
	assert.Equal(t, []string{"b"}, fx.rec.visibleTexts())
}

func TestController_DeleteTwiceWhilePending(t *testing.T) {
	fx := setup(t)
	a := add(t, fx.ctl, "a")

	h1, err := fx.ctl.Delete(context.Background(), a.ID)
	require.NoError(t, err)
	defer h1.Cancel()
	h2, err := fx.ctl.Delete(context.Background(), a.ID)
	require.NoError(t, err)

	assert.Equal(t, h1.ID(), h2.ID(), "same pending handle")
	assert.Len(t, fx.sched.jobs, 1, "only one removal scheduled")
}

func TestController_DeleteUnknown(t *testing.T) {
	fx := setup(t)
	add(t, fx.ctl, "a")

	h, err := fx.ctl.Delete(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Empty(t, fx.sched.jobs)
	assert.Len(t, fx.ctl.Tasks(), 1)
}

func TestController_IntentsDuringPendingDelete(t *testing.T) {
	fx := setup(t)
	a := add(t, fx.ctl, "a")

	h, err := fx.ctl.Delete(context.Background(), a.ID)
	require.NoError(t, err)
	defer h.Cancel()

	// другие действия не блокируются, пока удаление ждет
	c := add(t, fx.ctl, "c")
	require.NoError(t, fx.ctl.Toggle(context.Background(), a.ID))
	assert.True(t, fx.rec.last().Removing[a.ID], "still marked after re-render")

	fx.sched.fireAll()
	assert.Equal(t, []model.Task{c}, fx.ctl.Tasks())
}

func TestController_ClearCompleted(t *testing.T) {
	fx := setup(t)
	a := add(t, fx.ctl, "a")
	b := add(t, fx.ctl, "b")
	c := add(t, fx.ctl, "c")
	require.NoError(t, fx.ctl.Toggle(context.Background(), b.ID))

	n, err := fx.ctl.ClearCompleted(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []model.Task{a, c}, fx.ctl.Tasks())
	assert.Equal(t, []model.Task{a, c}, stored(t, fx.slots))
}

func TestController_SetFilterDoesNotPersist(t *testing.T) {
	mockSlots := new(MockSlotStore)
	mockSlots.On("Get", mock.Anything, "todos").Return(`[{"id":1,"text":"a","completed":true},{"id":2,"text":"b"}]`, nil)

	rec := &recorder{}
	ctl := New(service.NewTaskStore(mockSlots), rec, newManualScheduler())
	require.NoError(t, ctl.Load(context.Background()))

	for _, mode := range []model.Mode{model.ModeActive, model.ModeCompleted, model.ModeAll, model.ModeActive} {
		require.NoError(t, ctl.SetFilter(mode))
		assert.Equal(t, mode, ctl.Mode())
		assert.Equal(t, mode, rec.last().Mode)
	}
	assert.Equal(t, []string{"b"}, rec.visibleTexts())
	assert.Len(t, rec.last().All, 2)

	mockSlots.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	mockSlots.AssertExpectations(t)
}

func TestController_PersistFailureKeepsState(t *testing.T) {
	mockSlots := new(MockSlotStore)
	mockSlots.On("Get", mock.Anything, "todos").Return("", repo.ErrorNotFound)
	mockSlots.On("Set", mock.Anything, "todos", mock.Anything).Return(repo.ErrorUnavailable)

	rec := &recorder{}
	ctl := New(service.NewTaskStore(mockSlots), rec, newManualScheduler())
	require.NoError(t, ctl.Load(context.Background()))

	in := &TextInput{Value: "a"}
	_, err := ctl.Add(context.Background(), in)

	assert.ErrorIs(t, err, repo.ErrorUnavailable)
	assert.Len(t, ctl.Tasks(), 1, "in-memory state keeps the mutation")
	assert.True(t, in.Cleared)
	assert.Equal(t, []string{"a"}, rec.visibleTexts(), "still rendered")
}

type failingRenderer struct{}

func (failingRenderer) Render(render.Frame) error { return errors.New("boom") }

func TestController_RenderFailureIsReported(t *testing.T) {
	ctl := New(service.NewTaskStore(repo.NewMemorySlots()), failingRenderer{}, newManualScheduler())
	err := ctl.SetFilter(model.ModeActive)
	assert.ErrorContains(t, err, "boom")
}

func TestController_EndToEndScenario(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	milk := add(t, fx.ctl, "Buy milk")
	add(t, fx.ctl, "Walk dog")
	require.NoError(t, fx.ctl.Toggle(ctx, milk.ID))

	require.NoError(t, fx.ctl.SetFilter(model.ModeActive))
	assert.Equal(t, []string{"Walk dog"}, fx.rec.visibleTexts())

	require.NoError(t, fx.ctl.SetFilter(model.ModeCompleted))
	assert.Equal(t, []string{"Buy milk"}, fx.rec.visibleTexts())

	_, err := fx.ctl.ClearCompleted(ctx)
	require.NoError(t, err)
	for _, task := range fx.ctl.Tasks() {
		assert.NotEqual(t, "Buy milk", task.Text)
	}
	assert.True(t, fx.ctl.Snapshot().Empty, "completed view is now empty")

	require.NoError(t, fx.ctl.SetFilter(model.ModeAll))
	assert.Equal(t, []string{"Walk dog"}, fx.rec.visibleTexts())
	assert.Equal(t, "1 item left", fx.ctl.Snapshot().ItemsLeft)
}

func TestController_RealTimersAndConcurrentIntents(t *testing.T) {
	timers := worker.NewTimers(zap.NewNop())
	rec := &recorder{}
	ctl := New(service.NewTaskStore(repo.NewMemorySlots()), rec, timers, WithRemoveDelay(10*time.Millisecond))
	require.NoError(t, ctl.Load(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctl.Add(context.Background(), &TextInput{Value: "task"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tasks := ctl.Tasks()
	require.Len(t, tasks, 20)
	seen := map[int64]bool{}
	for _, task := range tasks {
		assert.False(t, seen[task.ID], "ids are unique")
		seen[task.ID] = true
	}

	for _, task := range tasks[:5] {
		_, err := ctl.Delete(context.Background(), task.ID)
		require.NoError(t, err)
	}
	ok := testutil.WaitForCondition(t, 2*time.Second, func() bool { return len(ctl.Tasks()) == 15 })
	assert.True(t, ok)

	timers.Stop()
	assert.Empty(t, ctl.Pending())
}
