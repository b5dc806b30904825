package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/controller"
	"github.com/BuzzLyutic/tasklist/internal/render"
	"github.com/BuzzLyutic/tasklist/internal/service"
	"github.com/BuzzLyutic/tasklist/internal/worker"
)

// Run запускает терминальный интерфейс и блокируется до выхода.
// Отложенные удаления, не успевшие сработать, выполняются до возврата.
func Run(ctx context.Context, store *service.TaskStore, delay time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	var prog *tea.Program
	exited := make(chan struct{})
	timers := worker.NewTimers(logger, worker.WithDispatch(
		loopDispatch(func(msg tea.Msg) { prog.Send(msg) }, exited),
	))

	term := render.NewTerm(os.Stdout, true)
	ctl := controller.New(store, term, timers,
		controller.WithLogger(logger),
		controller.WithRemoveDelay(delay),
		controller.WithContext(context.WithoutCancel(ctx)),
	)
	if err := ctl.Load(ctx); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	prog = tea.NewProgram(NewModel(ctx, ctl, term, logger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := prog.Run()
	close(exited)
	timers.Stop()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil // Остановлены сигналом
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// loopDispatch отправляет колбэк таймера в программу и ждет, пока Update его выполнит.
// Если программа уже завершилась, колбэк выполняется здесь же.
func loopDispatch(send func(tea.Msg), exited <-chan struct{}) func(run func()) {
	return func(run func()) {
		msg := newRunMsg(run)
		send(msg)
		select {
		case <-msg.done:
		case <-exited:
			msg.once.Do(run)
		}
	}
}
