// Package tui is the terminal surface of the task list: a bubbletea program
// with a text field for new tasks and a cursor over the visible rows.
package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/controller"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/render"
)

type focus int

const (
	focusInput focus = iota
	focusList
)

const help = "enter add · esc/i focus · ↑/↓ move · space toggle · x delete · C clear completed · 1/2/3 tab filter · q quit"

// runMsg переносит сработавший таймер в цикл событий программы
type runMsg struct {
	run  func()
	once *sync.Once
	done chan struct{}
}

func newRunMsg(run func()) runMsg {
	return runMsg{run: run, once: &sync.Once{}, done: make(chan struct{})}
}

type Model struct {
	ctx    context.Context
	ctl    *controller.Controller
	term   *render.Term
	input  textinput.Model
	focus  focus
	status string
	logger *zap.Logger

	statusStyle lipgloss.Style
	helpStyle   lipgloss.Style
}

func NewModel(ctx context.Context, ctl *controller.Controller, term *render.Term, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Add a new task..."
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	return &Model{
		ctx:         ctx,
		ctl:         ctl,
		term:        term,
		input:       ti,
		focus:       focusInput,
		logger:      logger,
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		helpStyle:   lipgloss.NewStyle().Faint(true),
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runMsg:
		msg.once.Do(msg.run)
		close(msg.done)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	// Общие клавиши для обоих режимов фокуса
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		return m, m.switchFocus()
	case "tab":
		m.cycleFilter()
		return m, nil
	case "up":
		m.term.MoveCursor(-1)
		return m, nil
	case "down":
		m.term.MoveCursor(1)
		return m, nil
	}

	if m.focus == focusInput {
		if msg.Type == tea.KeyEnter {
			m.add()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "i":
		return m, m.switchFocus()
	case "k":
		m.term.MoveCursor(-1)
	case "j":
		m.term.MoveCursor(1)
	case " ":
		if id, ok := m.term.Selected(); ok {
			m.report(m.ctl.Toggle(m.ctx, id))
		}
	case "x", "delete":
		if id, ok := m.term.Selected(); ok {
			_, err := m.ctl.Delete(m.ctx, id)
			m.report(err)
		}
	case "C":
		_, err := m.ctl.ClearCompleted(m.ctx)
		m.report(err)
	case "1", "2", "3":
		modes := model.Modes()
		m.report(m.ctl.SetFilter(modes[msg.Runes[0]-'1']))
	}
	return m, nil
}

func (m *Model) add() {
	_, err := m.ctl.Add(m.ctx, fieldInput{m})
	if err != nil && m.status == "" {
		m.report(err)
	}
}

func (m *Model) switchFocus() tea.Cmd {
	if m.focus == focusInput {
		m.focus = focusList
		m.input.Blur()
		return nil
	}
	m.focus = focusInput
	return m.input.Focus()
}

func (m *Model) cycleFilter() {
	modes := model.Modes()
	current := m.ctl.Mode()
	next := modes[0]
	for i, mode := range modes {
		if mode == current {
			next = modes[(i+1)%len(modes)]
			break
		}
	}
	m.report(m.ctl.SetFilter(next))
}

// report показывает ошибку в строке статуса; состояние уже изменено контроллером
func (m *Model) report(err error) {
	if err == nil {
		return
	}
	m.logger.Error("intent failed", zap.Error(err))
	m.status = err.Error()
}

// Status - текущий текст строки статуса
func (m *Model) Status() string { return m.status }

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.term.String())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.helpStyle.Render(help))
	b.WriteString("\n")
	return b.String()
}

// fieldInput отдает контроллеру текст поля ввода и показывает предупреждения
type fieldInput struct{ m *Model }

func (f fieldInput) Text() string    { return f.m.input.Value() }
func (f fieldInput) Clear()          { f.m.input.SetValue("") }
func (f fieldInput) Warn(msg string) { f.m.status = msg }
