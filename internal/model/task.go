package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMode = errors.New("unknown filter mode")

type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Mode - текущий режим отображения списка. Нулевое значение равно ModeAll.
type Mode string

const (
	ModeAll       Mode = "all"
	ModeActive    Mode = "active"
	ModeCompleted Mode = "completed"
)

// Modes возвращает режимы в порядке отображения переключателей
func Modes() []Mode {
	return []Mode{ModeAll, ModeActive, ModeCompleted}
}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAll, ModeActive, ModeCompleted:
		return m, nil
	case "":
		return ModeAll, nil
	default:
		return ModeAll, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	if m == "" {
		return string(ModeAll)
	}
	return string(m)
}

// Label - подпись переключателя фильтра
func (m Mode) Label() string {
	switch m {
	case ModeActive:
		return "Active"
	case ModeCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// Matches сообщает, попадает ли задача в выборку для режима
func (m Mode) Matches(t Task) bool {
	switch m {
	case ModeActive:
		return !t.Completed
	case ModeCompleted:
		return t.Completed
	default:
		return true
	}
}
