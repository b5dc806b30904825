// Package render turns the task collection into something a user can see.
//
// The controller hands a [Frame] to a [Renderer] after every change. Every
// renderer rebuilds its output from scratch; nothing is diffed. [NewView]
// holds the presentation rules shared by all renderers (remaining-count
// label, empty state, active filter, date line), so the HTML page and the
// terminal show the same thing.
package render

import (
	"fmt"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/filter"
	"github.com/BuzzLyutic/tasklist/internal/model"
)

// Renderer displays a frame, replacing whatever it displayed before.
type Renderer interface {
	Render(f Frame) error
}

// Frame is the input to a render pass.
type Frame struct {
	Visible  []model.Task // filtered subset, insertion order
	All      []model.Task // full collection, used for the remaining count
	Mode     model.Mode
	Removing map[int64]bool // rows waiting for deferred removal
	Now      time.Time
}

type Row struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Removing  bool   `json:"removing,omitempty"`
}

type FilterControl struct {
	Mode   model.Mode `json:"mode"`
	Label  string     `json:"label"`
	Active bool       `json:"active"`
}

// View is the presentation model of one frame.
type View struct {
	Rows      []Row           `json:"rows"`
	Remaining int             `json:"remaining"`
	ItemsLeft string          `json:"items_left"`
	Empty     bool            `json:"empty"`
	Mode      model.Mode      `json:"mode"`
	Filters   []FilterControl `json:"filters"`
	Date      string          `json:"date"`
	Pending   bool            `json:"pending"`
}

func NewView(f Frame) View {
	mode := f.Mode
	if mode == "" {
		mode = model.ModeAll
	}

	v := View{
		Rows:    make([]Row, 0, len(f.Visible)),
		Empty:   len(f.Visible) == 0,
		Mode:    mode,
		Filters: make([]FilterControl, 0, 3),
		Date:    DateLabel(f.Now),
	}
	for _, t := range f.Visible {
		removing := f.Removing[t.ID]
		v.Rows = append(v.Rows, Row{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			Removing:  removing,
		})
		v.Pending = v.Pending || removing
	}
	v.Remaining = filter.Remaining(f.All)
	v.ItemsLeft = ItemsLeft(v.Remaining)

	for _, m := range model.Modes() {
		v.Filters = append(v.Filters, FilterControl{Mode: m, Label: m.Label(), Active: m == mode})
	}
	return v
}

// ItemsLeft formats the remaining-count label: "1 item left", "3 items left".
func ItemsLeft(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}

// DateLabel formats t as long weekday, short month and day: "Thursday, Oct 15".
func DateLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Monday, Jan 2")
}
