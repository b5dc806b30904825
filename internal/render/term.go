package render

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type termStyles struct {
	title     lipgloss.Style
	date      lipgloss.Style
	cursor    lipgloss.Style
	done      lipgloss.Style
	removing  lipgloss.Style
	filter    lipgloss.Style
	active    lipgloss.Style
	empty     lipgloss.Style
	footer    lipgloss.Style
	container lipgloss.Style
}

func newTermStyles(r *lipgloss.Renderer) termStyles {
	return termStyles{
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		date:      r.NewStyle().Faint(true),
		cursor:    r.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		done:      r.NewStyle().Strikethrough(true).Faint(true),
		removing:  r.NewStyle().Faint(true).Italic(true),
		filter:    r.NewStyle().Padding(0, 1),
		active:    r.NewStyle().Padding(0, 1).Reverse(true),
		empty:     r.NewStyle().Faint(true).Italic(true),
		footer:    r.NewStyle().Faint(true),
		container: r.NewStyle().Padding(1, 2),
	}
}

// Term renders a frame as styled terminal text. Color and attributes depend
// on what the output writer supports, so a pipe or a buffer gets plain text.
type Term struct {
	mu         sync.RWMutex
	styles     termStyles
	showCursor bool
	cursor     int
	last       View
}

func NewTerm(out io.Writer, showCursor bool) *Term {
	return &Term{
		styles:     newTermStyles(lipgloss.NewRenderer(out)),
		showCursor: showCursor,
		last:       NewView(Frame{}),
	}
}

func (t *Term) Render(f Frame) error {
	v := NewView(f)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = v
	t.clamp()
	return nil
}

func (t *Term) clamp() {
	if t.cursor >= len(t.last.Rows) {
		t.cursor = len(t.last.Rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

func (t *Term) View() View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// MoveCursor сдвигает курсор по видимым строкам
func (t *Term) MoveCursor(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor += delta
	t.clamp()
}

func (t *Term) Cursor() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor
}

// Selected возвращает id задачи под курсором
func (t *Term) Selected() (int64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.last.Rows) == 0 {
		return 0, false
	}
	return t.last.Rows[t.cursor].ID, true
}

// String собирает весь экран заново
func (t *Term) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.styles
	v := t.last

	var b strings.Builder
	b.WriteString(s.title.Render("To-Do List"))
	b.WriteString("\n")
	if v.Date != "" {
		b.WriteString(s.date.Render(v.Date))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if v.Empty {
		b.WriteString(s.empty.Render("No tasks here yet."))
		b.WriteString("\n")
	}
	for i, row := range v.Rows {
		b.WriteString(t.row(i, row))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	filters := make([]string, 0, len(v.Filters))
	for _, f := range v.Filters {
		if f.Active {
			filters = append(filters, s.active.Render("["+f.Label+"]"))
		} else {
			filters = append(filters, s.filter.Render(f.Label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, filters...))
	b.WriteString("\n")
	b.WriteString(s.footer.Render(v.ItemsLeft))

	return s.container.Render(b.String())
}

func (t *Term) row(i int, row Row) string {
	s := t.styles

	prefix := ""
	if t.showCursor {
		prefix = "  "
		if i == t.cursor {
			prefix = s.cursor.Render("›") + " "
		}
	}

	box := "[ ] "
	text := row.Text
	if row.Completed {
		box = "[x] "
		text = s.done.Render(text)
	}
	if row.Removing {
		return prefix + s.removing.Render(box+row.Text+" (removing)")
	}
	return prefix + box + text
}
