package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"
)

//go:embed assets/page.html assets/app.css
var assets embed.FS

// Page renders the HTML document of the web surface. It keeps the last
// document it built, the draft shown in the input box and a one-shot
// warning banner.
type Page struct {
	mu    sync.RWMutex
	tmpl  *template.Template
	last  View
	draft string
	flash string
	doc   []byte
}

type pageData struct {
	View    View
	Draft   string
	Warning string
}

func NewPage() (*Page, error) {
	tmpl, err := template.ParseFS(assets, "assets/page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	p := &Page{tmpl: tmpl, last: NewView(Frame{})}
	if err := p.rebuild(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Page) Render(f Frame) error {
	v := NewView(f)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = v
	return p.rebuild()
}

// rebuild вызывается под p.mu
func (p *Page) rebuild() error {
	var buf bytes.Buffer
	err := p.tmpl.Execute(&buf, pageData{View: p.last, Draft: p.draft, Warning: p.flash})
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	p.doc = buf.Bytes()
	return nil
}

// Document возвращает текущий документ. Предупреждение показывается один раз.
func (p *Page) Document() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc := p.doc
	if p.flash != "" {
		p.flash = ""
		if err := p.rebuild(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (p *Page) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

func (p *Page) Warn(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flash = msg
	_ = p.rebuild()
}

func (p *Page) SetDraft(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = text
	_ = p.rebuild()
}

func (p *Page) Draft() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.draft
}

// Stylesheet возвращает CSS страницы
func Stylesheet() []byte {
	b, err := assets.ReadFile("assets/app.css")
	if err != nil {
		panic(err) // embed гарантирует наличие файла
	}
	return b
}
