package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin/render"

	"basecode-go/pkg/model"
)

//go:embed all:templates static
var files embed.FS

const (
	layoutTemplate  = "layout"
	contentTemplate = "content"
)

// Renderer renders pages inside the shared layout. It implements gin's render.HTMLRender.
type Renderer struct {
	pages map[string]*template.Template
}

// Funcs are the helpers available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"sortDirection": model.GetSortDirection,
		"sortIcon":      model.GetSortIcon,
		"add":           func(a, b int) int { return a + b },
		"sub":           func(a, b int) int { return a - b },
		"deletePrompt":  func(name string) string { return fmt.Sprintf(model.DeletePrompt, name) },
	}
}

// NewRenderer parses the layout, the shared partials and every page.
// A page is addressed by its path without extension, e.g. "region/list".
// Pages whose file name starts with an underscore are partials and render without the layout.
func NewRenderer() (*Renderer, error) {
	base, err := template.New(layoutTemplate).Funcs(Funcs()).ParseFS(files, "templates/layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	err = fs.WalkDir(files, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" || strings.HasPrefix(p, "templates/layout/") {
			return nil
		}

		page, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := page.ParseFS(files, p); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".html")
		r.pages[name] = page
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Instance implements render.HTMLRender
func (r *Renderer) Instance(name string, data any) render.Render {
	page, ok := r.pages[name]
	if !ok {
		return missingPage(name)
	}

	entry := layoutTemplate
	if strings.HasPrefix(path.Base(name), "_") {
		entry = contentTemplate
	}
	return render.HTML{Template: page, Name: entry, Data: data}
}

// Has reports whether a page is registered
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

type missingPage string

func (m missingPage) Render(w http.ResponseWriter) error {
	m.WriteContentType(w)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, http.StatusText(http.StatusInternalServerError))
	return fmt.Errorf("template %q not found", string(m))
}

func (m missingPage) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
}

// Static serves the embedded css and js
func Static() http.FileSystem {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
