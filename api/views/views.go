// Package views renders the embedded HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/marketdesk/marketdesk/pkg/auth/session"
	"github.com/marketdesk/marketdesk/pkg/enums"
)

const (
	layoutName    = "layout.html"
	partialPrefix = "_"
)

//go:embed templates/*.html
var embedded embed.FS

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Type    string
	Message string
}

// Page is the data every template receives.
type Page struct {
	Title     string
	User      *session.Data
	Flashes   []Flash
	CSRFField template.HTML
	Data      any
}

// TemplateCache holds one parsed template set per page.
type TemplateCache struct {
	mu    sync.RWMutex
	cache map[string]*template.Template
	funcs template.FuncMap
}

// NewTemplateCache parses the embedded templates.
func NewTemplateCache() (*TemplateCache, error) {
	tc := &TemplateCache{
		cache: make(map[string]*template.Template),
		funcs: template.FuncMap{
			"sorts":      enums.InventorySorts,
			"sortLabel":  sortLabel,
			"hasRole":    hasRole,
			"isSelected": func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
		},
	}
	if err := tc.load(embedded); err != nil {
		return nil, err
	}
	return tc, nil
}

func (tc *TemplateCache) load(fsys fs.FS) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return err
	}
	shared := []string{"templates/" + layoutName}
	var pages []string
	for _, file := range files {
		name := path.Base(file)
		switch {
		case name == layoutName:
		case strings.HasPrefix(name, partialPrefix):
			shared = append(shared, file)
		default:
			pages = append(pages, file)
		}
	}

	for _, file := range pages {
		name := path.Base(file)
		patterns := append(append([]string{}, shared...), file)
		tmpl, err := template.New(layoutName).Funcs(tc.funcs).ParseFS(fsys, patterns...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		tc.cache[name] = tmpl
	}
	return nil
}

// Has reports whether a page template exists.
func (tc *TemplateCache) Has(name string) bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	_, ok := tc.cache[name]
	return ok
}

// Render executes the named page into w. Output is buffered so a failing
// template never writes a partial page.
func (tc *TemplateCache) Render(w io.Writer, name string, page Page) error {
	tc.mu.RLock()
	tmpl, ok := tc.cache[name]
	tc.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutName, page); err != nil {
		return fmt.Errorf("rendering template %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func sortLabel(sort enums.InventorySort) string {
	switch sort {
	case enums.InventorySortNameAsc:
		return "Name (A-Z)"
	case enums.InventorySortNameDesc:
		return "Name (Z-A)"
	case enums.InventorySortPriceAsc:
		return "Price (low to high)"
	case enums.InventorySortPriceDesc:
		return "Price (high to low)"
	case enums.InventorySortDateAsc:
		return "Oldest first"
	}
	return "Newest first"
}

func hasRole(user *session.Data, roles ...string) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if strings.EqualFold(string(user.Role), role) {
			return true
		}
	}
	return false
}
