package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/and161185/authsite/internal/model"
)

//go:embed templates
var templateFS embed.FS

var pageNames = []string{"home", "signup", "signin", "protected", "not_found"}

var funcs = template.FuncMap{
	"emailMaxLength":    func() int { return EmailMaxLength },
	"passwordMinLength": func() int { return PasswordMinLength },
	"passwordMaxLength": func() int { return PasswordMaxLength },
}

// pageData is the root value every page template receives.
type pageData struct {
	Principal *model.Principal
	Form      formState
}

type views struct {
	pages map[string]*template.Template
}

// loadViews parses the layout and partials once per page so each page can define its own content block.
func loadViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials/*.html",
			"templates/pages/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// render executes block of page into a buffer first so template failures never emit a partial body.
func (v *views) render(w http.ResponseWriter, status int, page, block string, data pageData) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		return fmt.Errorf("render %s/%s: %w", page, block, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
