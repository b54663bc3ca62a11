// Package views renders the dashboard's server-side HTML.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/interfaces/http/common"
)

//go:embed templates/*.html
var files embed.FS

// Page names.
const (
	PageHome          = "home"
	PageLogin         = "login"
	PageDashboard     = "dashboard"
	PageCandidates    = "candidates"
	PageNotifications = "notifications"
	PagePolls         = "polls"
	PageQuiz          = "quiz"
	PageFailure       = "failure"
)

var pageNames = []string{
	PageHome, PageLogin, PageDashboard, PageCandidates,
	PageNotifications, PagePolls, PageQuiz, PageFailure,
}

// Page is the data every template receives.
type Page struct {
	Title string
	User  *admindomain.Identity
	// Error is a backend or sign-in message shown inline in place of the page body.
	Error string
	Data  any
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates. Timestamps are shown in loc.
func New(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	funcs := template.FuncMap{
		"fmtTime": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				return formatTime(v, loc)
			case *time.Time:
				if v == nil {
					return ""
				}
				return formatTime(*v, loc)
			}
			return ""
		},
		"dtLocal": func(t time.Time) string {
			return common.FormatDateTimeLocal(t, loc)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		tmpl, err := clone.ParseFS(files, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render executes page name into w. Output is buffered so a template error never leaves a
// half-written response.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("Jan 2, 2006, 3:04 PM MST")
}
