// Package web serves the portal's HTML pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/api"
	"deployment-portal/backend/internal/async"
	"deployment-portal/backend/internal/auth"
	"deployment-portal/backend/internal/services"
	"deployment-portal/backend/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// EmptyFilterMessage is shown when filters exclude every record.
const EmptyFilterMessage = "No records match the current filters"

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Pages renders the portal's HTML pages. It implements echo.Renderer and
// api.HTMLErrorRenderer.
type Pages struct {
	portal    services.Portal
	auth      *auth.Auth
	logger    Logger
	md        goldmark.Markdown
	templates map[string]*template.Template
}

var (
	_ echo.Renderer         = (*Pages)(nil)
	_ api.HTMLErrorRenderer = (*Pages)(nil)
)

var pageFiles = []string{"login", "dashboard", "upload", "cab", "security", "notifications", "error"}

// New parses the page templates.
func New(portal services.Portal, a *auth.Auth, logger Logger) (*Pages, error) {
	p := &Pages{
		portal:    portal,
		auth:      a,
		logger:    logger,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		templates: make(map[string]*template.Template, len(pageFiles)),
	}
	funcs := template.FuncMap{
		"markdown": p.markdown,
		"date":     formatDate,
		"datep":    formatDatePtr,
		"str":      derefString,
		"title":    titleCase,
		"sub":      func(a, b int) int { return a - b },
	}
	for _, name := range pageFiles {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

// Render implements echo.Renderer.
func (p *Pages) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := p.templates[name]
	if !ok {
		return fmt.Errorf("no template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// NavItem is a link in the page header.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

var navLinks = []struct {
	page  access.Page
	label string
	href  string
}{
	{access.PageDashboard, "Dashboard", "/"},
	{access.PageUpload, "Upload Code", "/upload"},
	{access.PageCAB, "CAB Review", "/cab"},
	{access.PageSecurity, "Security", "/security"},
	{access.PageNotifications, "Notifications", "/notifications"},
}

// View is the data every page template receives.
type View struct {
	Title  string
	Active access.Page
	User   *models.User
	Nav    []NavItem
	Banner *async.Message
	Data   any
}

func nav(role models.Role, active access.Page) []NavItem {
	var items []NavItem
	for _, l := range navLinks {
		g, _ := access.ForPage(l.page)
		if g.Allows(role) {
			items = append(items, NavItem{Label: l.label, Href: l.href, Active: l.page == active})
		}
	}
	return items
}

// errorData is the body of the error page.
type errorData struct {
	Status int
	Title  string
	Detail string
}

// RenderError renders a problem as the error page. Access denials show
// the restricted message with the user's role.
func (p *Pages) RenderError(c echo.Context, prob api.ProblemDetails) error {
	v := View{
		Title: prob.Title,
		Data:  errorData{Status: prob.Status, Title: prob.Title, Detail: prob.Detail},
	}
	if st, ok := p.auth.Current(c); ok {
		user := st.User()
		v.User = &user
		v.Nav = nav(user.Role, "")
	}
	if c.Request().Method == http.MethodHead {
		return c.NoContent(prob.Status)
	}
	return c.Render(prob.Status, "error", v)
}

func (p *Pages) markdown(s string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(s), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

const dateLayout = "Jan 2, 2006 15:04"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// titleCase turns "pending-review" into "Pending Review".
func titleCase(v any) string {
	words := strings.FieldsFunc(fmt.Sprint(v), func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
