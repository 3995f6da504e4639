package handler

import (
	"encoding/gob"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"basecode-go/internal/middleware"
	"basecode-go/pkg/model"
)

func init() {
	gob.Register(Flash{})
}

// Page is the data every template receives
type Page struct {
	Title     string
	User      *model.AppUser
	CSRFField template.HTML
	RequestID string
	Flash     *Flash
	ReturnURL string

	// Summary holds form-level errors, Errors holds per-field errors keyed by struct field name
	Summary []string
	Errors  map[string]string

	Data any
}

// FieldError returns the error shown under a form field
func (p *Page) FieldError(field string) string {
	return p.Errors[field]
}

// AddError appends a form-level error
func (p *Page) AddError(message string) {
	if message == "" {
		return
	}
	p.Summary = append(p.Summary, message)
}

// AddValidationResults appends business rule failures
func (p *Page) AddValidationResults(results ...model.ValidationResult) {
	for _, r := range results {
		p.AddError(r.Message)
	}
}

// AddIdentityErrors appends identity failures
func (p *Page) AddIdentityErrors(result model.IdentityResult) {
	for _, e := range result.Errors {
		p.AddError(e.Description)
	}
}

func newPage(c *gin.Context, title string, data any) *Page {
	p := newPartial(c, title, data)
	p.Flash = popFlash(c)
	return p
}

// newPartial builds the data of a fragment loaded into an open page. The pending flash stays for the next full page.
func newPartial(c *gin.Context, title string, data any) *Page {
	return &Page{
		Title:     title,
		User:      middleware.CurrentUser(c),
		CSRFField: csrf.TemplateField(c.Request),
		RequestID: c.GetString(middleware.RequestIDKey),
		Errors:    map[string]string{},
		Data:      data,
	}
}

// Flash is a one-shot message shown in a modal on the next page
type Flash struct {
	Title   string
	Message string
}

func flashSession(c *gin.Context) sessions.Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	return sessions.Default(c)
}

func setFlash(c *gin.Context, title, message string) {
	s := flashSession(c)
	if s == nil {
		return
	}
	s.AddFlash(Flash{Title: title, Message: message})
	if err := s.Save(); err != nil {
		_ = c.Error(err)
	}
}

// popFlash returns the latest pending flash and clears the queue
func popFlash(c *gin.Context) *Flash {
	s := flashSession(c)
	if s == nil {
		return nil
	}
	flashes := s.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := s.Save(); err != nil {
		_ = c.Error(err)
	}

	f, ok := flashes[len(flashes)-1].(Flash)
	if !ok || f.Message == "" {
		return nil
	}
	return &f
}

// isLocalURL accepts only same-site absolute paths such as "/Region/List"
func isLocalURL(raw string) bool {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return false
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func redirectToLocal(c *gin.Context, returnURL string) {
	if isLocalURL(returnURL) {
		c.Redirect(http.StatusFound, returnURL)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

const errorPage = "home/error"

// renderError shows the error page with message, or the generic text when message is empty
func renderError(c *gin.Context, status int, message string) {
	p := newPage(c, "Error", nil)
	if message != "" {
		p.Data = message
	}
	c.HTML(status, errorPage, p)
}
