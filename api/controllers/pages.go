package controllers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/marketdesk/marketdesk/api/middleware"
	"github.com/marketdesk/marketdesk/api/responses"
	"github.com/marketdesk/marketdesk/api/views"
	"github.com/marketdesk/marketdesk/pkg/logger"
)

type pageRenderer interface {
	Render(w io.Writer, name string, page views.Page) error
}

// Pages renders templates with the per-request chrome: the signed-in user,
// pending flashes and the CSRF field.
type Pages struct {
	templates pageRenderer
	flasher   *responses.Flasher
	logg      *logger.Logger
}

func NewPages(templates pageRenderer, flasher *responses.Flasher, logg *logger.Logger) *Pages {
	return &Pages{templates: templates, flasher: flasher, logg: logg}
}

// Render writes the named page with a 200 status.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	page := views.Page{
		Title:     title,
		User:      middleware.SessionFromContext(r.Context()),
		Flashes:   p.flasher.Pop(w, r),
		CSRFField: csrf.TemplateField(r),
		Data:      data,
	}

	var buf bytes.Buffer
	if err := p.templates.Render(&buf, name, page); err != nil {
		p.ServerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ServerError answers a GET that cannot be rendered. Redirecting here could
// loop back to the same failing page.
func (p *Pages) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	if p.logg != nil {
		responses.LogError(r.Context(), p.logg, "page.error", err)
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Fail redirects with a flash describing err.
func (p *Pages) Fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	responses.Fail(w, r, p.flasher, p.logg, err, back)
}

// Success flashes message and redirects to target.
func (p *Pages) Success(w http.ResponseWriter, r *http.Request, message, target string) {
	p.flasher.Add(w, r, responses.FlashSuccess, message)
	responses.Redirect(w, r, target)
}

// Notice flashes an informational message and redirects to target.
func (p *Pages) Notice(w http.ResponseWriter, r *http.Request, message, target string) {
	p.flasher.Add(w, r, responses.FlashInfo, message)
	responses.Redirect(w, r, target)
}
