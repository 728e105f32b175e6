package responses

import (
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/logger"
)

const (
	HomePath            = "/"
	LoginPath           = "/auth/login"
	SellerDashboardPath = "/seller/dashboard"
)

// Redirect sends a 303 so browsers follow POSTs with a GET.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// LoginURL points at the login page and carries next when it is local.
func LoginURL(next string) string {
	if next = SafeNext(next); next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext returns next only when it is a path on this site.
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	if strings.ContainsAny(next, "\r\n") {
		return ""
	}
	return next
}

// Fail turns err into a flash notice and a redirect. Validation and rate
// limit failures go back to the form; server faults are logged with their
// full chain and shown generically.
func Fail(w http.ResponseWriter, r *http.Request, flasher *Flasher, logg *logger.Logger, err error, back string) {
	if back == "" {
		back = HomePath
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	message := typed.Message()
	if message == "" || isServerFault(typed.Code()) {
		message = meta.PublicMessage
	}

	ctx := r.Context()
	if logg != nil {
		if isServerFault(typed.Code()) {
			LogError(ctx, logg, "request.error", err)
		} else {
			logCtx := logg.WithFields(ctx, map[string]any{
				"error_code": string(typed.Code()),
				"error":      typed.Message(),
				"field":      typed.Field(),
			})
			logg.Info(logCtx, "request.rejected")
		}
	}

	target := back
	switch typed.Code() {
	case pkgerrors.CodeUnauthorized:
		target = LoginURL(r.URL.RequestURI())
	case pkgerrors.CodeForbidden:
		target = HomePath
	case pkgerrors.CodeNotFound:
		target = SellerDashboardPath
	}

	flasher.Add(w, r, FlashError, message)
	Redirect(w, r, target)
}
