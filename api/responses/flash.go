package responses

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/marketdesk/marketdesk/api/views"
	"github.com/marketdesk/marketdesk/pkg/config"
	"github.com/marketdesk/marketdesk/pkg/logger"
)

const flashCookieName = "marketdesk_flash"

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

func init() {
	gob.Register(views.Flash{})
}

// Flasher keeps one-shot notices in a signed cookie between a redirect and
// the page that follows it.
type Flasher struct {
	store sessions.Store
	logg  *logger.Logger
}

// NewFlasher builds a cookie-backed flash store keyed by the session secret.
func NewFlasher(cfg config.SessionConfig, logg *logger.Logger) *Flasher {
	keys := [][]byte{[]byte(cfg.Secret)}
	if cfg.EncryptionKey != "" {
		keys = append(keys, []byte(cfg.EncryptionKey))
	}
	store := sessions.NewCookieStore(keys...)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cfg.TTL.Seconds()),
	}
	return &Flasher{store: store, logg: logg}
}

// Add queues a notice for the next rendered page.
func (f *Flasher) Add(w http.ResponseWriter, r *http.Request, kind, message string) {
	if f == nil || message == "" {
		return
	}
	sess, _ := f.store.Get(r, flashCookieName)
	sess.AddFlash(views.Flash{Type: kind, Message: message})
	if err := sess.Save(r, w); err != nil && f.logg != nil {
		f.logg.Error(r.Context(), "failed to save flash", err)
	}
}

// Pop returns and clears the queued notices.
func (f *Flasher) Pop(w http.ResponseWriter, r *http.Request) []views.Flash {
	if f == nil {
		return nil
	}
	sess, _ := f.store.Get(r, flashCookieName)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil && f.logg != nil {
		f.logg.Error(r.Context(), "failed to clear flashes", err)
	}

	out := make([]views.Flash, 0, len(raw))
	for _, item := range raw {
		if flash, ok := item.(views.Flash); ok {
			out = append(out, flash)
		}
	}
	return out
}
