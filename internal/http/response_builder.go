package http

import (
	"net/http"

	"keuangan/internal/log"
)

// RedirectBuilder assembles the post/redirect/get response of a write
// handler, optionally carrying a flash to the next page.
type RedirectBuilder struct {
	location string
	status   int
	flash    *Flash
}

func NewRedirect(location string) *RedirectBuilder {
	return &RedirectBuilder{location: location, status: http.StatusSeeOther}
}

func (b *RedirectBuilder) Success(msg string) *RedirectBuilder {
	b.flash = &Flash{Type: "success", Msg: msg}
	return b
}

// Send writes the redirect. A flash that cannot be signed is logged and
// dropped; the redirect still happens.
func (b *RedirectBuilder) Send(w http.ResponseWriter, r *http.Request, flashes *FlashStore) {
	if b.flash != nil && flashes != nil {
		if err := flashes.Set(w, *b.flash); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to set flash", "error", err)
		}
	}
	http.Redirect(w, r, b.location, b.status)
}
