package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"spinlab/internal/consent"
	"spinlab/internal/game"
	"spinlab/internal/viewmodel"
	"spinlab/internal/wheel"
	"spinlab/views/pages"
)

type HomeHandler struct {
	Deps
}

func NewHomeHandler(d Deps) *HomeHandler {
	return &HomeHandler{Deps: d}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/consent", h.acceptConsent)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	snap := sess.Snapshot(h.now())
	render(w, r, pages.HomePage(h.homePage(r, sess, snap)))
}

// acceptConsent records the banner acceptance in the cookie and the store.
// Declining never reaches the server; the banner just hides for the page.
func (h *HomeHandler) acceptConsent(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	http.SetCookie(w, &http.Cookie{
		Name:     consent.Key(h.Brand),
		Value:    "true",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(consent.TTL),
	})
	if h.Consent != nil {
		if err := h.Consent.Give(r.Context(), sess.ID); err != nil {
			h.logger().Warn("store consent", zap.String("session", sess.ID), zap.Error(err))
		}
	}
	done(w, r)
}

func (d Deps) homePage(r *http.Request, sess *game.Session, snap game.Snapshot) viewmodel.HomePage {
	catalog := d.Store.Catalog()
	prizes := make([]viewmodel.PrizeEntry, 0, len(catalog))
	for _, p := range catalog {
		prizes = append(prizes, viewmodel.PrizeEntry{Label: p.Label, Fill: wheel.FillFor(p.Color)})
	}
	return viewmodel.HomePage{
		Title:     d.Brand + " Spin & Win",
		Brand:     d.Brand,
		WheelSVG:  d.wheelSVG(snap),
		Panel:     d.panel(snap, viewmodel.LeadForm{}),
		Prizes:    prizes,
		StreamURL: "/stream",
		Consent: viewmodel.ConsentBanner{
			Key:     consent.Key(d.Brand),
			Visible: !d.consentGiven(r, sess.ID),
		},
	}
}

// consentGiven is read once per page load: the cookie first, then the store.
func (d Deps) consentGiven(r *http.Request, visitor string) bool {
	if cookie, err := r.Cookie(consent.Key(d.Brand)); err == nil && cookie.Value == "true" {
		return true
	}
	if d.Consent == nil {
		return false
	}
	given, err := d.Consent.Given(r.Context(), visitor)
	if err != nil {
		d.logger().Warn("read consent", zap.String("session", visitor), zap.Error(err))
		return false
	}
	return given
}
