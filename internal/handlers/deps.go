package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"spinlab/internal/consent"
	"spinlab/internal/game"
	"spinlab/internal/lead"
	"spinlab/internal/viewmodel"
	"spinlab/internal/wheel"
)

// Deps is what every handler needs.
type Deps struct {
	Store   *game.Store
	Leads   *lead.Service
	Consent consent.Store
	Brand   string
	Layout  wheel.Layout
	BaseURL string
	Log     *zap.Logger
	Clock   func() time.Time
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// session returns the visitor's session, creating it and setting the cookie
// when the request carries none or an unknown one.
func (d Deps) session(w http.ResponseWriter, r *http.Request) *game.Session {
	var id string
	if cookie, err := r.Cookie(d.sessionCookieName()); err == nil {
		id = cookie.Value
	}
	sess, created := d.Store.GetOrCreate(id)
	if created || id == "" {
		http.SetCookie(w, &http.Cookie{
			Name:     d.sessionCookieName(),
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  d.now().Add(game.SessionTTL),
		})
		d.logger().Debug("session created", zap.String("session", sess.ID))
	}
	sess.Touch(d.now())
	return sess
}

func (d Deps) sessionCookieName() string {
	return sessionCookieName(d.Brand)
}

func sessionCookieName(brand string) string {
	name := strings.ToLower(strings.Join(strings.Fields(brand), "_"))
	if name == "" {
		name = "spinlab"
	}
	return name + "_session"
}

func (d Deps) absoluteURL(r *http.Request, path string) string {
	if d.BaseURL != "" {
		return d.BaseURL + path
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}

func (d Deps) wheelSVG(snap game.Snapshot) string {
	return wheel.SVG(d.Store.Catalog(), d.Layout, wheel.Motion{
		Rotation: snap.Rotation,
		Duration: snap.SpinDuration,
	})
}

func (d Deps) panel(snap game.Snapshot, form viewmodel.LeadForm) viewmodel.PhasePanel {
	data := viewmodel.PhasePanel{
		Phase:          string(snap.Phase),
		Rotation:       snap.Rotation,
		SpinDurationMs: snap.SpinDuration.Milliseconds(),
		Form:           withOptions(form),
	}
	if snap.Winner != nil {
		data.Prize = snap.Winner.Label
		data.PrizeFill = wheel.FillFor(snap.Winner.Color)
	}
	if snap.Phase == game.PhaseSuccess {
		data.RewardCode = d.Leads.RewardCode()
		data.VoucherURL = "/voucher.pdf"
		if snap.Record != nil {
			data.Claimant = snap.Record.FullName
		}
	}
	return data
}

func withOptions(form viewmodel.LeadForm) viewmodel.LeadForm {
	form.Sizes = make([]viewmodel.Option, 0, len(lead.Sizes))
	for _, s := range lead.Sizes {
		form.Sizes = append(form.Sizes, viewmodel.Option{Value: string(s), Label: string(s)})
	}
	form.Fits = make([]viewmodel.Option, 0, len(lead.Fits))
	for _, f := range lead.Fits {
		form.Fits = append(form.Fits, viewmodel.Option{Value: string(f), Label: strings.ToUpper(string(f[:1])) + string(f[1:])})
	}
	if form.Size == "" {
		form.Size = string(lead.SizeM)
	}
	if form.Fit == "" {
		form.Fit = string(lead.FitRegular)
	}
	return form
}

// formValues echoes a rejected submission back into the form.
func formValues(values url.Values, err error) viewmodel.LeadForm {
	return viewmodel.LeadForm{
		Error:      leadErrorMessage(err),
		FullName:   values.Get("full_name"),
		Email:      values.Get("email"),
		Phone:      values.Get("phone"),
		Occupation: values.Get("occupation"),
		Address:    values.Get("address"),
		Gender:     values.Get("gender"),
		Religion:   values.Get("religion"),
		BirthDate:  values.Get("birth_date"),
		Size:       values.Get("size"),
		Fit:        values.Get("fit"),
		Consent:    values.Get("consent") != "",
	}
}

func leadErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, lead.ErrMissingName):
		return "Please enter your full name."
	case errors.Is(err, lead.ErrMissingEmail), errors.Is(err, lead.ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, lead.ErrMissingPhone):
		return "Please enter your phone number."
	case errors.Is(err, lead.ErrInvalidSize):
		return "Please pick a size."
	case errors.Is(err, lead.ErrInvalidFit):
		return "Please pick a style."
	case errors.Is(err, lead.ErrInvalidBirth):
		return "Please enter a valid date of birth."
	case errors.Is(err, lead.ErrConsentMissing):
		return "Please accept the data collection terms to claim your prize."
	case errors.Is(err, lead.ErrFieldTooLong):
		return "One of the fields is too long."
	default:
		return "Something went wrong, please try again."
	}
}

func isFragmentRequest(r *http.Request) bool {
	return r.Header.Get("Hx-Request") == "true"
}

// done finishes a POST action: 204 for script requests, redirect otherwise.
func done(w http.ResponseWriter, r *http.Request) {
	if isFragmentRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
