package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"spinlab/internal/game"
	"spinlab/internal/wheel"
)

// APIHandler serves the JSON view of the session and the catalog.
type APIHandler struct {
	Deps
}

func NewAPIHandler(d Deps) *APIHandler {
	return &APIHandler{Deps: d}
}

func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/state", h.state)
	r.Get("/catalog", h.catalog)
}

type stateView struct {
	Session     string     `json:"session"`
	Phase       game.Phase `json:"phase"`
	Rotation    float64    `json:"rotation"`
	DurationMs  int64      `json:"durationMs"`
	Spins       int        `json:"spins"`
	Epoch       uint64     `json:"epoch"`
	WinnerIndex int        `json:"winnerIndex"`
	Prize       string     `json:"prize,omitempty"`
	RewardCode  string     `json:"rewardCode,omitempty"`
	VoucherURL  string     `json:"voucherUrl,omitempty"`
	NextTimerAt *time.Time `json:"nextTimerAt,omitempty"`
}

type prizeView struct {
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Fill   string  `json:"fill"`
	Weight float64 `json:"weight"`
}

type catalogView struct {
	Brand      string      `json:"brand"`
	SliceAngle float64     `json:"sliceAngle"`
	Weighted   bool        `json:"weighted"`
	Prizes     []prizeView `json:"prizes"`
}

func (d Deps) stateView(r *http.Request, snap game.Snapshot) stateView {
	v := stateView{
		Session:     snap.ID,
		Phase:       snap.Phase,
		Rotation:    snap.Rotation,
		DurationMs:  snap.SpinDuration.Milliseconds(),
		Spins:       snap.Spins,
		Epoch:       snap.Epoch,
		WinnerIndex: snap.WinnerIndex,
	}
	if snap.Winner != nil {
		v.Prize = snap.Winner.Label
	}
	if snap.Phase == game.PhaseSuccess {
		v.RewardCode = d.Leads.RewardCode()
		v.VoucherURL = d.absoluteURL(r, "/voucher.pdf")
	}
	if !snap.NextTimerAt.IsZero() {
		at := snap.NextTimerAt
		v.NextTimerAt = &at
	}
	return v
}

func (h *APIHandler) state(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	writeJSON(w, h.stateView(r, sess.Snapshot(h.now())))
}

func (h *APIHandler) catalog(w http.ResponseWriter, r *http.Request) {
	catalog := h.Store.Catalog()
	out := catalogView{
		Brand:      h.Brand,
		SliceAngle: catalog.SliceAngle(),
		Weighted:   catalog.Weighted(),
		Prizes:     make([]prizeView, 0, len(catalog)),
	}
	for _, p := range catalog {
		out.Prizes = append(out.Prizes, prizeView{
			Label:  p.Label,
			Color:  p.Color,
			Fill:   wheel.FillFor(p.Color),
			Weight: p.EffectiveWeight(),
		})
	}
	writeJSON(w, out)
}
