package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"spinlab/internal/game"
	"spinlab/internal/lead"
	"spinlab/internal/viewmodel"
	"spinlab/internal/wheel"
	"spinlab/views/components"
	"spinlab/views/pages"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const keepAliveInterval = 25 * time.Second

type GameHandler struct {
	Deps
}

func NewGameHandler(d Deps) *GameHandler {
	return &GameHandler{Deps: d}
}

// RegisterRoutes mounts the session actions and fragments.
func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Post("/spin", h.spin)
	r.Post("/reset", h.reset)
	r.Post("/abandon", h.abandon)
	r.Post("/lead", h.submitLead)
	r.Get("/panel", h.panelFragment)
	r.Get("/wheel.svg", h.wheelImage)
	r.Get("/voucher.pdf", h.voucher)
}

// RegisterStream mounts the SSE endpoint. It is kept apart so it can sit
// outside the request timeout.
func (h *GameHandler) RegisterStream(r chi.Router) {
	r.Get("/stream", h.stream)
}

func (h *GameHandler) spin(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	out, ok := sess.Spin(h.now())
	if ok {
		h.logger().Info("spin",
			zap.String("session", sess.ID),
			zap.Int("index", out.WinningIndex),
			zap.Int("extra_spins", out.ExtraSpins),
			zap.Float64("target_rotation", out.TargetRotation),
		)
		h.Store.EnsureTimerLoop(sess.ID)
		h.Store.Publish(sess.ID, game.EventPhase)
	}
	done(w, r)
}

func (h *GameHandler) reset(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess.Reset(h.now()) {
		h.Store.Publish(sess.ID, game.EventPhase)
	}
	done(w, r)
}

func (h *GameHandler) abandon(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess.Abandon(h.now()) {
		h.Store.Publish(sess.ID, game.EventPhase)
	}
	done(w, r)
}

func (h *GameHandler) submitLead(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	now := h.now()
	rec, err := lead.ParseForm(r.PostForm, now)
	if err != nil {
		snap := sess.Snapshot(now)
		if snap.Phase != game.PhaseCollectingData {
			done(w, r)
			return
		}
		h.logger().Debug("lead rejected", zap.String("session", sess.ID), zap.Error(err))
		data := h.panel(snap, formValues(r.PostForm, err))
		if isFragmentRequest(r) {
			renderStatus(w, r, http.StatusUnprocessableEntity, components.PhasePanel(data))
			return
		}
		home := h.homePage(r, sess, snap)
		home.Panel = data
		renderStatus(w, r, http.StatusUnprocessableEntity, pages.HomePage(home))
		return
	}

	if !sess.Submit(rec, now) {
		done(w, r)
		return
	}
	snap := sess.Snapshot(now)
	prize := ""
	if snap.Winner != nil {
		prize = snap.Winner.Label
	}
	claim, err := h.Leads.Capture(r.Context(), sess.ID, prize, rec)
	if err != nil {
		h.logger().Error("capture lead", zap.String("session", sess.ID), zap.Error(err))
	} else {
		h.logger().Info("lead captured",
			zap.String("session", sess.ID),
			zap.String("claim", claim.ID.String()),
			zap.String("prize", prize),
		)
	}
	h.Store.Publish(sess.ID, game.EventPhase)
	done(w, r)
}

func (h *GameHandler) panelFragment(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	snap := sess.Snapshot(h.now())
	render(w, r, components.PhasePanel(h.panel(snap, viewmodel.LeadForm{})))
}

func (h *GameHandler) wheelImage(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	snap := sess.Snapshot(h.now())
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(wheel.SVG(h.Store.Catalog(), h.Layout, wheel.Motion{Rotation: snap.Rotation})))
}

func (h *GameHandler) voucher(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	snap := sess.Snapshot(h.now())
	if snap.Phase != game.PhaseSuccess || snap.Winner == nil || snap.Record == nil {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	err := wheel.VoucherPDF(&buf, wheel.Voucher{
		Brand:      h.Brand,
		Catalog:    h.Store.Catalog(),
		Layout:     h.Layout,
		Rotation:   snap.Rotation,
		Prize:      snap.Winner.Label,
		RewardCode: h.Leads.RewardCode(),
		Claimant:   snap.Record.FullName,
		IssuedAt:   h.now(),
	})
	if err != nil {
		h.logger().Error("render voucher", zap.String("session", sess.ID), zap.Error(err))
		http.Error(w, "failed to render voucher", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="voucher.pdf"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *GameHandler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sess := h.session(w, r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	hub := h.Store.Broadcaster(sess.ID)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	sendSnapshot := func() {
		snap := sess.Snapshot(h.now())
		payload, err := json.MarshalToString(h.stateView(r, snap))
		if err != nil {
			h.logger().Error("encode state", zap.Error(err))
			return
		}
		writeSSE(w, "state", payload)
		writeSSE(w, "panel", renderToString(r, components.PhasePanel(h.panel(snap, viewmodel.LeadForm{}))))
		flusher.Flush()
	}

	sendSnapshot()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-sub:
			if event == game.EventPhase {
				sendSnapshot()
			}
		case <-keepAlive.C:
			// An open stream keeps the session from being swept.
			sess.Touch(h.now())
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func renderToString(r *http.Request, component templ.Component) string {
	var buf bytes.Buffer
	_ = component.Render(r.Context(), &buf)
	return buf.String()
}

func writeSSE(w http.ResponseWriter, event string, data string) {
	_, _ = w.Write([]byte("event: " + event + "\n"))
	for _, line := range strings.Split(data, "\n") {
		_, _ = w.Write([]byte("data: " + line + "\n"))
	}
	_, _ = w.Write([]byte("\n"))
}
