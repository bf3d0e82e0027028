package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"spinlab/internal/consent"
	"spinlab/internal/game"
	"spinlab/internal/lead"
	"spinlab/internal/wheel"
)

type testApp struct {
	router  http.Handler
	store   *game.Store
	repo    *lead.MemoryRepository
	consent *consent.MemoryStore
	cookies []*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	settings := wheel.DefaultSettings()
	timing := game.Timing{Spin: 20 * time.Millisecond, Reveal: 10 * time.Millisecond}
	store := game.NewStore(settings.Catalog, func() wheel.RNG { return wheel.NewRNG(7) }, game.WithTiming(timing))
	repo := lead.NewMemoryRepository()
	consentStore := consent.NewMemoryStore()
	deps := Deps{
		Store:   store,
		Leads:   lead.NewService(repo, settings.RewardCode),
		Consent: consentStore,
		Brand:   "yuedpao",
		Layout:  wheel.DefaultLayout("Y"),
	}
	r := chi.NewRouter()
	NewHomeHandler(deps).RegisterRoutes(r)
	gh := NewGameHandler(deps)
	gh.RegisterRoutes(r)
	gh.RegisterStream(r)
	r.Route("/api", NewAPIHandler(deps).RegisterRoutes)
	return &testApp{router: r, store: store, repo: repo, consent: consentStore}
}

func (a *testApp) do(t *testing.T, method, target string, form url.Values, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		a.setCookie(c)
	}
	return rec
}

func (a *testApp) setCookie(c *http.Cookie) {
	for i, existing := range a.cookies {
		if existing.Name == c.Name {
			a.cookies[i] = c
			return
		}
	}
	a.cookies = append(a.cookies, c)
}

func (a *testApp) state(t *testing.T) stateView {
	t.Helper()
	rec := a.do(t, http.MethodGet, "/api/state", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/state status %d", rec.Code)
	}
	var v stateView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return v
}

func (a *testApp) waitPhase(t *testing.T, want game.Phase) stateView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		v := a.state(t)
		if v.Phase == want {
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("phase %q, want %q", v.Phase, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func validLead() url.Values {
	return url.Values{
		"full_name": {"Somchai Jaidee"},
		"email":     {"somchai@example.com"},
		"phone":     {"0812345678"},
		"size":      {"L"},
		"fit":       {"oversize"},
		"consent":   {"on"},
	}
}

func TestHome_SetsSessionAndRendersWheel(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if len(app.cookies) == 0 || app.cookies[0].Name != "yuedpao_session" {
		t.Fatalf("cookies %v, want yuedpao_session", app.cookies)
	}
	body := rec.Body.String()
	for _, want := range []string{`class="wheel-rotor"`, `data-phase="idle"`, `action="/spin"`, `id="consent-banner"`, "FREE TEE"} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
}

func TestSpin_FullFlow(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodGet, "/", nil, nil)

	rec := app.do(t, http.MethodPost, "/spin", url.Values{}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /spin status %d, want 303", rec.Code)
	}
	v := app.state(t)
	if v.Phase != game.PhaseSpinning && v.Phase != game.PhaseWon && v.Phase != game.PhaseCollectingData {
		t.Fatalf("phase after spin %q", v.Phase)
	}
	if v.Rotation < float64(wheel.MinExtraSpins*360) {
		t.Errorf("rotation %v, want at least %d", v.Rotation, wheel.MinExtraSpins*360)
	}

	v = app.waitPhase(t, game.PhaseCollectingData)
	if v.Prize == "" || v.WinnerIndex < 0 {
		t.Fatalf("prize %q index %d, want a winner", v.Prize, v.WinnerIndex)
	}
	if got := wheel.PointerIndex(6, v.Rotation); got != v.WinnerIndex {
		t.Errorf("pointer lands on %d, want %d", got, v.WinnerIndex)
	}

	bad := validLead()
	bad.Del("consent")
	rec = app.do(t, http.MethodPost, "/lead", bad, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("POST /lead without consent status %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "accept the data collection terms") {
		t.Error("rejected form should explain the consent error")
	}
	if !strings.Contains(rec.Body.String(), `value="Somchai Jaidee"`) {
		t.Error("rejected form should keep the entered name")
	}

	rec = app.do(t, http.MethodPost, "/lead", validLead(), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /lead status %d, want 303", rec.Code)
	}
	v = app.state(t)
	if v.Phase != game.PhaseSuccess {
		t.Fatalf("phase %q, want success", v.Phase)
	}
	if v.RewardCode != "ULTRA2026" {
		t.Errorf("reward code %q, want ULTRA2026", v.RewardCode)
	}
	claims, _ := app.repo.Recent(context.Background(), 10)
	if len(claims) != 1 || claims[0].Prize != v.Prize {
		t.Fatalf("claims %+v, want one for %q", claims, v.Prize)
	}

	// A second submission is ignored.
	app.do(t, http.MethodPost, "/lead", validLead(), nil)
	claims, _ = app.repo.Recent(context.Background(), 10)
	if len(claims) != 1 {
		t.Errorf("claims %d after resubmit, want 1", len(claims))
	}

	rec = app.do(t, http.MethodGet, "/panel", nil, nil)
	if !strings.Contains(rec.Body.String(), `data-copy="ULTRA2026"`) {
		t.Error("success panel should offer to copy the reward code")
	}

	rec = app.do(t, http.MethodGet, "/voucher.pdf", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /voucher.pdf status %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("voucher is not a PDF")
	}

	app.do(t, http.MethodPost, "/reset", url.Values{}, nil)
	after := app.state(t)
	if after.Phase != game.PhaseIdle {
		t.Errorf("phase after reset %q, want idle", after.Phase)
	}
	if after.Rotation != v.Rotation {
		t.Errorf("rotation after reset %v, want %v", after.Rotation, v.Rotation)
	}
}

func TestSpin_FragmentRequestReturnsNoContent(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodPost, "/spin", url.Values{}, map[string]string{"Hx-Request": "true"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("status %d, want 204", rec.Code)
	}
}

func TestSpin_IgnoredWhileSpinning(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/spin", url.Values{}, nil)
	first := app.state(t)
	app.do(t, http.MethodPost, "/spin", url.Values{}, nil)
	second := app.state(t)
	if second.Spins != 1 {
		t.Errorf("spins %d, want 1", second.Spins)
	}
	if second.Rotation != first.Rotation {
		t.Errorf("rotation %v, want %v", second.Rotation, first.Rotation)
	}
}

func TestReset_IgnoredUntilSuccess(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/spin", url.Values{}, nil)
	first := app.state(t)
	for i := 0; i < 5; i++ {
		app.do(t, http.MethodPost, "/reset", url.Values{}, nil)
		app.do(t, http.MethodPost, "/spin", url.Values{}, nil)
	}
	v := app.state(t)
	if v.Spins != 1 || v.Rotation != first.Rotation {
		t.Errorf("spins %d rotation %v, want 1 and %v", v.Spins, v.Rotation, first.Rotation)
	}
	collecting := app.waitPhase(t, game.PhaseCollectingData)
	app.do(t, http.MethodPost, "/reset", url.Values{}, nil)
	if v := app.state(t); v.Phase != game.PhaseCollectingData || v.Prize != collecting.Prize {
		t.Errorf("phase %q prize %q, want collecting_data with %q", v.Phase, v.Prize, collecting.Prize)
	}
}

func TestSweep_DropsCookielessSessions(t *testing.T) {
	app := newTestApp(t)
	const visits = 500
	for i := 0; i < visits; i++ {
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /api/state status %d", rec.Code)
		}
	}
	if got := app.store.Len(); got != visits {
		t.Fatalf("Len %d, want %d", got, visits)
	}
	if n := app.store.Sweep(time.Now().UTC().Add(game.FreshSessionTTL)); n != visits {
		t.Errorf("swept %d, want %d", n, visits)
	}
	if got := app.store.Len(); got != 0 {
		t.Errorf("Len %d after sweep, want 0", got)
	}
}

func TestAbandon_ReturnsToIdle(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/spin", url.Values{}, nil)
	app.waitPhase(t, game.PhaseCollectingData)
	app.do(t, http.MethodPost, "/abandon", url.Values{}, nil)
	if v := app.state(t); v.Phase != game.PhaseIdle {
		t.Errorf("phase %q, want idle", v.Phase)
	}
}

func TestVoucher_NotFoundBeforeSuccess(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/voucher.pdf", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestConsent_AcceptHidesBanner(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodGet, "/", nil, nil)
	rec := app.do(t, http.MethodPost, "/consent", url.Values{}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d, want 303", rec.Code)
	}
	var found bool
	for _, c := range app.cookies {
		if c.Name == "yuedpao-cookie-consent" && c.Value == "true" {
			found = true
		}
	}
	if !found {
		t.Fatal("consent cookie not set")
	}
	body := app.do(t, http.MethodGet, "/", nil, nil).Body.String()
	if strings.Contains(body, `id="consent-banner"`) {
		t.Error("banner should be hidden after acceptance")
	}
}

func TestConsent_StoreRemembersVisitor(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/consent", url.Values{}, nil)
	var kept []*http.Cookie
	for _, c := range app.cookies {
		if c.Name == "yuedpao_session" {
			kept = append(kept, c)
		}
	}
	app.cookies = kept
	body := app.do(t, http.MethodGet, "/", nil, nil).Body.String()
	if strings.Contains(body, `id="consent-banner"`) {
		t.Error("banner should stay hidden when the store has consent")
	}
}

func TestAPI_Catalog(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/api/catalog", nil, nil)
	var v catalogView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Prizes) != 6 {
		t.Fatalf("prizes %d, want 6", len(v.Prizes))
	}
	if v.SliceAngle != 60 {
		t.Errorf("slice angle %v, want 60", v.SliceAngle)
	}
	if v.Prizes[1].Fill != "#e0faff" {
		t.Errorf("fill %q, want #e0faff", v.Prizes[1].Fill)
	}
}

func TestWheelSVG(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/wheel.svg", nil, nil)
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") || !strings.Contains(rec.Body.String(), "wheel-rotor") {
		t.Error("body is not an SVG document")
	}
}

func TestStream_SendsInitialSnapshot(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(app.router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	events := map[string]bool{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(events) < 2 {
		if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
			events[name] = true
		}
	}
	if !events["state"] || !events["panel"] {
		t.Errorf("events %v, want state and panel", events)
	}
}

func TestSessionCookieName(t *testing.T) {
	tests := map[string]string{
		"yuedpao":   "yuedpao_session",
		"Acme Shop": "acme_shop_session",
		"":          "spinlab_session",
	}
	for in, want := range tests {
		if got := sessionCookieName(in); got != want {
			t.Errorf("sessionCookieName(%q) = %q, want %q", in, got, want)
		}
	}
}
