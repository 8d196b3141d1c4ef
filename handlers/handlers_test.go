package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wanderplan/database"
	"wanderplan/planner"
	"wanderplan/services"
)

// ─── Fakes ────────────────────────────────────────────────────────────────────

type memPlans struct {
	mu    sync.Mutex
	plans map[string]*database.SavedPlan
	err   error
}

func (m *memPlans) SavePlan(_ context.Context, ownerID, title string, doc any, total float64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.plans == nil {
		m.plans = map[string]*database.SavedPlan{}
	}
	id := "plan-" + string(rune('a'+len(m.plans)))
	m.plans[id] = &database.SavedPlan{ID: id, OwnerID: ownerID, Title: title, Document: body, TotalPrice: total}
	return id, nil
}

func (m *memPlans) GetPlan(_ context.Context, id string) (*database.SavedPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return p, nil
}

type chanNotifier chan services.Notification

func (c chanNotifier) Notify(_ context.Context, n services.Notification) error {
	c <- n
	return nil
}

// slowNarrator answers only after a long delay unless its context ends first.
type slowNarrator struct{}

func (slowNarrator) Narrate(ctx context.Context, _ *planner.GeneratedItinerary) string {
	select {
	case <-ctx.Done():
		return "fallback overview"
	case <-time.After(10 * time.Second):
		return "model overview"
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

// ─── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	router   *gin.Engine
	handler  *Handler
	plans    *memPlans
	notified chanNotifier
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{plans: &memPlans{}, notified: make(chanNotifier, 4)}
	deps := Deps{
		Builder:  planner.NewBuilder(planner.DefaultCostModel(), zap.NewNop()),
		Packages: planner.NewPackageGenerator(planner.DefaultPackagePolicy()),
		Plans:    env.plans,
		Notifier: env.notified,
		Logger:   zap.NewNop(),
		Checks:   map[string]Pinger{"database": pinger{}},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.handler = New(deps)
	env.router = gin.New()
	env.handler.Register(env.router)
	return env
}

func (e *testEnv) do(method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var dubaiLondon = planner.TripRequest{
	Destinations: []string{"Dubai", "London"},
	StartDate:    "2025-05-01",
	EndDate:      "2025-05-10",
	Budget:       1200,
	Travellers:   1,
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/itineraries", dubaiLondon)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[ItineraryResponse](t, w).SessionID
}

// ─── Itineraries ──────────────────────────────────────────────────────────────

func TestCreateItinerary(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/itineraries", dubaiLondon)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decode[ItineraryResponse](t, w)
	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Itinerary)
	assert.Equal(t, 10, resp.Itinerary.TotalDays)
	assert.Equal(t, 2400.0, resp.Itinerary.Totals.GrandTotal)
	assert.Equal(t, planner.OverBudget, resp.Itinerary.BudgetStatus)
	assert.Empty(t, resp.Narrative)
}

func TestCreateItineraryValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/itineraries", planner.TripRequest{Destinations: []string{" ", ""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "destinations")

	req := httptest.NewRequest(http.MethodPost, "/api/itineraries", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateItineraryBoundsNarrator(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Narrator = slowNarrator{}
		d.NarrativeTimeout = 50 * time.Millisecond
	})

	start := time.Now()
	w := env.do(http.MethodPost, "/api/itineraries", dubaiLondon)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, "fallback overview", decode[ItineraryResponse](t, w).Narrative)
}

func TestBudgetFitAndReset(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	w := env.do(http.MethodPost, "/api/itineraries/"+id+"/budget", BudgetRequest{Budget: 1200})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fit := decode[BudgetResponse](t, w)
	assert.False(t, fit.Fits)
	assert.True(t, fit.Scaled)
	assert.Equal(t, 1300.0, fit.Plan.Totals.GrandTotal)
	assert.Equal(t, -100.0, fit.Difference)

	// a second fit starts again from the snapshot
	w = env.do(http.MethodPost, "/api/itineraries/"+id+"/budget", BudgetRequest{Budget: 5000})
	require.Equal(t, http.StatusOK, w.Code)
	fit = decode[BudgetResponse](t, w)
	assert.True(t, fit.Fits)
	assert.Equal(t, 2400.0, fit.Plan.Totals.GrandTotal)

	w = env.do(http.MethodPost, "/api/itineraries/"+id+"/budget", BudgetRequest{Budget: 1200})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/itineraries/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cur := decode[ItineraryResponse](t, w)
	assert.Equal(t, 1300.0, cur.Itinerary.Totals.GrandTotal)
	require.NotNil(t, cur.LastFit)

	w = env.do(http.MethodPost, "/api/itineraries/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2400.0, decode[ItineraryResponse](t, w).Itinerary.Totals.GrandTotal)

	w = env.do(http.MethodGet, "/api/itineraries/"+id, nil)
	cur = decode[ItineraryResponse](t, w)
	assert.Equal(t, 2400.0, cur.Itinerary.Totals.GrandTotal)
	assert.Nil(t, cur.LastFit)
}

func TestBudgetErrors(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	w := env.do(http.MethodPost, "/api/itineraries/"+id+"/budget", BudgetRequest{Budget: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/itineraries/nope/budget", BudgetRequest{Budget: 100})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/itineraries/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ─── Save / PDF ───────────────────────────────────────────────────────────────

func TestSaveRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	w := env.do(http.MethodPost, "/api/itineraries/"+id+"/save", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSaveNotifiesAndRendersPDF(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	env.do(http.MethodPost, "/api/itineraries/"+id+"/budget", BudgetRequest{Budget: 1200})

	w := env.do(http.MethodPost, "/api/itineraries/"+id+"/save", SaveRequest{TravellerName: "Sam"},
		"Authorization", "Bearer token")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[SaveResponse](t, w)
	assert.Equal(t, "/api/plans/"+saved.PlanID+"/pdf", saved.PDFURL)

	select {
	case n := <-env.notified:
		assert.Equal(t, services.EventPlanSaved, n.Type)
		assert.Equal(t, saved.PlanID, n.PlanID)
		assert.Equal(t, services.LocalUserID, n.OwnerID)
		assert.Equal(t, 1300.0, n.TotalPrice)
		assert.Equal(t, saved.PDFURL, n.Data["pdf_url"])
	case <-time.After(2 * time.Second):
		t.Fatal("no notification sent")
	}

	plan, err := env.plans.GetPlan(context.Background(), saved.PlanID)
	require.NoError(t, err)
	var doc SavedDocument
	require.NoError(t, json.Unmarshal(plan.Document, &doc))
	assert.Equal(t, "Sam", doc.TravellerName)
	require.NotNil(t, doc.BudgetFit)
	assert.Nil(t, doc.BudgetFit.Plan)

	w = env.do(http.MethodGet, saved.PDFURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = env.do(http.MethodGet, "/api/plans/missing/pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveStorageFailureKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	env.plans.err = errors.New("connection refused")

	w := env.do(http.MethodPost, "/api/itineraries/"+id+"/save", nil, "Authorization", "Bearer token")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = env.do(http.MethodGet, "/api/itineraries/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.notified)
}

// ─── Packages ─────────────────────────────────────────────────────────────────

func TestBuildPackage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/packages", planner.PackageRequest{Destination: "Goa", Budget: 20000, Days: 3, Travellers: 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pkg := decode[planner.TripPackage](t, w)
	assert.False(t, pkg.Affordable)
	assert.Equal(t, 26500.0, pkg.MinimumViableCost)
	assert.NotEmpty(t, pkg.Alternatives)

	w = env.do(http.MethodPost, "/api/packages", planner.PackageRequest{Destination: "Goa", Budget: -1, Days: 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/packages/pdf", planner.PackageRequest{Destination: "Goa", Budget: 20000, Days: 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

// ─── Health / metrics ─────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])

	env.handler.Checks["database"] = pinger{err: errors.New("down")}
	body = decode[map[string]any](t, env.do(http.MethodGet, "/api/health", nil))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "error: down", body["database"])
}

func TestHealthReportsUninitializedStorage(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Checks = map[string]Pinger{"database": pinger{}, "plans": nil}
	})
	body := decode[map[string]any](t, env.do(http.MethodGet, "/api/health", nil))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "not initialized", body["plans"])
	assert.Equal(t, "ok", body["database"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createSession(t)
	env.do(http.MethodPost, "/api/packages", planner.PackageRequest{Destination: "Goa", Budget: 20000, Days: 3})

	w := env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()
	assert.Contains(t, out, `wanderplan_http_requests_total{method="POST",route="/api/itineraries",status="201"} 1`)
	assert.Contains(t, out, `wanderplan_itineraries_generated_total{budget_status="over_budget",degraded="false"} 1`)
	assert.Contains(t, out, `wanderplan_packages_built_total{affordable="false",style="Budget"} 1`)
}

// ─── Sessions ─────────────────────────────────────────────────────────────────

func TestSessionStoreExpiry(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore(time.Hour)
	s.now = func() time.Time { return now }

	a := s.Add(planner.NewSession(nil), "")
	b := s.Add(planner.NewSession(nil), "")

	now = now.Add(45 * time.Minute)
	require.NoError(t, s.With(a, func(*sessionEntry) error { return nil }))

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.ErrorIs(t, s.With(b, func(*sessionEntry) error { return nil }), ErrSessionNotFound)

	now = now.Add(2 * time.Hour)
	assert.ErrorIs(t, s.With(a, func(*sessionEntry) error { return nil }), ErrSessionNotFound)
	assert.Equal(t, 0, s.Len())
}
