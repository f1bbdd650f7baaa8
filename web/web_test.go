package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/facturo/facturo/adapters/clock"
	"github.com/facturo/facturo/adapters/idgen"
	"github.com/facturo/facturo/adapters/memory"
	"github.com/facturo/facturo/adapters/random"
	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/ports"
	"github.com/facturo/facturo/web"
)

// fakeProvider is a deterministic payment provider for handler tests.
type fakeProvider struct {
	event    ports.PaymentEvent
	parseErr error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, ownerID, email, plan, successURL, cancelURL string) (string, error) {
	return "https://pay.test/checkout/" + plan, nil
}

func (p *fakeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://pay.test/portal/" + customerID, nil
}

func (p *fakeProvider) ParseWebhook(payload []byte, signature string) (ports.PaymentEvent, error) {
	if p.parseErr != nil {
		return ports.PaymentEvent{}, p.parseErr
	}
	return p.event, nil
}

// apiEnv wires the full handler over in-memory stores.
type apiEnv struct {
	router     chi.Router
	clock      *clock.Fake
	businesses *memory.BusinessStore
	provider   *fakeProvider
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	businesses := memory.NewBusinessStore()
	clients := memory.NewClientStore()
	invoices := memory.NewInvoiceStore()
	estimates := memory.NewEstimateStore(invoices)
	recurring := memory.NewRecurringStore(invoices)

	clk := clock.NewFake(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	rnd := random.NewFake()
	ids := idgen.NewSequential("id")
	logger := zerolog.Nop()
	provider := &fakeProvider{}

	h := web.NewHandler(web.Deps{
		Tenants:   app.NewTenantService(businesses, clients, clk, ids, logger),
		Invoices:  app.NewInvoiceService(businesses, clients, invoices, clk, rnd, ids, logger),
		Estimates: app.NewEstimateService(businesses, clients, estimates, invoices, clk, rnd, ids, logger),
		Recurring: app.NewRecurringService(businesses, clients, recurring, invoices, clk, rnd, ids, logger),
		Billing:   app.NewBillingService(provider, businesses, logger),
		Logger:    logger,
	})

	return &apiEnv{
		router:     h.Router(),
		clock:      clk,
		businesses: businesses,
		provider:   provider,
	}
}

// do performs a request as owner-1 on the free plan unless headers
// override it.
func (e *apiEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-Id", "owner-1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// get performs an unauthenticated GET, as an anonymous visitor would.
func (e *apiEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// seedBusiness creates the caller's business through the API.
func (e *apiEnv) seedBusiness(t *testing.T) map[string]any {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/businesses", map[string]any{
		"name":  "Acme Studio",
		"email": "billing@acme.test",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed business: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var b map[string]any
	decodeBody(t, rec, &b)
	return b
}

// seedClient creates a client through the API.
func (e *apiEnv) seedClient(t *testing.T) map[string]any {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/clients", map[string]any{
		"name":    "Globex",
		"email":   "ap@globex.test",
		"address": "9 Side St",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed client: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var c map[string]any
	decodeBody(t, rec, &c)
	return c
}

func TestHealth(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireIdentity(t *testing.T) {
	e := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/businesses/me", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestBusinessCreateAndGet(t *testing.T) {
	e := newAPIEnv(t)
	b := e.seedBusiness(t)

	if b["name"] != "Acme Studio" {
		t.Errorf("name = %v, want Acme Studio", b["name"])
	}
	if b["plan"] != "free_user" {
		t.Errorf("plan = %v, want free_user", b["plan"])
	}
	if b["currency"] != "USD" {
		t.Errorf("currency = %v, want USD", b["currency"])
	}

	rec := e.do(t, http.MethodGet, "/api/v1/businesses/me", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	var got map[string]any
	decodeBody(t, rec, &got)
	if got["id"] != b["id"] {
		t.Errorf("id = %v, want %v", got["id"], b["id"])
	}
}

func TestBusinessCreate_Invalid(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/businesses", map[string]any{"name": ""}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBusinessGet_NoBusiness(t *testing.T) {
	e := newAPIEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/businesses/me", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestClientLifecycle(t *testing.T) {
	e := newAPIEnv(t)
	e.seedBusiness(t)
	c := e.seedClient(t)
	id := c["id"].(string)

	// Update
	rec := e.do(t, http.MethodPut, "/api/v1/clients/"+id, map[string]any{
		"address": "100 New Rd",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated map[string]any
	decodeBody(t, rec, &updated)
	if updated["address"] != "100 New Rd" {
		t.Errorf("address = %v, want 100 New Rd", updated["address"])
	}
	if updated["name"] != "Globex" {
		t.Errorf("name = %v, want Globex (partial update keeps it)", updated["name"])
	}

	// List
	rec = e.do(t, http.MethodGet, "/api/v1/clients", nil, nil)
	var list []map[string]any
	decodeBody(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}

	// Delete, then 404
	rec = e.do(t, http.MethodDelete, "/api/v1/clients/"+id, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/api/v1/clients/"+id, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: status = %d, want 404", rec.Code)
	}
}
