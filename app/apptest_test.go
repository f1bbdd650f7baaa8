package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/adapters/clock"
	"github.com/facturo/facturo/adapters/idgen"
	"github.com/facturo/facturo/adapters/memory"
	"github.com/facturo/facturo/adapters/random"
	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/money"
	"github.com/facturo/facturo/domain/planlimit"
)

// env wires the services against the in-memory stores with a frozen
// clock and deterministic IDs, seeded with one business and one client.
type env struct {
	businesses *memory.BusinessStore
	clients    *memory.ClientStore
	invoices   *memory.InvoiceStore
	estimates  *memory.EstimateStore
	recurring  *memory.RecurringStore

	clock *clock.Fake

	tenants  *app.TenantService
	invoice  *app.InvoiceService
	estimate *app.EstimateService
	schedule *app.RecurringService

	business document.Business
	client   document.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		businesses: memory.NewBusinessStore(),
		clients:    memory.NewClientStore(),
		clock:      clock.NewFake(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)),
	}
	e.invoices = memory.NewInvoiceStore()
	e.estimates = memory.NewEstimateStore(e.invoices)
	e.recurring = memory.NewRecurringStore(e.invoices)

	rnd := random.NewFake()
	ids := idgen.NewSequential("id")
	logger := zerolog.Nop()

	e.tenants = app.NewTenantService(e.businesses, e.clients, e.clock, ids, logger)
	e.invoice = app.NewInvoiceService(e.businesses, e.clients, e.invoices, e.clock, rnd, ids, logger)
	e.estimate = app.NewEstimateService(e.businesses, e.clients, e.estimates, e.invoices, e.clock, rnd, ids, logger)
	e.schedule = app.NewRecurringService(e.businesses, e.clients, e.recurring, e.invoices, e.clock, rnd, ids, logger)

	ctx := context.Background()
	b, err := e.tenants.CreateBusiness(ctx, "owner-1", app.BusinessInput{
		Name:     "Acme Studio",
		Email:    "billing@acme.test",
		Address:  "1 Main St",
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("seed business: %v", err)
	}
	c, err := e.tenants.CreateClient(ctx, b.ID, app.ClientInput{
		Name:    "Globex",
		Email:   "ap@globex.test",
		Address: "9 Side St",
	})
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}
	e.business = b
	e.client = c
	return e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func oneItem() []money.LineItem {
	return []money.LineItem{{
		Description: "Consulting",
		Quantity:    dec("2"),
		UnitPrice:   dec("100"),
		TaxPct:      dec("20"),
	}}
}

func (e *env) invoiceInput() app.CreateInvoiceInput {
	return app.CreateInvoiceInput{
		BusinessID: e.business.ID,
		ClientID:   e.client.ID,
		Items:      oneItem(),
	}
}

func (e *env) createInvoice(t *testing.T, plan planlimit.Plan) document.Invoice {
	t.Helper()
	inv, err := e.invoice.Create(context.Background(), "owner-1", plan, e.invoiceInput())
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}
