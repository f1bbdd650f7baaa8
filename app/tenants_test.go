package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/domain/planlimit"
	"github.com/facturo/facturo/ports"
)

func TestCreateBusiness_Defaults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	b, err := e.tenants.CreateBusiness(ctx, "owner-2", app.BusinessInput{Name: "Second"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Plan != string(planlimit.Free) {
		t.Errorf("new business plan = %s, want free_user", b.Plan)
	}
	if b.Currency != "USD" {
		t.Errorf("default currency = %s, want USD", b.Currency)
	}

	if _, err := e.tenants.CreateBusiness(ctx, "owner-3", app.BusinessInput{Name: "  "}); err == nil {
		t.Error("blank name should be rejected")
	}
}

func TestSetPlan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if err := e.tenants.SetPlan(ctx, "owner-1", planlimit.Professional); err != nil {
		t.Fatalf("set plan: %v", err)
	}
	b, _ := e.tenants.GetBusinessByOwner(ctx, "owner-1")
	if b.Plan != string(planlimit.Professional) {
		t.Errorf("plan = %s, want professional", b.Plan)
	}

	var verr *app.ValidationError
	if err := e.tenants.SetPlan(ctx, "owner-1", "platinum"); !errors.As(err, &verr) {
		t.Errorf("unknown plan: expected ValidationError, got %v", err)
	}
}

func TestClientLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	c, err := e.tenants.CreateClient(ctx, e.business.ID, app.ClientInput{Name: "Initech", Email: "b@initech.test"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	updated, err := e.tenants.UpdateClient(ctx, e.business.ID, c.ID, app.ClientInput{Phone: "555-0101"})
	if err != nil {
		t.Fatalf("update client: %v", err)
	}
	if updated.Phone != "555-0101" || updated.Name != "Initech" {
		t.Errorf("partial update wrong: %+v", updated)
	}

	list, _ := e.tenants.ListClients(ctx, e.business.ID)
	if len(list) != 2 {
		t.Fatalf("expected seeded + new client, got %d", len(list))
	}

	if err := e.tenants.DeleteClient(ctx, e.business.ID, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.tenants.GetClient(ctx, e.business.ID, c.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if _, err := e.tenants.CreateClient(ctx, "ghost-business", app.ClientInput{Name: "X"}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("client under unknown business: expected ErrNotFound, got %v", err)
	}
}
