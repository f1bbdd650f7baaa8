package document

import (
	"testing"
	"time"
)

func TestSnapshotClient(t *testing.T) {
	c := Client{ID: "c1", Name: "Acme", Email: "billing@acme.test", Phone: "555-0100", Address: "1 Main St"}
	p := SnapshotClient(c)

	if p.Name != "Acme" || p.Email != "billing@acme.test" || p.Phone != "555-0100" || p.Address != "1 Main St" {
		t.Errorf("snapshot did not copy client fields: %+v", p)
	}

	// Mutating the client afterwards must not reach the snapshot.
	c.Email = "new@acme.test"
	if p.Email != "billing@acme.test" {
		t.Errorf("snapshot must be detached from the client")
	}
}

func TestSnapshotBusiness(t *testing.T) {
	b := Business{Name: "Studio", Email: "hi@studio.test", TaxID: "DE123"}
	co := SnapshotBusiness(b)
	if co.Name != "Studio" || co.TaxID != "DE123" {
		t.Errorf("snapshot did not copy business fields: %+v", co)
	}
}

func TestRecurringDue(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	r := RecurringInvoice{Status: RecurringActive, NextInvoiceDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}

	if !r.Due(now) {
		t.Errorf("active template at its next date must be due")
	}

	r.NextInvoiceDate = time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	if r.Due(now) {
		t.Errorf("template before its next date must not be due")
	}

	r.NextInvoiceDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Status = RecurringPaused
	if r.Due(now) {
		t.Errorf("paused template must never be due")
	}
}

func TestRecurringExpired(t *testing.T) {
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	r := RecurringInvoice{EndDate: &end}

	if r.Expired(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("occurrence on the end date itself is still in range")
	}
	if !r.Expired(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("occurrence past the end date must expire the template")
	}

	r.EndDate = nil
	if r.Expired(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("template without end date never expires")
	}
}
