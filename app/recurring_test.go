package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/schedule"
)

func (e *env) createTemplate(t *testing.T, in app.CreateRecurringInput) document.RecurringInvoice {
	t.Helper()
	in.BusinessID = e.business.ID
	in.ClientID = e.client.ID
	if in.Items == nil {
		in.Items = oneItem()
	}
	r, err := e.schedule.Create(context.Background(), "owner-1", in)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return r
}

func TestRecurringCreate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   app.CreateRecurringInput
	}{
		{"no items", app.CreateRecurringInput{
			Frequency: schedule.Monthly,
			StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		}},
		{"bad frequency", app.CreateRecurringInput{
			Items:     oneItem(),
			Frequency: "fortnightly",
			StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		}},
		{"no start date", app.CreateRecurringInput{
			Items:     oneItem(),
			Frequency: schedule.Monthly,
		}},
		{"day of month out of range", app.CreateRecurringInput{
			Items:      oneItem(),
			Frequency:  schedule.Monthly,
			StartDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			DayOfMonth: 32,
		}},
	}

	for _, tc := range cases {
		tc.in.BusinessID = e.business.ID
		tc.in.ClientID = e.client.ID
		_, err := e.schedule.Create(ctx, "owner-1", tc.in)
		var verr *app.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}

	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := e.schedule.Create(ctx, "owner-1", app.CreateRecurringInput{
		BusinessID: e.business.ID,
		ClientID:   e.client.ID,
		Items:      oneItem(),
		Frequency:  schedule.Monthly,
		StartDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    &end,
	})
	var verr *app.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("end before start: expected ValidationError, got %v", err)
	}
}

func TestRecurringMonthly_EndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Monthly on the 1st, starting 2026-01-01, 30 day terms.
	e.clock.Set(time.Date(2025, 12, 20, 8, 0, 0, 0, time.UTC))
	tmpl := e.createTemplate(t, app.CreateRecurringInput{
		Frequency:        schedule.Monthly,
		StartDate:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DayOfMonth:       1,
		PaymentTermsDays: 30,
	})
	if !tmpl.NextInvoiceDate.Equal(tmpl.StartDate) {
		t.Fatalf("first occurrence should be the start date, got %v", tmpl.NextInvoiceDate)
	}

	// Nothing due before the start date.
	created, err := e.schedule.FireDue(ctx)
	if err != nil {
		t.Fatalf("fire due: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("fired %d invoices before start", len(created))
	}

	// The sweep runs late on Jan 3rd; the schedule does not slip.
	e.clock.Set(time.Date(2026, 1, 3, 4, 0, 0, 0, time.UTC))
	created, err = e.schedule.FireDue(ctx)
	if err != nil {
		t.Fatalf("fire due: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(created))
	}
	inv := created[0]
	if inv.Number != "INV0001" {
		t.Errorf("number = %s, want INV0001", inv.Number)
	}
	if inv.SourceTemplateID != tmpl.ID {
		t.Errorf("source template = %q, want %s", inv.SourceTemplateID, tmpl.ID)
	}
	if inv.DueDate != inv.IssueDate.AddDate(0, 0, 30) {
		t.Errorf("due date = %v, want issue + 30d", inv.DueDate)
	}

	got, _ := e.schedule.Get(ctx, e.business.ID, tmpl.ID)
	wantNext := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.NextInvoiceDate.Equal(wantNext) {
		t.Errorf("next date = %v, want %v", got.NextInvoiceDate, wantNext)
	}
	if got.InvoicesGenerated != 1 || got.LastInvoiceID != inv.ID {
		t.Errorf("counters not advanced: %+v", got)
	}

	// Same sweep again is a no-op until February.
	if created, _ := e.schedule.FireDue(ctx); len(created) != 0 {
		t.Fatalf("re-sweep fired %d invoices", len(created))
	}

	e.clock.Set(time.Date(2026, 2, 1, 0, 30, 0, 0, time.UTC))
	created, _ = e.schedule.FireDue(ctx)
	if len(created) != 1 {
		t.Fatalf("february sweep: expected 1 invoice, got %d", len(created))
	}
	if created[0].Number != "INV0002" {
		t.Errorf("february number = %s, want INV0002", created[0].Number)
	}
}

func TestRecurringPauseResume(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.clock.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	tmpl := e.createTemplate(t, app.CreateRecurringInput{
		Frequency: schedule.Monthly,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	if err := e.schedule.Pause(ctx, e.business.ID, tmpl.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	// Paused templates never fire.
	if created, _ := e.schedule.FireDue(ctx); len(created) != 0 {
		t.Fatalf("paused template fired")
	}
	// Pausing twice is invalid.
	var terr *app.InvalidTransitionError
	if err := e.schedule.Pause(ctx, e.business.ID, tmpl.ID); !errors.As(err, &terr) {
		t.Errorf("double pause: expected InvalidTransitionError, got %v", err)
	}

	if err := e.schedule.Resume(ctx, e.business.ID, tmpl.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	created, _ := e.schedule.FireDue(ctx)
	if len(created) != 1 {
		t.Fatalf("resumed template did not fire")
	}
}

func TestRecurringGenerate_Manual(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.clock.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	tmpl := e.createTemplate(t, app.CreateRecurringInput{
		Frequency: schedule.Weekly,
		StartDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	})

	// Manual generation ignores the due date and fires now.
	inv, err := e.schedule.Generate(ctx, e.business.ID, tmpl.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if inv.SourceTemplateID != tmpl.ID {
		t.Errorf("source template = %q", inv.SourceTemplateID)
	}

	got, _ := e.schedule.Get(ctx, e.business.ID, tmpl.ID)
	wantNext := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	if !got.NextInvoiceDate.Equal(wantNext) {
		t.Errorf("next date = %v, want %v", got.NextInvoiceDate, wantNext)
	}

	// A paused template cannot be generated from.
	if err := e.schedule.Pause(ctx, e.business.ID, tmpl.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	var terr *app.InvalidTransitionError
	if _, err := e.schedule.Generate(ctx, e.business.ID, tmpl.ID); !errors.As(err, &terr) {
		t.Errorf("expected InvalidTransitionError, got %v", err)
	}
}

func TestRecurringCompletesAtEndDate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.clock.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	tmpl := e.createTemplate(t, app.CreateRecurringInput{
		Frequency: schedule.Monthly,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
	})

	created, _ := e.schedule.FireDue(ctx)
	if len(created) != 1 {
		t.Fatalf("expected final invoice, got %d", len(created))
	}

	got, _ := e.schedule.Get(ctx, e.business.ID, tmpl.ID)
	if got.Status != document.RecurringCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}

	// Completed templates are out of the sweep for good.
	e.clock.Set(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if created, _ := e.schedule.FireDue(ctx); len(created) != 0 {
		t.Errorf("completed template fired again")
	}
}

func TestRecurringAnchorClampAndRestore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.clock.Set(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	tmpl := e.createTemplate(t, app.CreateRecurringInput{
		Frequency:  schedule.Monthly,
		StartDate:  time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		DayOfMonth: 31,
	})

	// January fires; February clamps to the 28th.
	if created, _ := e.schedule.FireDue(ctx); len(created) != 1 {
		t.Fatal("january fire missing")
	}
	got, _ := e.schedule.Get(ctx, e.business.ID, tmpl.ID)
	if want := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC); !got.NextInvoiceDate.Equal(want) {
		t.Fatalf("next = %v, want %v", got.NextInvoiceDate, want)
	}

	// March restores the 31st anchor.
	e.clock.Set(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))
	if created, _ := e.schedule.FireDue(ctx); len(created) != 1 {
		t.Fatal("february fire missing")
	}
	got, _ = e.schedule.Get(ctx, e.business.ID, tmpl.ID)
	if want := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC); !got.NextInvoiceDate.Equal(want) {
		t.Errorf("next = %v, want %v", got.NextInvoiceDate, want)
	}
}
