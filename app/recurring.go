package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/lifecycle"
	"github.com/facturo/facturo/domain/money"
	"github.com/facturo/facturo/domain/schedule"
	"github.com/facturo/facturo/ports"
)

// RecurringService manages recurring invoice templates and generates
// concrete invoices from them. Firing is driven externally (a periodic
// job calling FireDue), not by an internal timer.
type RecurringService struct {
	businesses ports.BusinessStore
	clients    ports.ClientStore
	recurring  ports.RecurringStore
	invoices   ports.InvoiceStore
	clock      ports.Clock
	random     ports.Random
	ids        ports.IDGenerator
	logger     zerolog.Logger
}

// NewRecurringService creates a new recurring invoice service.
func NewRecurringService(
	businesses ports.BusinessStore,
	clients ports.ClientStore,
	recurring ports.RecurringStore,
	invoices ports.InvoiceStore,
	clock ports.Clock,
	random ports.Random,
	ids ports.IDGenerator,
	logger zerolog.Logger,
) *RecurringService {
	return &RecurringService{
		businesses: businesses,
		clients:    clients,
		recurring:  recurring,
		invoices:   invoices,
		clock:      clock,
		random:     random,
		ids:        ids,
		logger:     logger,
	}
}

// CreateRecurringInput is the caller-supplied part of a new template.
type CreateRecurringInput struct {
	BusinessID       string
	ClientID         string
	Items            []money.LineItem
	Notes            string
	BankDetails      string
	Currency         string
	DiscountPct      decimal.Decimal
	Shipping         decimal.Decimal
	Frequency        schedule.Frequency
	StartDate        time.Time
	EndDate          *time.Time
	DayOfMonth       int
	DayOfWeek        *time.Weekday
	PaymentTermsDays int
	AutoSend         bool
}

// Create persists a new active template. The first occurrence is the
// start date itself.
func (s *RecurringService) Create(ctx context.Context, authorID string, in CreateRecurringInput) (document.RecurringInvoice, error) {
	if len(in.Items) == 0 {
		return document.RecurringInvoice{}, validation("recurring invoice requires at least one line item")
	}
	if err := money.Validate(in.Items, in.DiscountPct, in.Shipping); err != nil {
		return document.RecurringInvoice{}, &ValidationError{Err: err}
	}
	if !schedule.Valid(in.Frequency) {
		return document.RecurringInvoice{}, validation("unknown frequency %q", in.Frequency)
	}
	if in.StartDate.IsZero() {
		return document.RecurringInvoice{}, validation("start date is required")
	}
	if in.DayOfMonth < 0 || in.DayOfMonth > 31 {
		return document.RecurringInvoice{}, validation("day of month must be between 1 and 31")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return document.RecurringInvoice{}, validation("end date precedes start date")
	}

	business, err := s.businesses.Get(ctx, in.BusinessID)
	if err != nil {
		return document.RecurringInvoice{}, err
	}
	if _, err := s.clients.Get(ctx, in.BusinessID, in.ClientID); err != nil {
		return document.RecurringInvoice{}, err
	}

	currency := in.Currency
	if currency == "" {
		currency = business.Currency
	}
	terms := in.PaymentTermsDays
	if terms <= 0 {
		terms = defaultPaymentTermsDays
	}

	now := s.clock.Now()
	r := document.RecurringInvoice{
		ID:               s.ids.New(),
		BusinessID:       in.BusinessID,
		ClientID:         in.ClientID,
		AuthorID:         authorID,
		Items:            money.WithAmounts(in.Items),
		Notes:            in.Notes,
		BankDetails:      in.BankDetails,
		Currency:         currency,
		DiscountPct:      in.DiscountPct,
		Shipping:         in.Shipping,
		Frequency:        in.Frequency,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		DayOfMonth:       in.DayOfMonth,
		DayOfWeek:        in.DayOfWeek,
		PaymentTermsDays: terms,
		AutoSend:         in.AutoSend,
		Status:           document.RecurringActive,
		NextInvoiceDate:  in.StartDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.recurring.Create(ctx, r); err != nil {
		return document.RecurringInvoice{}, err
	}

	s.logger.Info().
		Str("template_id", r.ID).
		Str("frequency", string(r.Frequency)).
		Time("next_invoice_date", r.NextInvoiceDate).
		Msg("recurring invoice created")
	return r, nil
}

// Get retrieves a template within the caller's business.
func (s *RecurringService) Get(ctx context.Context, businessID, id string) (document.RecurringInvoice, error) {
	return s.recurring.Get(ctx, businessID, id)
}

// List returns a business's templates.
func (s *RecurringService) List(ctx context.Context, businessID string) ([]document.RecurringInvoice, error) {
	return s.recurring.ListByBusiness(ctx, businessID)
}

// Pause stops an active template from firing.
func (s *RecurringService) Pause(ctx context.Context, businessID, id string) error {
	return s.setStatus(ctx, businessID, id, document.RecurringActive, document.RecurringPaused)
}

// Resume reactivates a paused template. The next invoice date is left
// as is; FireDue will catch up on the next run.
func (s *RecurringService) Resume(ctx context.Context, businessID, id string) error {
	return s.setStatus(ctx, businessID, id, document.RecurringPaused, document.RecurringActive)
}

func (s *RecurringService) setStatus(ctx context.Context, businessID, id string, from, to document.RecurringStatus) error {
	r, err := s.recurring.Get(ctx, businessID, id)
	if err != nil {
		return err
	}
	if r.Status != from {
		return &InvalidTransitionError{Doc: "recurring_invoice", From: string(r.Status), To: string(to)}
	}
	return s.recurring.SetStatus(ctx, businessID, id, to)
}

// Generate fires one template: materializes the next invoice and
// advances the template as a single atomic unit. A template that is
// not active is rejected before any write.
func (s *RecurringService) Generate(ctx context.Context, businessID, templateID string) (document.Invoice, error) {
	tmpl, err := s.recurring.Get(ctx, businessID, templateID)
	if err != nil {
		return document.Invoice{}, err
	}
	return s.fire(ctx, tmpl)
}

// FireDue fires every active template whose next invoice date has
// arrived. Each template is one atomic unit; a failure on one template
// is logged and does not stop the sweep. Returns the invoices created.
func (s *RecurringService) FireDue(ctx context.Context) ([]document.Invoice, error) {
	due, err := s.recurring.ListDue(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}

	var created []document.Invoice
	for _, tmpl := range due {
		inv, err := s.fire(ctx, tmpl)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("template_id", tmpl.ID).
				Msg("recurring invoice generation failed")
			continue
		}
		created = append(created, inv)
	}
	return created, nil
}

func (s *RecurringService) fire(ctx context.Context, tmpl document.RecurringInvoice) (document.Invoice, error) {
	if tmpl.Status != document.RecurringActive {
		return document.Invoice{}, &InvalidTransitionError{
			Doc:  "recurring_invoice",
			From: string(tmpl.Status),
			To:   "generated",
		}
	}

	business, err := s.businesses.Get(ctx, tmpl.BusinessID)
	if err != nil {
		return document.Invoice{}, err
	}
	client, err := s.clients.Get(ctx, tmpl.BusinessID, tmpl.ClientID)
	if err != nil {
		return document.Invoice{}, err
	}

	token, err := s.random.Token()
	if err != nil {
		return document.Invoice{}, err
	}

	// The reference for the next occurrence is the date that just
	// fired, not the wall clock, so a late sweep stays on schedule.
	next, err := schedule.NextOccurrence(tmpl.NextInvoiceDate, tmpl.Frequency, tmpl.Anchors())
	if err != nil {
		return document.Invoice{}, &ValidationError{Err: err}
	}

	now := s.clock.Now()
	items := money.WithAmounts(tmpl.Items)
	totals := money.ComputeTotals(items, tmpl.DiscountPct, tmpl.Shipping)

	inv := document.Invoice{
		ID:               s.ids.New(),
		BusinessID:       tmpl.BusinessID,
		ClientID:         tmpl.ClientID,
		AuthorID:         tmpl.AuthorID,
		Items:            items,
		Subtotal:         totals.Subtotal,
		DiscountPct:      tmpl.DiscountPct,
		Shipping:         tmpl.Shipping,
		Total:            totals.Total,
		Currency:         tmpl.Currency,
		IssueDate:        now,
		DueDate:          now.AddDate(0, 0, tmpl.PaymentTermsDays),
		Status:           lifecycle.InvoiceDraft,
		Notes:            tmpl.Notes,
		BankDetails:      tmpl.BankDetails,
		Company:          document.SnapshotBusiness(business),
		BillTo:           document.SnapshotClient(client),
		PublicToken:      token,
		SourceTemplateID: tmpl.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	advanced := tmpl
	advanced.InvoicesGenerated++
	advanced.LastInvoiceID = inv.ID
	advanced.LastGeneratedAt = &now
	advanced.NextInvoiceDate = next
	advanced.UpdatedAt = now
	if advanced.Expired(next) {
		advanced.Status = document.RecurringCompleted
	}

	number, err := allocateNumber(ctx, invoicePrefix,
		func(ctx context.Context) (string, error) {
			return s.invoices.LastNumber(ctx, tmpl.BusinessID)
		},
		func(ctx context.Context, number string) error {
			inv.Number = number
			advanced.LastInvoiceID = inv.ID
			return s.recurring.Generate(ctx, inv, advanced)
		},
	)
	if err != nil {
		return document.Invoice{}, err
	}
	inv.Number = number

	s.logger.Info().
		Str("template_id", tmpl.ID).
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Time("next_invoice_date", next).
		Msg("recurring invoice generated")
	return inv, nil
}
