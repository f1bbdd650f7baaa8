package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/lifecycle"
	"github.com/facturo/facturo/domain/money"
	"github.com/facturo/facturo/domain/planlimit"
	"github.com/facturo/facturo/ports"
)

// defaultPaymentTermsDays is applied when a creation request carries no
// due date.
const defaultPaymentTermsDays = 30

// InvoiceService creates invoices and drives their lifecycle.
type InvoiceService struct {
	businesses ports.BusinessStore
	clients    ports.ClientStore
	invoices   ports.InvoiceStore
	clock      ports.Clock
	random     ports.Random
	ids        ports.IDGenerator
	logger     zerolog.Logger
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(
	businesses ports.BusinessStore,
	clients ports.ClientStore,
	invoices ports.InvoiceStore,
	clock ports.Clock,
	random ports.Random,
	ids ports.IDGenerator,
	logger zerolog.Logger,
) *InvoiceService {
	return &InvoiceService{
		businesses: businesses,
		clients:    clients,
		invoices:   invoices,
		clock:      clock,
		random:     random,
		ids:        ids,
		logger:     logger,
	}
}

// CreateInvoiceInput is the caller-supplied part of a new invoice.
type CreateInvoiceInput struct {
	BusinessID  string
	ClientID    string
	Items       []money.LineItem
	DiscountPct decimal.Decimal
	Shipping    decimal.Decimal
	Currency    string
	IssueDate   time.Time // zero = now
	DueDate     time.Time // zero = issue date + 30 days
	Notes       string
	BankDetails string
}

// Create validates input, enforces the caller's plan limit, allocates
// the next invoice number and persists the invoice in draft with fresh
// business and client snapshots. The plan gate runs before numbering so
// a rejected creation never consumes a number.
func (s *InvoiceService) Create(ctx context.Context, authorID string, plan planlimit.Plan, in CreateInvoiceInput) (document.Invoice, error) {
	if len(in.Items) == 0 {
		return document.Invoice{}, validation("invoice requires at least one line item")
	}
	if err := money.Validate(in.Items, in.DiscountPct, in.Shipping); err != nil {
		return document.Invoice{}, &ValidationError{Err: err}
	}

	now := s.clock.Now()
	if err := s.assertCanCreate(ctx, authorID, plan, now); err != nil {
		return document.Invoice{}, err
	}

	business, err := s.businesses.Get(ctx, in.BusinessID)
	if err != nil {
		return document.Invoice{}, err
	}
	client, err := s.clients.Get(ctx, in.BusinessID, in.ClientID)
	if err != nil {
		return document.Invoice{}, err
	}

	token, err := s.random.Token()
	if err != nil {
		return document.Invoice{}, err
	}

	issue := in.IssueDate
	if issue.IsZero() {
		issue = now
	}
	due := in.DueDate
	if due.IsZero() {
		due = issue.AddDate(0, 0, defaultPaymentTermsDays)
	}

	currency := in.Currency
	if currency == "" {
		currency = business.Currency
	}

	items := money.WithAmounts(in.Items)
	totals := money.ComputeTotals(items, in.DiscountPct, in.Shipping)

	inv := document.Invoice{
		ID:          s.ids.New(),
		BusinessID:  business.ID,
		ClientID:    client.ID,
		AuthorID:    authorID,
		Items:       items,
		Subtotal:    totals.Subtotal,
		DiscountPct: in.DiscountPct,
		Shipping:    in.Shipping,
		Total:       totals.Total,
		Currency:    currency,
		IssueDate:   issue,
		DueDate:     due,
		Status:      lifecycle.InvoiceDraft,
		Notes:       in.Notes,
		BankDetails: in.BankDetails,
		Company:     document.SnapshotBusiness(business),
		BillTo:      document.SnapshotClient(client),
		PublicToken: token,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	number, err := allocateNumber(ctx, invoicePrefix,
		func(ctx context.Context) (string, error) {
			return s.invoices.LastNumber(ctx, business.ID)
		},
		func(ctx context.Context, number string) error {
			inv.Number = number
			return s.invoices.Create(ctx, inv)
		},
	)
	if err != nil {
		return document.Invoice{}, err
	}
	inv.Number = number

	s.logger.Info().
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Str("business_id", inv.BusinessID).
		Msg("invoice created")
	return inv, nil
}

// assertCanCreate is the plan limit gate. Best effort: the count and
// the later insert are separate statements, so the limit is soft under
// concurrent creations by the same author.
func (s *InvoiceService) assertCanCreate(ctx context.Context, authorID string, plan planlimit.Plan, now time.Time) error {
	var lifetime, month int64
	var err error

	switch plan {
	case planlimit.Enterprise:
		// No counting needed.
	case planlimit.Professional:
		start, end := planlimit.MonthBounds(now)
		month, err = s.invoices.CountByAuthorBetween(ctx, authorID, start, end)
	default:
		lifetime, err = s.invoices.CountByAuthor(ctx, authorID)
	}
	if err != nil {
		return err
	}

	if d := planlimit.Check(plan, lifetime, month); !d.Allowed {
		s.logger.Info().
			Str("author_id", authorID).
			Str("plan", string(plan)).
			Int64("limit", d.Limit).
			Msg("invoice creation rejected by plan limit")
		return &LimitExceededError{Plan: string(plan), Limit: d.Limit}
	}
	return nil
}

// Get retrieves an invoice within the caller's business.
func (s *InvoiceService) Get(ctx context.Context, businessID, id string) (document.Invoice, error) {
	return s.invoices.Get(ctx, businessID, id)
}

// List returns a business's invoices, newest first.
func (s *InvoiceService) List(ctx context.Context, businessID string, limit, offset int) ([]document.Invoice, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.invoices.ListByBusiness(ctx, businessID, limit, offset)
}

// GetPublic retrieves an invoice by its sharing token.
func (s *InvoiceService) GetPublic(ctx context.Context, token string) (document.Invoice, error) {
	return s.invoices.GetByToken(ctx, token)
}

// Overdue reports the read-time overdue projection for an invoice.
func (s *InvoiceService) Overdue(inv document.Invoice) bool {
	return lifecycle.IsOverdue(inv.Status, inv.DueDate, s.clock.Now())
}

// Transition moves an invoice to a new status. A sent -> sent move is
// accepted as a reminder re-send. Paid invoices record the payment
// time.
func (s *InvoiceService) Transition(ctx context.Context, businessID, id string, to lifecycle.InvoiceStatus) (document.Invoice, error) {
	if !lifecycle.ValidInvoiceStatus(to) {
		return document.Invoice{}, validation("unknown invoice status %q", to)
	}

	inv, err := s.invoices.Get(ctx, businessID, id)
	if err != nil {
		return document.Invoice{}, err
	}

	if !lifecycle.CanTransitionInvoice(inv.Status, to) {
		return document.Invoice{}, &InvalidTransitionError{
			Doc:  "invoice",
			From: string(inv.Status),
			To:   string(to),
		}
	}

	var paidAt *time.Time
	if to == lifecycle.InvoicePaid {
		now := s.clock.Now()
		paidAt = &now
	}
	if err := s.invoices.UpdateStatus(ctx, businessID, id, to, paidAt); err != nil {
		return document.Invoice{}, err
	}

	inv.Status = to
	if paidAt != nil {
		inv.PaidAt = paidAt
	}
	inv.UpdatedAt = s.clock.Now()
	s.logger.Info().
		Str("invoice_id", id).
		Str("status", string(to)).
		Msg("invoice transitioned")
	return inv, nil
}

// UpdateDetails edits the only fields an issued invoice allows: notes
// and bank details. Line items and amounts are immutable after
// creation.
func (s *InvoiceService) UpdateDetails(ctx context.Context, businessID, id, notes, bankDetails string) error {
	return s.invoices.UpdateDetails(ctx, businessID, id, notes, bankDetails)
}

// EmailEvent is a delivery event reported by the email provider.
type EmailEvent string

const (
	EmailSent       EmailEvent = "sent"
	EmailDelivered  EmailEvent = "delivered"
	EmailOpened     EmailEvent = "opened"
	EmailClicked    EmailEvent = "clicked"
	EmailBounced    EmailEvent = "bounced"
	EmailComplained EmailEvent = "complained"
)

// RecordEmailEvent folds a provider webhook event into the invoice's
// email tracking state.
func (s *InvoiceService) RecordEmailEvent(ctx context.Context, invoiceID string, event EmailEvent) error {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	t := inv.Email
	switch event {
	case EmailSent:
		t.Sent = true
		t.SentAt = &now
	case EmailDelivered:
		t.Delivered = true
		t.DeliveredAt = &now
	case EmailOpened:
		t.Opened = true
		t.OpenedAt = &now
		t.OpenCount++
	case EmailClicked:
		t.Clicked = true
		t.ClickedAt = &now
		t.ClickCount++
	case EmailBounced:
		t.Bounced = true
	case EmailComplained:
		t.Complained = true
	default:
		return validation("unknown email event %q", event)
	}

	return s.invoices.UpdateEmailTracking(ctx, invoiceID, t)
}
