package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/lifecycle"
	"github.com/facturo/facturo/domain/money"
	"github.com/facturo/facturo/ports"
)

// conversionTermsDays is the fixed due window for invoices materialized
// from estimates. Recurring templates carry their own payment terms;
// estimates do not, so conversion uses this default.
const conversionTermsDays = 30

// EstimateService creates estimates, drives their lifecycle and
// converts accepted estimates into invoices.
type EstimateService struct {
	businesses ports.BusinessStore
	clients    ports.ClientStore
	estimates  ports.EstimateStore
	invoices   ports.InvoiceStore
	clock      ports.Clock
	random     ports.Random
	ids        ports.IDGenerator
	logger     zerolog.Logger
}

// NewEstimateService creates a new estimate service.
func NewEstimateService(
	businesses ports.BusinessStore,
	clients ports.ClientStore,
	estimates ports.EstimateStore,
	invoices ports.InvoiceStore,
	clock ports.Clock,
	random ports.Random,
	ids ports.IDGenerator,
	logger zerolog.Logger,
) *EstimateService {
	return &EstimateService{
		businesses: businesses,
		clients:    clients,
		estimates:  estimates,
		invoices:   invoices,
		clock:      clock,
		random:     random,
		ids:        ids,
		logger:     logger,
	}
}

// CreateEstimateInput is the caller-supplied part of a new estimate.
type CreateEstimateInput struct {
	BusinessID  string
	ClientID    string
	Items       []money.LineItem
	DiscountPct decimal.Decimal
	Shipping    decimal.Decimal
	Currency    string
	ValidUntil  time.Time // zero = now + 30 days
	Notes       string
	BankDetails string
}

// Create persists a new draft estimate with fresh snapshots. Estimates
// are not plan gated; only invoice creation is.
func (s *EstimateService) Create(ctx context.Context, authorID string, in CreateEstimateInput) (document.Estimate, error) {
	if len(in.Items) == 0 {
		return document.Estimate{}, validation("estimate requires at least one line item")
	}
	if err := money.Validate(in.Items, in.DiscountPct, in.Shipping); err != nil {
		return document.Estimate{}, &ValidationError{Err: err}
	}

	business, err := s.businesses.Get(ctx, in.BusinessID)
	if err != nil {
		return document.Estimate{}, err
	}
	client, err := s.clients.Get(ctx, in.BusinessID, in.ClientID)
	if err != nil {
		return document.Estimate{}, err
	}

	token, err := s.random.Token()
	if err != nil {
		return document.Estimate{}, err
	}

	now := s.clock.Now()
	validUntil := in.ValidUntil
	if validUntil.IsZero() {
		validUntil = now.AddDate(0, 0, conversionTermsDays)
	}

	currency := in.Currency
	if currency == "" {
		currency = business.Currency
	}

	items := money.WithAmounts(in.Items)
	totals := money.ComputeTotals(items, in.DiscountPct, in.Shipping)

	est := document.Estimate{
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
		IssueDate:   now,
		ValidUntil:  validUntil,
		Status:      lifecycle.EstimateDraft,
		Notes:       in.Notes,
		BankDetails: in.BankDetails,
		Company:     document.SnapshotBusiness(business),
		BillTo:      document.SnapshotClient(client),
		PublicToken: token,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	number, err := allocateNumber(ctx, estimatePrefix,
		func(ctx context.Context) (string, error) {
			return s.estimates.LastNumber(ctx, business.ID)
		},
		func(ctx context.Context, number string) error {
			est.Number = number
			return s.estimates.Create(ctx, est)
		},
	)
	if err != nil {
		return document.Estimate{}, err
	}
	est.Number = number

	s.logger.Info().
		Str("estimate_id", est.ID).
		Str("number", est.Number).
		Str("business_id", est.BusinessID).
		Msg("estimate created")
	return est, nil
}

// Get retrieves an estimate within the caller's business.
func (s *EstimateService) Get(ctx context.Context, businessID, id string) (document.Estimate, error) {
	return s.estimates.Get(ctx, businessID, id)
}

// List returns a business's estimates, newest first.
func (s *EstimateService) List(ctx context.Context, businessID string, limit, offset int) ([]document.Estimate, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.estimates.ListByBusiness(ctx, businessID, limit, offset)
}

// GetPublic retrieves an estimate by its sharing token. The read is
// pure; the presentation layer calls MarkViewed afterwards.
func (s *EstimateService) GetPublic(ctx context.Context, token string) (document.Estimate, error) {
	return s.estimates.GetByToken(ctx, token)
}

// MarkViewed flips a sent estimate to viewed. The presentation layer
// invokes it explicitly after a successful public fetch, keeping the
// read itself pure. A no-op for estimates past sent.
func (s *EstimateService) MarkViewed(ctx context.Context, token string) error {
	est, err := s.estimates.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	if !lifecycle.CanTransitionEstimate(est.Status, lifecycle.EstimateViewed) {
		return nil
	}
	return s.estimates.UpdateStatus(ctx, est.BusinessID, est.ID, lifecycle.EstimateViewed)
}

// Transition moves an estimate to a new status (send, accept, reject).
// Conversion goes through Convert, never through Transition.
func (s *EstimateService) Transition(ctx context.Context, businessID, id string, to lifecycle.EstimateStatus) (document.Estimate, error) {
	if !lifecycle.ValidEstimateStatus(to) {
		return document.Estimate{}, validation("unknown estimate status %q", to)
	}
	if to == lifecycle.EstimateConverted {
		return document.Estimate{}, validation("estimates are converted via the conversion endpoint")
	}

	est, err := s.estimates.Get(ctx, businessID, id)
	if err != nil {
		return document.Estimate{}, err
	}

	if !lifecycle.CanTransitionEstimate(est.Status, to) {
		return document.Estimate{}, &InvalidTransitionError{
			Doc:  "estimate",
			From: string(est.Status),
			To:   string(to),
		}
	}

	if err := s.estimates.UpdateStatus(ctx, businessID, id, to); err != nil {
		return document.Estimate{}, err
	}
	est.Status = to
	return est, nil
}

// UpdateDetails edits the only post-creation editable fields.
func (s *EstimateService) UpdateDetails(ctx context.Context, businessID, id, notes, bankDetails string) error {
	return s.estimates.UpdateDetails(ctx, businessID, id, notes, bankDetails)
}

// Convert materializes an invoice from an accepted estimate. The
// estimate's agreed amounts are copied verbatim, never recomputed;
// company and bill-to snapshots are retaken from the current business
// and client rows. The estimate flip and the invoice insert commit as
// one unit. A second conversion is rejected, it never creates a second
// invoice.
func (s *EstimateService) Convert(ctx context.Context, businessID, estimateID string) (document.Invoice, error) {
	est, err := s.estimates.Get(ctx, businessID, estimateID)
	if err != nil {
		return document.Invoice{}, err
	}

	if !lifecycle.CanTransitionEstimate(est.Status, lifecycle.EstimateConverted) {
		return document.Invoice{}, &InvalidTransitionError{
			Doc:  "estimate",
			From: string(est.Status),
			To:   string(lifecycle.EstimateConverted),
		}
	}

	business, err := s.businesses.Get(ctx, est.BusinessID)
	if err != nil {
		return document.Invoice{}, err
	}
	client, err := s.clients.Get(ctx, est.BusinessID, est.ClientID)
	if err != nil {
		return document.Invoice{}, err
	}

	token, err := s.random.Token()
	if err != nil {
		return document.Invoice{}, err
	}

	now := s.clock.Now()
	inv := document.Invoice{
		ID:               s.ids.New(),
		BusinessID:       est.BusinessID,
		ClientID:         est.ClientID,
		AuthorID:         est.AuthorID,
		Items:            est.Items,
		Subtotal:         est.Subtotal,
		DiscountPct:      est.DiscountPct,
		Shipping:         est.Shipping,
		Total:            est.Total,
		Currency:         est.Currency,
		IssueDate:        now,
		DueDate:          now.AddDate(0, 0, conversionTermsDays),
		Status:           lifecycle.InvoiceDraft,
		Notes:            est.Notes,
		BankDetails:      est.BankDetails,
		Company:          document.SnapshotBusiness(business),
		BillTo:           document.SnapshotClient(client),
		PublicToken:      token,
		SourceEstimateID: est.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	number, err := allocateNumber(ctx, invoicePrefix,
		func(ctx context.Context) (string, error) {
			return s.invoices.LastNumber(ctx, est.BusinessID)
		},
		func(ctx context.Context, number string) error {
			inv.Number = number
			return s.estimates.Convert(ctx, est.ID, inv, now)
		},
	)
	if err != nil {
		return document.Invoice{}, err
	}
	inv.Number = number

	s.logger.Info().
		Str("estimate_id", est.ID).
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Msg("estimate converted to invoice")
	return inv, nil
}
