// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/lifecycle"
)

// ErrNotFound is returned when a referenced record does not exist or is
// outside the caller's tenant scope.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned on a unique-constraint conflict, notably a
// document number collision between concurrent creations.
var ErrDuplicate = errors.New("already exists")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Random abstracts randomness for testability.
type Random interface {
	// Bytes generates n random bytes.
	Bytes(n int) ([]byte, error)

	// Token generates an opaque 128-bit hex sharing token.
	Token() (string, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Payment Ports
// -----------------------------------------------------------------------------

// PaymentEvent is a provider webhook event reduced to what the plan
// gate cares about.
type PaymentEvent struct {
	Type    string // provider event type
	OwnerID string // user the subscription belongs to
	Plan    string // mapped subscription tier, "" when the event carries none
}

// PaymentProvider abstracts the subscription billing provider.
type PaymentProvider interface {
	// Name returns the provider name.
	Name() string

	// CreateCheckoutSession starts a subscription purchase and returns
	// the hosted checkout URL.
	CreateCheckoutSession(ctx context.Context, ownerID, email, plan, successURL, cancelURL string) (string, error)

	// CreatePortalSession returns a hosted billing management URL.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)

	// ParseWebhook verifies a webhook signature and reduces the payload
	// to a PaymentEvent.
	ParseWebhook(payload []byte, signature string) (PaymentEvent, error)
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// BusinessStore persists tenant business profiles.
type BusinessStore interface {
	// Get retrieves a business by ID.
	Get(ctx context.Context, id string) (document.Business, error)

	// GetByOwner retrieves the business owned by a user.
	GetByOwner(ctx context.Context, ownerID string) (document.Business, error)

	// Create stores a new business.
	Create(ctx context.Context, b document.Business) error

	// Update modifies an existing business.
	Update(ctx context.Context, b document.Business) error

	// SetPlan updates the owner's subscription tier (payment webhook).
	SetPlan(ctx context.Context, ownerID, plan string) error
}

// ClientStore persists a business's clients.
type ClientStore interface {
	// Get retrieves a client by ID scoped to a business.
	Get(ctx context.Context, businessID, id string) (document.Client, error)

	// ListByBusiness returns all clients of a business.
	ListByBusiness(ctx context.Context, businessID string) ([]document.Client, error)

	// Create stores a new client.
	Create(ctx context.Context, c document.Client) error

	// Update modifies an existing client.
	Update(ctx context.Context, c document.Client) error

	// Delete removes a client. Existing document snapshots are
	// unaffected.
	Delete(ctx context.Context, businessID, id string) error
}

// InvoiceStore persists invoices.
type InvoiceStore interface {
	// Get retrieves an invoice by ID scoped to a business.
	Get(ctx context.Context, businessID, id string) (document.Invoice, error)

	// GetByID retrieves an invoice without tenant scoping (webhook
	// paths that only carry the document ID).
	GetByID(ctx context.Context, id string) (document.Invoice, error)

	// GetByToken retrieves an invoice by its public sharing token.
	GetByToken(ctx context.Context, token string) (document.Invoice, error)

	// Create stores a new invoice. Returns ErrDuplicate when the
	// (business, number) pair is already taken so the caller can
	// re-derive the number and retry.
	Create(ctx context.Context, inv document.Invoice) error

	// LastNumber returns the number of the most recently created
	// invoice for a business ("" when none exist). Recency is creation
	// time, not numeric order.
	LastNumber(ctx context.Context, businessID string) (string, error)

	// ListByBusiness returns invoices newest first.
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]document.Invoice, error)

	// UpdateStatus stores a status transition.
	UpdateStatus(ctx context.Context, businessID, id string, status lifecycle.InvoiceStatus, paidAt *time.Time) error

	// UpdateDetails modifies the only post-creation editable fields.
	UpdateDetails(ctx context.Context, businessID, id, notes, bankDetails string) error

	// UpdateEmailTracking replaces the email delivery tracking state.
	UpdateEmailTracking(ctx context.Context, id string, t document.EmailTracking) error

	// CountByAuthor returns the author's lifetime invoice count.
	CountByAuthor(ctx context.Context, authorID string) (int64, error)

	// CountByAuthorBetween counts invoices created in [start, end).
	CountByAuthorBetween(ctx context.Context, authorID string, start, end time.Time) (int64, error)
}

// EstimateStore persists estimates. Implementations also own the
// estimate-to-invoice conversion because the estimate flip and the
// invoice insert must commit atomically.
type EstimateStore interface {
	// Get retrieves an estimate by ID scoped to a business.
	Get(ctx context.Context, businessID, id string) (document.Estimate, error)

	// GetByToken retrieves an estimate by its public sharing token.
	GetByToken(ctx context.Context, token string) (document.Estimate, error)

	// Create stores a new estimate. Returns ErrDuplicate on a number
	// collision.
	Create(ctx context.Context, est document.Estimate) error

	// LastNumber returns the most recently created estimate's number
	// for a business ("" when none exist).
	LastNumber(ctx context.Context, businessID string) (string, error)

	// ListByBusiness returns estimates newest first.
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]document.Estimate, error)

	// UpdateStatus stores a status transition.
	UpdateStatus(ctx context.Context, businessID, id string, status lifecycle.EstimateStatus) error

	// UpdateDetails modifies the only post-creation editable fields.
	UpdateDetails(ctx context.Context, businessID, id, notes, bankDetails string) error

	// Convert atomically inserts the materialized invoice and marks the
	// estimate converted with the back-reference. Returns ErrDuplicate
	// on an invoice number collision; on any error neither write is
	// visible.
	Convert(ctx context.Context, estimateID string, inv document.Invoice, at time.Time) error
}

// RecurringStore persists recurring invoice templates. Implementations
// own the firing write because the invoice insert and the template
// advance must commit atomically.
type RecurringStore interface {
	// Get retrieves a template by ID scoped to a business.
	Get(ctx context.Context, businessID, id string) (document.RecurringInvoice, error)

	// Create stores a new template.
	Create(ctx context.Context, r document.RecurringInvoice) error

	// Update modifies an existing template.
	Update(ctx context.Context, r document.RecurringInvoice) error

	// ListByBusiness returns templates newest first.
	ListByBusiness(ctx context.Context, businessID string) ([]document.RecurringInvoice, error)

	// ListDue returns active templates whose next invoice date is at or
	// before now.
	ListDue(ctx context.Context, now time.Time) ([]document.RecurringInvoice, error)

	// SetStatus pauses, resumes or completes a template.
	SetStatus(ctx context.Context, businessID, id string, status document.RecurringStatus) error

	// Generate atomically inserts the generated invoice and stores the
	// already-advanced template (counter, last invoice, next date,
	// status). Returns ErrDuplicate on an invoice number collision; on
	// any error neither write is visible.
	Generate(ctx context.Context, inv document.Invoice, advanced document.RecurringInvoice) error
}
