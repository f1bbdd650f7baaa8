// Package document provides the billing document value types: tenants,
// clients, invoices, estimates and recurring templates.
package document

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/domain/lifecycle"
	"github.com/facturo/facturo/domain/money"
	"github.com/facturo/facturo/domain/schedule"
)

// Business is a tenant-owned company profile.
type Business struct {
	ID           string
	OwnerID      string
	Name         string
	Email        string
	Address      string
	Phone        string
	TaxID        string
	Currency     string
	Plan         string // subscription tier, maintained by the payments webhook
	ExtraCredits int64  // extra invoice credit balance
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Client belongs to exactly one business. Documents reference it by ID
// but persist a point-in-time snapshot of its billing details.
type Client struct {
	ID         string
	BusinessID string
	Name       string
	Email      string
	Phone      string
	Address    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Party is the bill-to snapshot captured from a client at document
// creation time. Editing the client later never alters it.
type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// SnapshotClient captures a client's current billing details.
func SnapshotClient(c Client) Party {
	return Party{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}

// Company is the issuing-business snapshot on a document.
type Company struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	TaxID   string `json:"tax_id"`
}

// SnapshotBusiness captures a business's current company details.
func SnapshotBusiness(b Business) Company {
	return Company{Name: b.Name, Email: b.Email, Address: b.Address, Phone: b.Phone, TaxID: b.TaxID}
}

// EmailTracking records delivery events reported by the transactional
// email provider for an invoice.
type EmailTracking struct {
	Sent        bool       `json:"sent"`
	Delivered   bool       `json:"delivered"`
	Opened      bool       `json:"opened"`
	Clicked     bool       `json:"clicked"`
	Bounced     bool       `json:"bounced"`
	Complained  bool       `json:"complained"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty"`
	OpenCount   int        `json:"open_count"`
	ClickCount  int        `json:"click_count"`
}

// Invoice is an issued billing document. Amounts and line items are
// immutable after creation; only status, bank details and notes may
// change (product policy).
type Invoice struct {
	ID               string
	BusinessID       string
	ClientID         string
	AuthorID         string
	Number           string // unique per business, monotonically increasing suffix
	Items            []money.LineItem
	Subtotal         decimal.Decimal
	DiscountPct      decimal.Decimal
	Shipping         decimal.Decimal
	Total            decimal.Decimal
	Currency         string
	IssueDate        time.Time
	DueDate          time.Time
	Status           lifecycle.InvoiceStatus
	PaidAt           *time.Time
	Notes            string
	BankDetails      string
	Company          Company
	BillTo           Party
	PublicToken      string // opaque sharing credential
	SourceEstimateID string // set when materialized from an estimate
	SourceTemplateID string // set when generated from a recurring template
	Email            EmailTracking
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Estimate mirrors an invoice but may be converted into one, at most
// once.
type Estimate struct {
	ID                   string
	BusinessID           string
	ClientID             string
	AuthorID             string
	Number               string
	Items                []money.LineItem
	Subtotal             decimal.Decimal
	DiscountPct          decimal.Decimal
	Shipping             decimal.Decimal
	Total                decimal.Decimal
	Currency             string
	IssueDate            time.Time
	ValidUntil           time.Time
	Status               lifecycle.EstimateStatus
	Notes                string
	BankDetails          string
	Company              Company
	BillTo               Party
	PublicToken          string
	ConvertedToInvoiceID string
	ConvertedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// RecurringStatus represents recurring template state.
type RecurringStatus string

const (
	RecurringActive    RecurringStatus = "active"
	RecurringPaused    RecurringStatus = "paused"
	RecurringCompleted RecurringStatus = "completed"
)

// RecurringInvoice is a template the schedule engine materializes
// concrete invoices from. Only the engine advances NextInvoiceDate;
// pause and resume are the sole hand edits.
type RecurringInvoice struct {
	ID                string
	BusinessID        string
	ClientID          string
	AuthorID          string
	Items             []money.LineItem
	Notes             string
	BankDetails       string
	Currency          string
	DiscountPct       decimal.Decimal
	Shipping          decimal.Decimal
	Frequency         schedule.Frequency
	StartDate         time.Time
	EndDate           *time.Time
	DayOfMonth        int           // 0 = unset
	DayOfWeek         *time.Weekday // nil = unset
	PaymentTermsDays  int
	AutoSend          bool
	Status            RecurringStatus
	NextInvoiceDate   time.Time
	InvoicesGenerated int
	LastInvoiceID     string
	LastGeneratedAt   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Anchors returns the template's schedule anchors.
func (r RecurringInvoice) Anchors() schedule.Anchors {
	return schedule.Anchors{DayOfMonth: r.DayOfMonth, DayOfWeek: r.DayOfWeek}
}

// Due reports whether the template should fire at now.
func (r RecurringInvoice) Due(now time.Time) bool {
	return r.Status == RecurringActive && !r.NextInvoiceDate.After(now)
}

// Expired reports whether a next occurrence falls past the template's
// end date, completing the template.
func (r RecurringInvoice) Expired(next time.Time) bool {
	return r.EndDate != nil && next.After(*r.EndDate)
}
