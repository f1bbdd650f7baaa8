package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/lifecycle"
	"github.com/facturo/facturo/ports"
)

// InvoiceStore implements ports.InvoiceStore using SQLite. The
// (business_id, number) unique index is the arbiter between concurrent
// creations racing for the same number.
type InvoiceStore struct {
	db *DB
}

// NewInvoiceStore creates a new SQLite invoice store.
func NewInvoiceStore(db *DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

const invoiceColumns = `id, business_id, client_id, author_id, number, items,
	subtotal, discount_pct, shipping, total, currency,
	issue_date, due_date, status, paid_at, notes, bank_details,
	company, bill_to, public_token, source_estimate_id, source_template_id,
	email_tracking, created_at, updated_at`

// Get retrieves an invoice by ID scoped to a business.
func (s *InvoiceStore) Get(ctx context.Context, businessID, id string) (document.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE business_id = ? AND id = ?`,
		businessID, id)
	return scanInvoice(row)
}

// GetByID retrieves an invoice without tenant scoping.
func (s *InvoiceStore) GetByID(ctx context.Context, id string) (document.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	return scanInvoice(row)
}

// GetByToken retrieves an invoice by its public sharing token.
func (s *InvoiceStore) GetByToken(ctx context.Context, token string) (document.Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE public_token = ?`, token)
	return scanInvoice(row)
}

// Create stores a new invoice.
func (s *InvoiceStore) Create(ctx context.Context, inv document.Invoice) error {
	return insertInvoice(ctx, s.db, inv)
}

// insertInvoice writes one invoice row through db or an open
// transaction.
func insertInvoice(ctx context.Context, q execer, inv document.Invoice) error {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	companyJSON, err := json.Marshal(inv.Company)
	if err != nil {
		return err
	}
	billToJSON, err := json.Marshal(inv.BillTo)
	if err != nil {
		return err
	}
	emailJSON, err := json.Marshal(inv.Email)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO invoices (
			id, business_id, client_id, author_id, number, items,
			subtotal, discount_pct, shipping, total, currency,
			issue_date, due_date, status, paid_at, notes, bank_details,
			company, bill_to, public_token, source_estimate_id, source_template_id,
			email_tracking, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.BusinessID, inv.ClientID, inv.AuthorID, inv.Number, string(itemsJSON),
		inv.Subtotal.String(), inv.DiscountPct.String(), inv.Shipping.String(),
		inv.Total.String(), inv.Currency,
		inv.IssueDate, inv.DueDate, string(inv.Status), nullTime(inv.PaidAt),
		inv.Notes, inv.BankDetails,
		string(companyJSON), string(billToJSON), inv.PublicToken,
		nullString(inv.SourceEstimateID), nullString(inv.SourceTemplateID),
		string(emailJSON), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil && isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// LastNumber returns the most recently created invoice's number for a
// business. Recency is insertion order, not numeric order.
func (s *InvoiceStore) LastNumber(ctx context.Context, businessID string) (string, error) {
	var number string
	err := s.db.QueryRowContext(ctx, `
		SELECT number FROM invoices
		WHERE business_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, businessID).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return number, err
}

// ListByBusiness returns invoices newest first.
func (s *InvoiceStore) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]document.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE business_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, businessID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []document.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// UpdateStatus stores a status transition.
func (s *InvoiceStore) UpdateStatus(ctx context.Context, businessID, id string, status lifecycle.InvoiceStatus, paidAt *time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = ?, paid_at = COALESCE(?, paid_at)
		WHERE business_id = ? AND id = ?
	`, string(status), nullTime(paidAt), businessID, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// UpdateDetails modifies notes and bank details.
func (s *InvoiceStore) UpdateDetails(ctx context.Context, businessID, id, notes, bankDetails string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET notes = ?, bank_details = ?
		WHERE business_id = ? AND id = ?
	`, notes, bankDetails, businessID, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// UpdateEmailTracking replaces the email delivery tracking state.
func (s *InvoiceStore) UpdateEmailTracking(ctx context.Context, id string, t document.EmailTracking) error {
	emailJSON, err := json.Marshal(t)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET email_tracking = ? WHERE id = ?`, string(emailJSON), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// CountByAuthor returns the author's lifetime invoice count.
func (s *InvoiceStore) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE author_id = ?`, authorID).Scan(&count)
	return count, err
}

// CountByAuthorBetween counts invoices created in [start, end).
func (s *InvoiceStore) CountByAuthorBetween(ctx context.Context, authorID string, start, end time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invoices
		WHERE author_id = ? AND created_at >= ? AND created_at < ?
	`, authorID, start, end).Scan(&count)
	return count, err
}

func scanInvoice(row rowScanner) (document.Invoice, error) {
	var inv document.Invoice
	var status, itemsJSON, companyJSON, billToJSON, emailJSON string
	var subtotal, discountPct, shipping, total string
	var paidAt sql.NullTime
	var sourceEstimate, sourceTemplate sql.NullString

	err := row.Scan(
		&inv.ID, &inv.BusinessID, &inv.ClientID, &inv.AuthorID, &inv.Number, &itemsJSON,
		&subtotal, &discountPct, &shipping, &total, &inv.Currency,
		&inv.IssueDate, &inv.DueDate, &status, &paidAt, &inv.Notes, &inv.BankDetails,
		&companyJSON, &billToJSON, &inv.PublicToken, &sourceEstimate, &sourceTemplate,
		&emailJSON, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Invoice{}, ports.ErrNotFound
	}
	if err != nil {
		return document.Invoice{}, err
	}

	inv.Status = lifecycle.InvoiceStatus(status)
	inv.PaidAt = timePtr(paidAt)
	inv.SourceEstimateID = sourceEstimate.String
	inv.SourceTemplateID = sourceTemplate.String

	if err := json.Unmarshal([]byte(itemsJSON), &inv.Items); err != nil {
		return document.Invoice{}, err
	}
	if err := json.Unmarshal([]byte(companyJSON), &inv.Company); err != nil {
		return document.Invoice{}, err
	}
	if err := json.Unmarshal([]byte(billToJSON), &inv.BillTo); err != nil {
		return document.Invoice{}, err
	}
	if err := json.Unmarshal([]byte(emailJSON), &inv.Email); err != nil {
		return document.Invoice{}, err
	}

	if inv.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return document.Invoice{}, err
	}
	if inv.DiscountPct, err = decimal.NewFromString(discountPct); err != nil {
		return document.Invoice{}, err
	}
	if inv.Shipping, err = decimal.NewFromString(shipping); err != nil {
		return document.Invoice{}, err
	}
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return document.Invoice{}, err
	}
	return inv, nil
}

// Ensure interface compliance.
var _ ports.InvoiceStore = (*InvoiceStore)(nil)
