package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/schedule"
	"github.com/facturo/facturo/ports"
)

// RecurringStore implements ports.RecurringStore using SQLite.
type RecurringStore struct {
	db *DB
}

// NewRecurringStore creates a new SQLite recurring invoice store.
func NewRecurringStore(db *DB) *RecurringStore {
	return &RecurringStore{db: db}
}

const recurringColumns = `id, business_id, client_id, author_id, items,
	notes, bank_details, currency, discount_pct, shipping,
	frequency, start_date, end_date, day_of_month, day_of_week,
	payment_terms_days, auto_send, status, next_invoice_date,
	invoices_generated, last_invoice_id, last_generated_at,
	created_at, updated_at`

// Get retrieves a template by ID scoped to a business.
func (s *RecurringStore) Get(ctx context.Context, businessID, id string) (document.RecurringInvoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_invoices WHERE business_id = ? AND id = ?`,
		businessID, id)
	return scanRecurring(row)
}

// Create stores a new template.
func (s *RecurringStore) Create(ctx context.Context, r document.RecurringInvoice) error {
	itemsJSON, err := json.Marshal(r.Items)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recurring_invoices (
			id, business_id, client_id, author_id, items,
			notes, bank_details, currency, discount_pct, shipping,
			frequency, start_date, end_date, day_of_month, day_of_week,
			payment_terms_days, auto_send, status, next_invoice_date,
			invoices_generated, last_invoice_id, last_generated_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, recurringArgs(r, itemsJSON)...)
	if err != nil && isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// Update modifies an existing template.
func (s *RecurringStore) Update(ctx context.Context, r document.RecurringInvoice) error {
	itemsJSON, err := json.Marshal(r.Items)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, updateRecurringSQL,
		updateRecurringArgs(r, itemsJSON)...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ListByBusiness returns templates newest first.
func (s *RecurringStore) ListByBusiness(ctx context.Context, businessID string) ([]document.RecurringInvoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_invoices
		WHERE business_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListDue returns active templates whose next invoice date has arrived.
func (s *RecurringStore) ListDue(ctx context.Context, now time.Time) ([]document.RecurringInvoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_invoices
		WHERE status = ? AND next_invoice_date <= ?
		ORDER BY next_invoice_date
	`, string(document.RecurringActive), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// SetStatus pauses, resumes or completes a template.
func (s *RecurringStore) SetStatus(ctx context.Context, businessID, id string, status document.RecurringStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE recurring_invoices SET status = ? WHERE business_id = ? AND id = ?
	`, string(status), businessID, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Generate inserts the generated invoice and stores the advanced
// template in one transaction.
func (s *RecurringStore) Generate(ctx context.Context, inv document.Invoice, advanced document.RecurringInvoice) error {
	itemsJSON, err := json.Marshal(advanced.Items)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertInvoice(ctx, tx, inv); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, updateRecurringSQL,
		updateRecurringArgs(advanced, itemsJSON)...)
	if err != nil {
		return err
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}

const updateRecurringSQL = `
	UPDATE recurring_invoices
	SET items = ?, notes = ?, bank_details = ?, currency = ?,
	    discount_pct = ?, shipping = ?, frequency = ?,
	    start_date = ?, end_date = ?, day_of_month = ?, day_of_week = ?,
	    payment_terms_days = ?, auto_send = ?, status = ?,
	    next_invoice_date = ?, invoices_generated = ?,
	    last_invoice_id = ?, last_generated_at = ?, updated_at = ?
	WHERE business_id = ? AND id = ?
`

func recurringArgs(r document.RecurringInvoice, itemsJSON []byte) []interface{} {
	return []interface{}{
		r.ID, r.BusinessID, r.ClientID, r.AuthorID, string(itemsJSON),
		r.Notes, r.BankDetails, r.Currency, r.DiscountPct.String(), r.Shipping.String(),
		string(r.Frequency), r.StartDate, nullTime(r.EndDate), r.DayOfMonth, nullWeekday(r.DayOfWeek),
		r.PaymentTermsDays, r.AutoSend, string(r.Status), r.NextInvoiceDate,
		r.InvoicesGenerated, nullString(r.LastInvoiceID), nullTime(r.LastGeneratedAt),
		r.CreatedAt, r.UpdatedAt,
	}
}

func updateRecurringArgs(r document.RecurringInvoice, itemsJSON []byte) []interface{} {
	return []interface{}{
		string(itemsJSON), r.Notes, r.BankDetails, r.Currency,
		r.DiscountPct.String(), r.Shipping.String(), string(r.Frequency),
		r.StartDate, nullTime(r.EndDate), r.DayOfMonth, nullWeekday(r.DayOfWeek),
		r.PaymentTermsDays, r.AutoSend, string(r.Status),
		r.NextInvoiceDate, r.InvoicesGenerated,
		nullString(r.LastInvoiceID), nullTime(r.LastGeneratedAt), r.UpdatedAt,
		r.BusinessID, r.ID,
	}
}

func nullWeekday(d *time.Weekday) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func collectRecurring(rows *sql.Rows) ([]document.RecurringInvoice, error) {
	var templates []document.RecurringInvoice
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, r)
	}
	return templates, rows.Err()
}

func scanRecurring(row rowScanner) (document.RecurringInvoice, error) {
	var r document.RecurringInvoice
	var itemsJSON, frequency, status string
	var discountPct, shipping string
	var endDate, lastGeneratedAt sql.NullTime
	var dayOfWeek sql.NullInt64
	var lastInvoiceID sql.NullString

	err := row.Scan(
		&r.ID, &r.BusinessID, &r.ClientID, &r.AuthorID, &itemsJSON,
		&r.Notes, &r.BankDetails, &r.Currency, &discountPct, &shipping,
		&frequency, &r.StartDate, &endDate, &r.DayOfMonth, &dayOfWeek,
		&r.PaymentTermsDays, &r.AutoSend, &status, &r.NextInvoiceDate,
		&r.InvoicesGenerated, &lastInvoiceID, &lastGeneratedAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return document.RecurringInvoice{}, ports.ErrNotFound
	}
	if err != nil {
		return document.RecurringInvoice{}, err
	}

	r.Frequency = schedule.Frequency(frequency)
	r.Status = document.RecurringStatus(status)
	r.EndDate = timePtr(endDate)
	r.LastGeneratedAt = timePtr(lastGeneratedAt)
	r.LastInvoiceID = lastInvoiceID.String
	if dayOfWeek.Valid {
		d := time.Weekday(dayOfWeek.Int64)
		r.DayOfWeek = &d
	}

	if err := json.Unmarshal([]byte(itemsJSON), &r.Items); err != nil {
		return document.RecurringInvoice{}, err
	}
	if r.DiscountPct, err = decimal.NewFromString(discountPct); err != nil {
		return document.RecurringInvoice{}, err
	}
	if r.Shipping, err = decimal.NewFromString(shipping); err != nil {
		return document.RecurringInvoice{}, err
	}
	return r, nil
}

// Ensure interface compliance.
var _ ports.RecurringStore = (*RecurringStore)(nil)
