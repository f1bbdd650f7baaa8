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

// EstimateStore implements ports.EstimateStore using SQLite.
type EstimateStore struct {
	db *DB
}

// NewEstimateStore creates a new SQLite estimate store.
func NewEstimateStore(db *DB) *EstimateStore {
	return &EstimateStore{db: db}
}

const estimateColumns = `id, business_id, client_id, author_id, number, items,
	subtotal, discount_pct, shipping, total, currency,
	issue_date, valid_until, status, notes, bank_details,
	company, bill_to, public_token, converted_to_invoice_id, converted_at,
	created_at, updated_at`

// Get retrieves an estimate by ID scoped to a business.
func (s *EstimateStore) Get(ctx context.Context, businessID, id string) (document.Estimate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+estimateColumns+` FROM estimates WHERE business_id = ? AND id = ?`,
		businessID, id)
	return scanEstimate(row)
}

// GetByToken retrieves an estimate by its public sharing token.
func (s *EstimateStore) GetByToken(ctx context.Context, token string) (document.Estimate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+estimateColumns+` FROM estimates WHERE public_token = ?`, token)
	return scanEstimate(row)
}

// Create stores a new estimate.
func (s *EstimateStore) Create(ctx context.Context, est document.Estimate) error {
	itemsJSON, err := json.Marshal(est.Items)
	if err != nil {
		return err
	}
	companyJSON, err := json.Marshal(est.Company)
	if err != nil {
		return err
	}
	billToJSON, err := json.Marshal(est.BillTo)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO estimates (
			id, business_id, client_id, author_id, number, items,
			subtotal, discount_pct, shipping, total, currency,
			issue_date, valid_until, status, notes, bank_details,
			company, bill_to, public_token, converted_to_invoice_id, converted_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		est.ID, est.BusinessID, est.ClientID, est.AuthorID, est.Number, string(itemsJSON),
		est.Subtotal.String(), est.DiscountPct.String(), est.Shipping.String(),
		est.Total.String(), est.Currency,
		est.IssueDate, est.ValidUntil, string(est.Status), est.Notes, est.BankDetails,
		string(companyJSON), string(billToJSON), est.PublicToken,
		nullString(est.ConvertedToInvoiceID), nullTime(est.ConvertedAt),
		est.CreatedAt, est.UpdatedAt,
	)
	if err != nil && isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// LastNumber returns the most recently created estimate's number for a
// business.
func (s *EstimateStore) LastNumber(ctx context.Context, businessID string) (string, error) {
	var number string
	err := s.db.QueryRowContext(ctx, `
		SELECT number FROM estimates
		WHERE business_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, businessID).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return number, err
}

// ListByBusiness returns estimates newest first.
func (s *EstimateStore) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]document.Estimate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+estimateColumns+` FROM estimates
		WHERE business_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, businessID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var estimates []document.Estimate
	for rows.Next() {
		est, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, est)
	}
	return estimates, rows.Err()
}

// UpdateStatus stores a status transition.
func (s *EstimateStore) UpdateStatus(ctx context.Context, businessID, id string, status lifecycle.EstimateStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE estimates SET status = ? WHERE business_id = ? AND id = ?
	`, string(status), businessID, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// UpdateDetails modifies notes and bank details.
func (s *EstimateStore) UpdateDetails(ctx context.Context, businessID, id, notes, bankDetails string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE estimates SET notes = ?, bank_details = ? WHERE business_id = ? AND id = ?
	`, notes, bankDetails, businessID, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Convert inserts the materialized invoice and marks the estimate
// converted in one transaction. A rollback on either write leaves both
// tables untouched.
func (s *EstimateStore) Convert(ctx context.Context, estimateID string, inv document.Invoice, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertInvoice(ctx, tx, inv); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE estimates
		SET status = ?, converted_to_invoice_id = ?, converted_at = ?, updated_at = ?
		WHERE id = ?
	`, string(lifecycle.EstimateConverted), inv.ID, at, at, estimateID)
	if err != nil {
		return err
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}

func scanEstimate(row rowScanner) (document.Estimate, error) {
	var est document.Estimate
	var status, itemsJSON, companyJSON, billToJSON string
	var subtotal, discountPct, shipping, total string
	var convertedTo sql.NullString
	var convertedAt sql.NullTime

	err := row.Scan(
		&est.ID, &est.BusinessID, &est.ClientID, &est.AuthorID, &est.Number, &itemsJSON,
		&subtotal, &discountPct, &shipping, &total, &est.Currency,
		&est.IssueDate, &est.ValidUntil, &status, &est.Notes, &est.BankDetails,
		&companyJSON, &billToJSON, &est.PublicToken, &convertedTo, &convertedAt,
		&est.CreatedAt, &est.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Estimate{}, ports.ErrNotFound
	}
	if err != nil {
		return document.Estimate{}, err
	}

	est.Status = lifecycle.EstimateStatus(status)
	est.ConvertedToInvoiceID = convertedTo.String
	est.ConvertedAt = timePtr(convertedAt)

	if err := json.Unmarshal([]byte(itemsJSON), &est.Items); err != nil {
		return document.Estimate{}, err
	}
	if err := json.Unmarshal([]byte(companyJSON), &est.Company); err != nil {
		return document.Estimate{}, err
	}
	if err := json.Unmarshal([]byte(billToJSON), &est.BillTo); err != nil {
		return document.Estimate{}, err
	}

	if est.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return document.Estimate{}, err
	}
	if est.DiscountPct, err = decimal.NewFromString(discountPct); err != nil {
		return document.Estimate{}, err
	}
	if est.Shipping, err = decimal.NewFromString(shipping); err != nil {
		return document.Estimate{}, err
	}
	if est.Total, err = decimal.NewFromString(total); err != nil {
		return document.Estimate{}, err
	}
	return est, nil
}

// Ensure interface compliance.
var _ ports.EstimateStore = (*EstimateStore)(nil)
