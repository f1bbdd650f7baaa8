package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/ports"
)

// BusinessStore implements ports.BusinessStore using SQLite.
type BusinessStore struct {
	db *DB
}

// NewBusinessStore creates a new SQLite business store.
func NewBusinessStore(db *DB) *BusinessStore {
	return &BusinessStore{db: db}
}

const businessColumns = `id, owner_id, name, email, address, phone, tax_id,
	currency, plan, extra_credits, created_at, updated_at`

// Get retrieves a business by ID.
func (s *BusinessStore) Get(ctx context.Context, id string) (document.Business, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id)
	return scanBusiness(row)
}

// GetByOwner retrieves the business owned by a user.
func (s *BusinessStore) GetByOwner(ctx context.Context, ownerID string) (document.Business, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE owner_id = ?`, ownerID)
	return scanBusiness(row)
}

// Create stores a new business.
func (s *BusinessStore) Create(ctx context.Context, b document.Business) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO businesses (
			id, owner_id, name, email, address, phone, tax_id,
			currency, plan, extra_credits, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, b.OwnerID, b.Name, b.Email, b.Address, b.Phone, b.TaxID,
		b.Currency, b.Plan, b.ExtraCredits, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil && isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// Update modifies an existing business.
func (s *BusinessStore) Update(ctx context.Context, b document.Business) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE businesses
		SET name = ?, email = ?, address = ?, phone = ?, tax_id = ?,
		    currency = ?, extra_credits = ?, updated_at = ?
		WHERE id = ?
	`,
		b.Name, b.Email, b.Address, b.Phone, b.TaxID,
		b.Currency, b.ExtraCredits, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// SetPlan updates the owner's subscription tier.
func (s *BusinessStore) SetPlan(ctx context.Context, ownerID, plan string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE businesses SET plan = ? WHERE owner_id = ?`, plan, ownerID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func scanBusiness(row rowScanner) (document.Business, error) {
	var b document.Business
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Email, &b.Address, &b.Phone, &b.TaxID,
		&b.Currency, &b.Plan, &b.ExtraCredits, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Business{}, ports.ErrNotFound
	}
	if err != nil {
		return document.Business{}, err
	}
	return b, nil
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Ensure interface compliance.
var _ ports.BusinessStore = (*BusinessStore)(nil)
