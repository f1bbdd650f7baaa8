package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/ports"
)

// ClientStore implements ports.ClientStore using SQLite.
type ClientStore struct {
	db *DB
}

// NewClientStore creates a new SQLite client store.
func NewClientStore(db *DB) *ClientStore {
	return &ClientStore{db: db}
}

const clientColumns = `id, business_id, name, email, phone, address, created_at, updated_at`

// Get retrieves a client by ID scoped to a business.
func (s *ClientStore) Get(ctx context.Context, businessID, id string) (document.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE business_id = ? AND id = ?`,
		businessID, id)
	return scanClient(row)
}

// ListByBusiness returns all clients of a business.
func (s *ClientStore) ListByBusiness(ctx context.Context, businessID string) ([]document.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE business_id = ? ORDER BY created_at, id`,
		businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []document.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Create stores a new client.
func (s *ClientStore) Create(ctx context.Context, c document.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, business_id, name, email, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.BusinessID, c.Name, c.Email, c.Phone, c.Address, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil && isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// Update modifies an existing client.
func (s *ClientStore) Update(ctx context.Context, c document.Client) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, address = ?, updated_at = ?
		WHERE business_id = ? AND id = ?
	`,
		c.Name, c.Email, c.Phone, c.Address, c.UpdatedAt, c.BusinessID, c.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes a client.
func (s *ClientStore) Delete(ctx context.Context, businessID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM clients WHERE business_id = ? AND id = ?`, businessID, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func scanClient(row rowScanner) (document.Client, error) {
	var c document.Client
	err := row.Scan(
		&c.ID, &c.BusinessID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Client{}, ports.ErrNotFound
	}
	if err != nil {
		return document.Client{}, err
	}
	return c, nil
}

// Ensure interface compliance.
var _ ports.ClientStore = (*ClientStore)(nil)
