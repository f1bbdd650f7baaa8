package memory

import (
	"context"
	"sync"
	"time"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/lifecycle"
	"github.com/facturo/facturo/ports"
)

// InvoiceStore is an in-memory implementation of ports.InvoiceStore.
// The (business, number) pair is unique: a losing concurrent creation
// gets ErrDuplicate exactly like the database unique index.
type InvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]document.Invoice // by ID
	byToken  map[string]string           // public token -> ID
	numbers  map[string]bool             // businessID + "\x00" + number
	order    map[string][]string         // businessID -> IDs in creation order
}

// NewInvoiceStore creates a new in-memory invoice store.
func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{
		invoices: make(map[string]document.Invoice),
		byToken:  make(map[string]string),
		numbers:  make(map[string]bool),
		order:    make(map[string][]string),
	}
}

func numberKey(businessID, number string) string {
	return businessID + "\x00" + number
}

// Get retrieves an invoice by ID scoped to a business.
func (s *InvoiceStore) Get(ctx context.Context, businessID, id string) (document.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok || inv.BusinessID != businessID {
		return document.Invoice{}, ports.ErrNotFound
	}
	return inv, nil
}

// GetByID retrieves an invoice without tenant scoping.
func (s *InvoiceStore) GetByID(ctx context.Context, id string) (document.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return document.Invoice{}, ports.ErrNotFound
	}
	return inv, nil
}

// GetByToken retrieves an invoice by its public sharing token.
func (s *InvoiceStore) GetByToken(ctx context.Context, token string) (document.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[token]
	if !ok {
		return document.Invoice{}, ports.ErrNotFound
	}
	return s.invoices[id], nil
}

// Create stores a new invoice, rejecting number collisions.
func (s *InvoiceStore) Create(ctx context.Context, inv document.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(inv)
}

// createLocked is the insert shared with the compound conversion and
// generation writes. Caller holds the write lock.
func (s *InvoiceStore) createLocked(inv document.Invoice) error {
	if _, exists := s.invoices[inv.ID]; exists {
		return ports.ErrDuplicate
	}
	key := numberKey(inv.BusinessID, inv.Number)
	if s.numbers[key] {
		return ports.ErrDuplicate
	}

	s.invoices[inv.ID] = inv
	s.byToken[inv.PublicToken] = inv.ID
	s.numbers[key] = true
	s.order[inv.BusinessID] = append(s.order[inv.BusinessID], inv.ID)
	return nil
}

// LastNumber returns the most recently created invoice's number.
func (s *InvoiceStore) LastNumber(ctx context.Context, businessID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[businessID]
	if len(ids) == 0 {
		return "", nil
	}
	return s.invoices[ids[len(ids)-1]].Number, nil
}

// ListByBusiness returns invoices newest first.
func (s *InvoiceStore) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]document.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[businessID]
	var out []document.Invoice
	for i := len(ids) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.invoices[ids[i]])
	}
	return out, nil
}

// UpdateStatus stores a status transition.
func (s *InvoiceStore) UpdateStatus(ctx context.Context, businessID, id string, status lifecycle.InvoiceStatus, paidAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok || inv.BusinessID != businessID {
		return ports.ErrNotFound
	}
	inv.Status = status
	inv.PaidAt = paidAt
	s.invoices[id] = inv
	return nil
}

// UpdateDetails modifies notes and bank details.
func (s *InvoiceStore) UpdateDetails(ctx context.Context, businessID, id, notes, bankDetails string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok || inv.BusinessID != businessID {
		return ports.ErrNotFound
	}
	inv.Notes = notes
	inv.BankDetails = bankDetails
	s.invoices[id] = inv
	return nil
}

// UpdateEmailTracking replaces the email delivery tracking state.
func (s *InvoiceStore) UpdateEmailTracking(ctx context.Context, id string, t document.EmailTracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return ports.ErrNotFound
	}
	inv.Email = t
	s.invoices[id] = inv
	return nil
}

// CountByAuthor returns the author's lifetime invoice count.
func (s *InvoiceStore) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, inv := range s.invoices {
		if inv.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

// CountByAuthorBetween counts invoices created in [start, end).
func (s *InvoiceStore) CountByAuthorBetween(ctx context.Context, authorID string, start, end time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, inv := range s.invoices {
		if inv.AuthorID != authorID {
			continue
		}
		if !inv.CreatedAt.Before(start) && inv.CreatedAt.Before(end) {
			n++
		}
	}
	return n, nil
}

// Ensure interface compliance.
var _ ports.InvoiceStore = (*InvoiceStore)(nil)
