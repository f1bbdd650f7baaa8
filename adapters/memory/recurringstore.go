package memory

import (
	"context"
	"sync"
	"time"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/ports"
)

// RecurringStore is an in-memory implementation of ports.RecurringStore.
// It holds a reference to the invoice store so Generate can commit the
// invoice insert and the template advance as one unit.
type RecurringStore struct {
	mu        sync.RWMutex
	templates map[string]document.RecurringInvoice // by ID
	order     []string                             // insertion order
	invoices  *InvoiceStore
}

// NewRecurringStore creates a new in-memory recurring store backed by
// the given invoice store for generation.
func NewRecurringStore(invoices *InvoiceStore) *RecurringStore {
	return &RecurringStore{
		templates: make(map[string]document.RecurringInvoice),
		invoices:  invoices,
	}
}

// Get retrieves a template by ID scoped to a business.
func (s *RecurringStore) Get(ctx context.Context, businessID, id string) (document.RecurringInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.templates[id]
	if !ok || r.BusinessID != businessID {
		return document.RecurringInvoice{}, ports.ErrNotFound
	}
	return r, nil
}

// Create stores a new template.
func (s *RecurringStore) Create(ctx context.Context, r document.RecurringInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[r.ID]; exists {
		return ports.ErrDuplicate
	}
	s.templates[r.ID] = r
	s.order = append(s.order, r.ID)
	return nil
}

// Update modifies an existing template.
func (s *RecurringStore) Update(ctx context.Context, r document.RecurringInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.templates[r.ID]
	if !ok || old.BusinessID != r.BusinessID {
		return ports.ErrNotFound
	}
	s.templates[r.ID] = r
	return nil
}

// ListByBusiness returns templates newest first.
func (s *RecurringStore) ListByBusiness(ctx context.Context, businessID string) ([]document.RecurringInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.RecurringInvoice
	for i := len(s.order) - 1; i >= 0; i-- {
		if r := s.templates[s.order[i]]; r.BusinessID == businessID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListDue returns active templates whose next invoice date has arrived.
func (s *RecurringStore) ListDue(ctx context.Context, now time.Time) ([]document.RecurringInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.RecurringInvoice
	for _, id := range s.order {
		if r := s.templates[id]; r.Due(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

// SetStatus pauses, resumes or completes a template.
func (s *RecurringStore) SetStatus(ctx context.Context, businessID, id string, status document.RecurringStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.templates[id]
	if !ok || r.BusinessID != businessID {
		return ports.ErrNotFound
	}
	r.Status = status
	s.templates[id] = r
	return nil
}

// Generate inserts the generated invoice and stores the advanced
// template. A number collision leaves the template untouched.
func (s *RecurringStore) Generate(ctx context.Context, inv document.Invoice, advanced document.RecurringInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[advanced.ID]; !ok {
		return ports.ErrNotFound
	}

	s.invoices.mu.Lock()
	err := s.invoices.createLocked(inv)
	s.invoices.mu.Unlock()
	if err != nil {
		return err
	}

	s.templates[advanced.ID] = advanced
	return nil
}

// Ensure interface compliance.
var _ ports.RecurringStore = (*RecurringStore)(nil)
