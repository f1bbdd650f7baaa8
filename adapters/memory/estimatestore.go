package memory

import (
	"context"
	"sync"
	"time"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/lifecycle"
	"github.com/facturo/facturo/ports"
)

// EstimateStore is an in-memory implementation of ports.EstimateStore.
// It holds a reference to the invoice store so Convert can commit the
// invoice insert and the estimate flip as one unit.
type EstimateStore struct {
	mu        sync.RWMutex
	estimates map[string]document.Estimate // by ID
	byToken   map[string]string            // public token -> ID
	numbers   map[string]bool              // businessID + "\x00" + number
	order     map[string][]string          // businessID -> IDs in creation order
	invoices  *InvoiceStore
}

// NewEstimateStore creates a new in-memory estimate store backed by the
// given invoice store for conversions.
func NewEstimateStore(invoices *InvoiceStore) *EstimateStore {
	return &EstimateStore{
		estimates: make(map[string]document.Estimate),
		byToken:   make(map[string]string),
		numbers:   make(map[string]bool),
		order:     make(map[string][]string),
		invoices:  invoices,
	}
}

// Get retrieves an estimate by ID scoped to a business.
func (s *EstimateStore) Get(ctx context.Context, businessID, id string) (document.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	est, ok := s.estimates[id]
	if !ok || est.BusinessID != businessID {
		return document.Estimate{}, ports.ErrNotFound
	}
	return est, nil
}

// GetByToken retrieves an estimate by its public sharing token.
func (s *EstimateStore) GetByToken(ctx context.Context, token string) (document.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[token]
	if !ok {
		return document.Estimate{}, ports.ErrNotFound
	}
	return s.estimates[id], nil
}

// Create stores a new estimate, rejecting number collisions.
func (s *EstimateStore) Create(ctx context.Context, est document.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.estimates[est.ID]; exists {
		return ports.ErrDuplicate
	}
	key := numberKey(est.BusinessID, est.Number)
	if s.numbers[key] {
		return ports.ErrDuplicate
	}

	s.estimates[est.ID] = est
	s.byToken[est.PublicToken] = est.ID
	s.numbers[key] = true
	s.order[est.BusinessID] = append(s.order[est.BusinessID], est.ID)
	return nil
}

// LastNumber returns the most recently created estimate's number.
func (s *EstimateStore) LastNumber(ctx context.Context, businessID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[businessID]
	if len(ids) == 0 {
		return "", nil
	}
	return s.estimates[ids[len(ids)-1]].Number, nil
}

// ListByBusiness returns estimates newest first.
func (s *EstimateStore) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]document.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[businessID]
	var out []document.Estimate
	for i := len(ids) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.estimates[ids[i]])
	}
	return out, nil
}

// UpdateStatus stores a status transition.
func (s *EstimateStore) UpdateStatus(ctx context.Context, businessID, id string, status lifecycle.EstimateStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	est, ok := s.estimates[id]
	if !ok || est.BusinessID != businessID {
		return ports.ErrNotFound
	}
	est.Status = status
	s.estimates[id] = est
	return nil
}

// UpdateDetails modifies notes and bank details.
func (s *EstimateStore) UpdateDetails(ctx context.Context, businessID, id, notes, bankDetails string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	est, ok := s.estimates[id]
	if !ok || est.BusinessID != businessID {
		return ports.ErrNotFound
	}
	est.Notes = notes
	est.BankDetails = bankDetails
	s.estimates[id] = est
	return nil
}

// Convert inserts the materialized invoice and marks the estimate
// converted. The invoice insert is checked first so a number collision
// leaves the estimate untouched.
func (s *EstimateStore) Convert(ctx context.Context, estimateID string, inv document.Invoice, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	est, ok := s.estimates[estimateID]
	if !ok {
		return ports.ErrNotFound
	}

	s.invoices.mu.Lock()
	err := s.invoices.createLocked(inv)
	s.invoices.mu.Unlock()
	if err != nil {
		return err
	}

	est.Status = lifecycle.EstimateConverted
	est.ConvertedToInvoiceID = inv.ID
	est.ConvertedAt = &at
	est.UpdatedAt = at
	s.estimates[estimateID] = est
	return nil
}

// Ensure interface compliance.
var _ ports.EstimateStore = (*EstimateStore)(nil)
