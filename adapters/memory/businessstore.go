// Package memory provides in-memory implementations of storage ports,
// used in tests and zero-config runs.
package memory

import (
	"context"
	"sync"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/ports"
)

// BusinessStore is an in-memory implementation of ports.BusinessStore.
type BusinessStore struct {
	mu         sync.RWMutex
	businesses map[string]document.Business // by ID
	byOwner    map[string]string            // owner ID -> business ID
}

// NewBusinessStore creates a new in-memory business store.
func NewBusinessStore() *BusinessStore {
	return &BusinessStore{
		businesses: make(map[string]document.Business),
		byOwner:    make(map[string]string),
	}
}

// Get retrieves a business by ID.
func (s *BusinessStore) Get(ctx context.Context, id string) (document.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.businesses[id]
	if !ok {
		return document.Business{}, ports.ErrNotFound
	}
	return b, nil
}

// GetByOwner retrieves the business owned by a user.
func (s *BusinessStore) GetByOwner(ctx context.Context, ownerID string) (document.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOwner[ownerID]
	if !ok {
		return document.Business{}, ports.ErrNotFound
	}
	return s.businesses[id], nil
}

// Create stores a new business.
func (s *BusinessStore) Create(ctx context.Context, b document.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.businesses[b.ID]; exists {
		return ports.ErrDuplicate
	}
	if _, exists := s.byOwner[b.OwnerID]; exists {
		return ports.ErrDuplicate
	}

	s.businesses[b.ID] = b
	s.byOwner[b.OwnerID] = b.ID
	return nil
}

// Update modifies an existing business.
func (s *BusinessStore) Update(ctx context.Context, b document.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.businesses[b.ID]
	if !ok {
		return ports.ErrNotFound
	}

	if old.OwnerID != b.OwnerID {
		delete(s.byOwner, old.OwnerID)
		s.byOwner[b.OwnerID] = b.ID
	}
	s.businesses[b.ID] = b
	return nil
}

// SetPlan updates the owner's subscription tier.
func (s *BusinessStore) SetPlan(ctx context.Context, ownerID, plan string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byOwner[ownerID]
	if !ok {
		return ports.ErrNotFound
	}
	b := s.businesses[id]
	b.Plan = plan
	s.businesses[id] = b
	return nil
}

// Ensure interface compliance.
var _ ports.BusinessStore = (*BusinessStore)(nil)
