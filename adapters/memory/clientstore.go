package memory

import (
	"context"
	"sync"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/ports"
)

// ClientStore is an in-memory implementation of ports.ClientStore.
type ClientStore struct {
	mu      sync.RWMutex
	clients map[string]document.Client // by ID
	order   []string                   // insertion order
}

// NewClientStore creates a new in-memory client store.
func NewClientStore() *ClientStore {
	return &ClientStore{clients: make(map[string]document.Client)}
}

// Get retrieves a client by ID scoped to a business.
func (s *ClientStore) Get(ctx context.Context, businessID, id string) (document.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok || c.BusinessID != businessID {
		return document.Client{}, ports.ErrNotFound
	}
	return c, nil
}

// ListByBusiness returns all clients of a business in insertion order.
func (s *ClientStore) ListByBusiness(ctx context.Context, businessID string) ([]document.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.Client
	for _, id := range s.order {
		if c := s.clients[id]; c.BusinessID == businessID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Create stores a new client.
func (s *ClientStore) Create(ctx context.Context, c document.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[c.ID]; exists {
		return ports.ErrDuplicate
	}
	s.clients[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

// Update modifies an existing client.
func (s *ClientStore) Update(ctx context.Context, c document.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.clients[c.ID]
	if !ok || old.BusinessID != c.BusinessID {
		return ports.ErrNotFound
	}
	s.clients[c.ID] = c
	return nil
}

// Delete removes a client.
func (s *ClientStore) Delete(ctx context.Context, businessID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok || c.BusinessID != businessID {
		return ports.ErrNotFound
	}
	delete(s.clients, id)
	for i, cid := range s.order {
		if cid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Ensure interface compliance.
var _ ports.ClientStore = (*ClientStore)(nil)
