package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/facturo/facturo/ports"
)

// DummyProvider simulates a payment provider for development and demos
// when real credentials aren't available. Checkout and portal URLs
// point at the local instance, and webhooks are accepted unsigned: the
// payload itself is a PaymentEvent in JSON.
type DummyProvider struct {
	baseURL string
}

// NewDummyProvider creates a new dummy payment provider.
func NewDummyProvider(baseURL string) *DummyProvider {
	return &DummyProvider{baseURL: baseURL}
}

// Name returns the provider name.
func (p *DummyProvider) Name() string {
	return "dummy"
}

// CreateCheckoutSession returns a fake checkout URL on the local
// instance so the full upgrade flow can be exercised without a real
// payment.
func (p *DummyProvider) CreateCheckoutSession(ctx context.Context, ownerID, email, plan, successURL, cancelURL string) (string, error) {
	sessionID := uuid.New().String()
	return fmt.Sprintf("%s/dev/checkout?session=%s&owner=%s&plan=%s", p.baseURL, sessionID, ownerID, plan), nil
}

// CreatePortalSession returns a fake billing portal URL.
func (p *DummyProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return fmt.Sprintf("%s/dev/portal?customer=%s", p.baseURL, customerID), nil
}

// ParseWebhook decodes the payload as a PaymentEvent without any
// signature check. Never enable this provider in production.
func (p *DummyProvider) ParseWebhook(payload []byte, signature string) (ports.PaymentEvent, error) {
	var event struct {
		Type    string `json:"type"`
		OwnerID string `json:"owner_id"`
		Plan    string `json:"plan"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return ports.PaymentEvent{}, fmt.Errorf("invalid dummy webhook payload: %w", err)
	}
	return ports.PaymentEvent{Type: event.Type, OwnerID: event.OwnerID, Plan: event.Plan}, nil
}

// Ensure interface compliance.
var _ ports.PaymentProvider = (*DummyProvider)(nil)
