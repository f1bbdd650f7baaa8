package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/facturo/facturo/domain/planlimit"
	"github.com/facturo/facturo/ports"
)

// BillingService connects the payment provider to the plan gate. It
// starts checkout sessions and folds subscription webhooks into the
// business's plan field.
type BillingService struct {
	provider   ports.PaymentProvider
	businesses ports.BusinessStore
	logger     zerolog.Logger
}

// NewBillingService creates a new billing service.
func NewBillingService(provider ports.PaymentProvider, businesses ports.BusinessStore, logger zerolog.Logger) *BillingService {
	return &BillingService{provider: provider, businesses: businesses, logger: logger}
}

// Checkout starts a subscription purchase for a paid plan and returns
// the hosted checkout URL.
func (s *BillingService) Checkout(ctx context.Context, ownerID string, plan planlimit.Plan, successURL, cancelURL string) (string, error) {
	if !planlimit.Known(plan) || plan == planlimit.Free {
		return "", validation("plan %q is not purchasable", plan)
	}

	b, err := s.businesses.GetByOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return s.provider.CreateCheckoutSession(ctx, ownerID, b.Email, string(plan), successURL, cancelURL)
}

// Portal returns the hosted billing management URL for a customer.
func (s *BillingService) Portal(ctx context.Context, customerID, returnURL string) (string, error) {
	return s.provider.CreatePortalSession(ctx, customerID, returnURL)
}

// HandleWebhook verifies and applies a provider webhook. Unknown event
// types and events for unknown owners are acknowledged without error;
// the provider retries on failures, so only real faults propagate.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case "checkout.session.completed", "customer.subscription.updated":
		if event.OwnerID == "" || event.Plan == "" {
			s.logger.Warn().
				Str("event", event.Type).
				Msg("payment event missing owner or plan, skipping")
			return nil
		}
		if !planlimit.Known(planlimit.Plan(event.Plan)) {
			s.logger.Warn().
				Str("event", event.Type).
				Str("plan", event.Plan).
				Msg("payment event names unknown plan, skipping")
			return nil
		}
		return s.setPlan(ctx, event.OwnerID, event.Plan)

	case "customer.subscription.deleted":
		if event.OwnerID == "" {
			return nil
		}
		return s.setPlan(ctx, event.OwnerID, string(planlimit.Free))

	default:
		return nil
	}
}

func (s *BillingService) setPlan(ctx context.Context, ownerID, plan string) error {
	if err := s.businesses.SetPlan(ctx, ownerID, plan); err != nil {
		return err
	}
	s.logger.Info().
		Str("owner_id", ownerID).
		Str("plan", plan).
		Msg("subscription tier applied")
	return nil
}
