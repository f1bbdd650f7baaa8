// Package payment provides payment provider adapters.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/facturo/facturo/ports"
)

// StripeConfig holds Stripe configuration. PlanPrices maps
// subscription tiers to Stripe price IDs.
type StripeConfig struct {
	SecretKey     string
	PublicKey     string
	WebhookSecret string
	PlanPrices    map[string]string
}

// StripeProvider implements ports.PaymentProvider for Stripe.
type StripeProvider struct {
	config      StripeConfig
	priceToPlan map[string]string
}

// NewStripeProvider creates a new Stripe payment provider.
func NewStripeProvider(config StripeConfig) *StripeProvider {
	stripe.Key = config.SecretKey

	priceToPlan := make(map[string]string, len(config.PlanPrices))
	for plan, price := range config.PlanPrices {
		priceToPlan[price] = plan
	}
	return &StripeProvider{config: config, priceToPlan: priceToPlan}
}

// Name returns the provider name.
func (p *StripeProvider) Name() string {
	return "stripe"
}

// CreateCheckoutSession creates a Stripe Checkout session for a plan
// upgrade. The owner ID rides along as the client reference and in the
// subscription metadata so webhooks can route the plan change back.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, ownerID, email, plan, successURL, cancelURL string) (string, error) {
	priceID, ok := p.config.PlanPrices[plan]
	if !ok {
		return "", fmt.Errorf("no price configured for plan %q", plan)
	}

	params := &stripe.CheckoutSessionParams{
		ClientReferenceID: stripe.String(ownerID),
		CustomerEmail:     stripe.String(email),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"owner_id": ownerID},
		},
	}
	params.AddMetadata("owner_id", ownerID)
	params.AddMetadata("plan", plan)

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// CreatePortalSession creates a customer portal session.
func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}

	s, err := session.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// ParseWebhook validates a Stripe webhook and reduces it to a
// PaymentEvent.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (ports.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.config.WebhookSecret)
	if err != nil {
		return ports.PaymentEvent{}, err
	}

	out := ports.PaymentEvent{Type: string(event.Type)}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return ports.PaymentEvent{}, err
		}
		out.OwnerID = sess.ClientReferenceID
		out.Plan = sess.Metadata["plan"]

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return ports.PaymentEvent{}, err
		}
		out.OwnerID = sub.Metadata["owner_id"]
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			out.Plan = p.priceToPlan[sub.Items.Data[0].Price.ID]
		}
	}

	return out, nil
}

// Ensure interface compliance.
var _ ports.PaymentProvider = (*StripeProvider)(nil)
