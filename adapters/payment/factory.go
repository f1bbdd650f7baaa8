package payment

import (
	"fmt"

	"github.com/facturo/facturo/ports"
)

// Config selects and configures the payment provider.
type Config struct {
	Provider string
	BaseURL  string
	Stripe   StripeConfig
}

// NewProvider creates a payment provider from configuration.
func NewProvider(c Config) (ports.PaymentProvider, error) {
	switch c.Provider {
	case "stripe":
		if c.Stripe.SecretKey == "" {
			return nil, fmt.Errorf("stripe secret key is required")
		}
		return NewStripeProvider(c.Stripe), nil

	case "dummy":
		return NewDummyProvider(c.BaseURL), nil

	case "none", "":
		return NewNoopProvider(), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s", c.Provider)
	}
}
