package payments

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"ms-marketplace/internal/logger"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// StripeGateway wraps the Stripe client for payment intent creation.
type StripeGateway struct {
	client   *client.API
	currency string
	log      *logger.Logger
}

func NewStripeGateway(secretKey, currency string, log *logger.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	log.Info("STRIPE", "Stripe client initialized")
	return &StripeGateway{client: sc, currency: currency, log: log}, nil
}

// CreatePaymentIntent creates an intent for amount in major currency units
// and returns the client secret for the frontend to confirm.
func (g *StripeGateway) CreatePaymentIntent(amount float64) (string, error) {
	amountInCents := int64(amount * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	intent, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return "", err
	}

	g.log.Info("STRIPE", fmt.Sprintf("Created payment intent %s (%d %s)", intent.ID, amountInCents, g.currency))
	return intent.ClientSecret, nil
}
