// Package payment creates Stripe payment intents for checkout. The Stripe
// call sits behind IntentCreator so the route layer and tests can swap in a
// fake processor.
package payment

import (
	"context"
	"fmt"
	"math"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// MaxMinorUnitAmount is the largest amount, in minor currency units, that is
// forwarded to the processor. Larger amounts are refused locally.
const MaxMinorUnitAmount = 999999

// LimitExceededMessage is sent when the amount cap is hit. It rides on a
// 200 response; the status code is part of the existing client contract.
const LimitExceededMessage = "Amount limit excess"

// IntentCreator creates a payment intent with the external processor and
// returns the client secret used to complete payment.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string) (string, error)
}

// StripeCreator is the production IntentCreator backed by the Stripe API.
type StripeCreator struct {
	api *client.API
}

// NewStripeCreator builds a Stripe-backed creator from the secret key.
func NewStripeCreator(secretKey string) *StripeCreator {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeCreator{api: api}
}

// CreateIntent creates a card PaymentIntent and returns its client secret.
func (c *StripeCreator) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params:             stripe.Params{Context: ctx},
		Amount:             stripe.Int64(amountMinorUnits),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return intent.ClientSecret, nil
}

// IntentResult is the response body for payment-intent creation: either a
// client secret or the limit-exceeded message, never both.
type IntentResult struct {
	ClientSecret string `json:"clientSecret,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Service converts prices to minor units and enforces the amount cap.
type Service struct {
	creator IntentCreator
}

// NewService wires the processor client.
func NewService(creator IntentCreator) *Service {
	return &Service{creator: creator}
}

// CreatePaymentIntent converts a major-unit price to cents and creates an
// intent. Amounts over the cap short-circuit without contacting the
// processor.
func (s *Service) CreatePaymentIntent(ctx context.Context, price float64) (IntentResult, error) {
	amount := int64(math.Round(price * 100))
	if amount > MaxMinorUnitAmount {
		return IntentResult{Message: LimitExceededMessage}, nil
	}
	secret, err := s.creator.CreateIntent(ctx, amount, string(stripe.CurrencyUSD))
	if err != nil {
		return IntentResult{}, err
	}
	return IntentResult{ClientSecret: secret}, nil
}
