// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
)

// PaymentProvider opens a payment intent for a card order.
type PaymentProvider interface {
	// Handles reports whether orders paid with method need an intent.
	Handles(method string) bool
	CreateIntent(ctx context.Context, customerID uint, amount decimal.Decimal) (*PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) error
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

type PaymentService struct {
	config config.PaymentConfig
	create func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	cancel func(string, *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

func NewPaymentService(cfg config.PaymentConfig) *PaymentService {
	// Initialize Stripe
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
	}

	return &PaymentService{
		config: cfg,
		create: paymentintent.New,
		cancel: paymentintent.Cancel,
	}
}

func (s *PaymentService) Enabled() bool {
	return s.config.StripeSecretKey != ""
}

func (s *PaymentService) Handles(method string) bool {
	return s.Enabled() && method == string(models.PaymentMethodCard)
}

func (s *PaymentService) CreateIntent(ctx context.Context, customerID uint, amount decimal.Decimal) (*PaymentIntent, error) {
	currency := s.config.Currency
	if currency == "" {
		currency = "gbp"
	}

	// Stripe expects the amount in minor units
	minor := amount.Shift(2).Round(0).IntPart()
	if minor <= 0 {
		return nil, fmt.Errorf("payment amount must be positive, got %s", amount)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("customer_id", strconv.FormatUint(uint64(customerID), 10))

	pi, err := s.create(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"customer_id":       customerID,
		"payment_intent_id": pi.ID,
		"amount":            minor,
		"currency":          currency,
	}).Info("Payment intent created")

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

func (s *PaymentService) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	if _, err := s.cancel(id, params); err != nil {
		return fmt.Errorf("failed to cancel payment intent: %w", err)
	}

	logrus.WithField("payment_intent_id", id).Info("Payment intent cancelled")
	return nil
}
