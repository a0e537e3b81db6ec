package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
)

type CheckoutRequest struct {
	Amount        int64
	Currency      string
	Description   string
	CustomerEmail string
	BookingCode   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentGateway creates checkout sessions and refunds captured payments.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// RefundPayment refunds paymentIntentID, or the payment behind sessionID
	// when the intent is not known yet.
	RefundPayment(ctx context.Context, paymentIntentID, sessionID string) error
}

// Stripe accepts checkout session lifetimes between 30 minutes and 24 hours.
const (
	MinCheckoutSessionTTL = 30 * time.Minute
	MaxCheckoutSessionTTL = 24 * time.Hour
)

type StripeService struct {
	SuccessURL string
	CancelURL  string
	// SessionTTL bounds how long a renter can take to pay. Pending bookings
	// must outlive it.
	SessionTTL time.Duration
	Now        func() time.Time
}

func NewStripeService(successURL, cancelURL string, sessionTTL time.Duration) *StripeService {
	if sessionTTL < MinCheckoutSessionTTL {
		sessionTTL = MinCheckoutSessionTTL
	}
	if sessionTTL > MaxCheckoutSessionTTL {
		sessionTTL = MaxCheckoutSessionTTL
	}
	return &StripeService{SuccessURL: successURL, CancelURL: cancelURL, SessionTTL: sessionTTL, Now: time.Now}
}

func (s *StripeService) RefundPayment(ctx context.Context, paymentIntentID, sessionID string) error {
	if paymentIntentID == "" {
		if sessionID == "" {
			return fmt.Errorf("no payment to refund")
		}
		params := &stripe.CheckoutSessionParams{}
		params.Context = ctx
		sess, err := session.Get(sessionID, params)
		if err != nil {
			return fmt.Errorf("fetching checkout session %s: %w", sessionID, err)
		}
		if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
			return fmt.Errorf("no PaymentIntent found for session %s", sessionID)
		}
		paymentIntentID = sess.PaymentIntent.ID
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("refunding payment %s: %w", paymentIntentID, err)
	}
	return nil
}

func (s *StripeService) checkoutParams(ctx context.Context, req CheckoutRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.SuccessURL),
		CancelURL:         stripe.String(s.CancelURL),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		ClientReferenceID: stripe.String(req.BookingCode),
		ExpiresAt:         stripe.Int64(s.Now().Add(s.SessionTTL).Unix()),
	}
	params.Context = ctx
	params.AddMetadata("booking_code", req.BookingCode)
	return params
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	sess, err := session.New(s.checkoutParams(ctx, req))
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
