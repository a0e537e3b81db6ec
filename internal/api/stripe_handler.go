package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"deskhub/internal/service"
)

// PaymentEvents is the part of BookingService driven by Stripe.
type PaymentEvents interface {
	ConfirmBySession(ctx context.Context, sessionID, paymentIntentID string) error
	ExpireBySession(ctx context.Context, sessionID string) error
	CancelByPaymentIntent(ctx context.Context, paymentIntentID string) error
}

type StripeWebhookHandler struct {
	WebhookSecret string
	events        PaymentEvents
}

func NewStripeWebhookHandler(webhookSecret string, events PaymentEvents) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		WebhookSecret: webhookSecret,
		events:        events,
	}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			log.Printf("Error parsing checkout.session: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if event.Type == "checkout.session.expired" {
			err = h.events.ExpireBySession(ctx, sess.ID)
			break
		}
		paymentIntentID := ""
		if sess.PaymentIntent != nil {
			paymentIntentID = sess.PaymentIntent.ID
		}
		err = h.events.ConfirmBySession(ctx, sess.ID, paymentIntentID)

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			log.Printf("Error parsing charge: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
			err = h.events.CancelByPaymentIntent(ctx, charge.PaymentIntent.ID)
		}

	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	switch {
	case err == nil:
	case errors.Is(err, service.ErrBookingNotFound):
		log.Printf("Stripe event %s (%s) does not match any booking", event.ID, event.Type)
	default:
		log.Printf("Error handling stripe event %s (%s): %v", event.ID, event.Type, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
