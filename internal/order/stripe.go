package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// maxWebhookBytes bounds the payload read before signature verification.
const maxWebhookBytes = 64 << 10

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// StripeCheckout opens hosted Stripe Checkout sessions.
type StripeCheckout struct {
	client *client.API
	log    *logger.Logger
}

func NewStripeCheckout(secretKey string, log *logger.Logger) (*StripeCheckout, error) {
	if secretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY is not set")
		return nil, ErrStripeClientInitFailed
	}
	sc := client.New(secretKey, nil)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeCheckout{client: sc, log: log}, nil
}

// CreateCheckoutSession copies the metadata onto the payment intent too, so it survives in the dashboard.
func (c *StripeCheckout) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(p.Quantity),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: p.Metadata,
		},
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := c.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	c.log.Info("STRIPE", fmt.Sprintf("Checkout session created: %s", sess.ID))
	return &CheckoutSession{URL: sess.URL, SessionID: sess.ID}, nil
}

// WebhookError represents an error that occurred during webhook processing
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

// HandleStripeWebhook verifies the Stripe signature and fulfills paid checkout sessions.
// Unhandled event types are acknowledged without side effects.
func (s *OrderService) HandleStripeWebhook(r *http.Request) error {
	if s.WebhookSecret == "" {
		s.logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "No signature provided",
			InternalError: "Stripe-Signature header missing",
		}
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to read webhook payload: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("Failed to read webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.LogSecurity("WEBHOOK_SIGNATURE", fmt.Sprintf("Webhook signature verification failed: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid signature",
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	s.logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event %s: %s", event.ID, event.Type))

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal checkout session: %v", err))
			return &WebhookError{
				Category:      "processing",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid event data",
				InternalError: fmt.Sprintf("Failed to unmarshal checkout session: %v", err),
				OriginalErr:   err,
			}
		}

		// Delayed payment methods complete unpaid and arrive again as async_payment_succeeded.
		if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			s.logger.LogOrder("AWAITING_PAYMENT", sess.ID, "Checkout completed without payment, waiting for async confirmation")
			return nil
		}

		if _, err := s.FulfillCheckout(r.Context(), completedCheckoutFromSession(&sess)); err != nil {
			return &WebhookError{
				Category:      "processing",
				StatusCode:    apperr.StatusCode(err),
				PublicError:   apperr.PublicMessage(err),
				InternalError: fmt.Sprintf("Failed to fulfill checkout session %s: %v", sess.ID, err),
				OriginalErr:   err,
			}
		}

	default:
		s.logger.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
	}

	return nil
}

func completedCheckoutFromSession(sess *stripe.CheckoutSession) CompletedCheckout {
	c := CompletedCheckout{
		SessionID:     sess.ID,
		CustomerEmail: sess.CustomerEmail,
	}
	c.TicketTypeID, _ = strconv.ParseInt(sess.Metadata[MetadataTicketTypeID], 10, 64)
	c.Quantity, _ = strconv.Atoi(sess.Metadata[MetadataQuantity])
	if sess.CustomerDetails != nil {
		if sess.CustomerDetails.Email != "" {
			c.CustomerEmail = sess.CustomerDetails.Email
		}
		c.CustomerName = sess.CustomerDetails.Name
	}
	if sess.PaymentIntent != nil {
		c.PaymentReference = sess.PaymentIntent.ID
	}
	return c
}
