package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"course-enrollment-service/internal/apperr"
	"course-enrollment-service/internal/config"

	"github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	SessionPaymentStatusPaid = string(stripe.CheckoutSessionPaymentStatusPaid)
	IntentStatusSucceeded    = string(stripe.PaymentIntentStatusSucceeded)
)

// PaymentProvider is the external payment service. It owns every payment
// attempt and round-trips the metadata supplied at creation unmodified.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*CheckoutSession, error)
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*PaymentIntent, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

type CreateSessionRequest struct {
	AmountMinor        int64
	Currency           string
	ProductName        string
	ProductDescription string
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

type CreateIntentRequest struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

type CheckoutSession struct {
	ID              string
	URL             string
	PaymentStatus   string
	PaymentIntentID string
	Metadata        map[string]string
}

type PaymentIntent struct {
	ID           string
	Status       string
	ClientSecret string
	Metadata     map[string]string
}

// WebhookEvent is a signature-verified provider event reduced to the id of
// the object it concerns.
type WebhookEvent struct {
	ID       string
	Type     string
	ObjectID string
}

type stripeClientImpl struct {
	api           *stripeclient.API
	webhookSecret string
}

func NewStripeClient(cfg *config.Stripe) PaymentProvider {
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
	})

	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, backends)

	return &stripeClientImpl{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *stripeClientImpl) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CheckoutSession, error) {
	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.ProductName),
	}
	if req.ProductDescription != "" {
		productData.Description = stripe.String(req.ProductDescription)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(req.Currency),
					ProductData: productData,
					UnitAmount:  stripe.Int64(req.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		// the intent behind the session carries the same metadata so an
		// intent-level webhook resolves to the same (student, course) pair
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classifyStripeError(err, "create checkout session")
	}

	return toCheckoutSession(session), nil
}

func (c *stripeClientImpl) CreateIntent(ctx context.Context, req *CreateIntentRequest) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classifyStripeError(err, "create payment intent")
	}

	return toPaymentIntent(intent), nil
}

func (c *stripeClientImpl) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, classifyStripeError(err, "retrieve checkout session")
	}

	return toCheckoutSession(session), nil
}

func (c *stripeClientImpl) RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := c.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, classifyStripeError(err, "retrieve payment intent")
	}

	return toPaymentIntent(intent), nil
}

func (c *stripeClientImpl) ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	return parseStripeWebhook(payload, signature, c.webhookSecret)
}

func parseStripeWebhook(payload []byte, signature, secret string) (*WebhookEvent, error) {
	if secret == "" {
		return nil, apperr.Validation("webhook secret is not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: "invalid webhook signature",
			Err:     err,
		}
	}

	var object struct {
		ID string `json:"id"`
	}
	if event.Data != nil && len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
			return nil, apperr.Validation("decode webhook object: %v", err)
		}
	}

	return &WebhookEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		ObjectID: object.ID,
	}, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}

func toPaymentIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
		Metadata:     pi.Metadata,
	}
}

// classifyStripeError maps provider failures onto the API error taxonomy.
// Anything that is not a definitive client error is retryable.
func classifyStripeError(err error, op string) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return apperr.ProviderUnavailable(err, "payment provider unavailable: %s", op)
	}

	switch {
	case stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound:
		return &apperr.Error{
			Kind:    apperr.KindNotFound,
			Message: "payment reference not found",
			Err:     err,
		}
	case stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= 500 || stripeErr.HTTPStatusCode == 0:
		return apperr.ProviderUnavailable(err, "payment provider unavailable: %s", op)
	default:
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: fmt.Sprintf("payment provider rejected request: %s", stripeErr.Msg),
			Err:     err,
		}
	}
}
