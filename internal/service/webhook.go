package service

import (
	"context"
	"fmt"
	"log/slog"

	"course-enrollment-service/internal/apperr"
	"course-enrollment-service/internal/client"
	"course-enrollment-service/internal/repository"
)

const webhookProvider = "stripe"

const (
	EventCheckoutSessionCompleted    = "checkout.session.completed"
	EventCheckoutAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
	EventPaymentIntentSucceeded      = "payment_intent.succeeded"
)

type WebhookService interface {
	HandleWebhook(ctx context.Context, signature string, body []byte) error
}

type webhookServiceImpl struct {
	provider  client.PaymentProvider
	verifier  PaymentVerifier
	eventRepo repository.WebhookEventRepository
	logger    *slog.Logger
}

func NewWebhookService(
	provider client.PaymentProvider,
	verifier PaymentVerifier,
	eventRepo repository.WebhookEventRepository,
	logger *slog.Logger,
) WebhookService {
	return &webhookServiceImpl{
		provider:  provider,
		verifier:  verifier,
		eventRepo: eventRepo,
		logger:    logger,
	}
}

// HandleWebhook verifies the event and feeds the referenced payment into the
// verifier. Payment status is always re-read from the provider.
func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, signature string, body []byte) error {
	event, err := s.provider.ParseWebhookEvent(body, signature)
	if err != nil {
		return err
	}

	processed, err := s.eventRepo.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event %s: %w", event.ID, err)
	}
	if processed {
		s.logger.InfoContext(ctx, "webhook event already processed", "event_id", event.ID, "type", event.Type)
		return nil
	}

	var ref *PaymentReference
	switch event.Type {
	case EventCheckoutSessionCompleted, EventCheckoutAsyncPaymentSuccess:
		ref = &PaymentReference{Kind: ReferenceSession, ID: event.ObjectID}
	case EventPaymentIntentSucceeded:
		ref = &PaymentReference{Kind: ReferenceIntent, ID: event.ObjectID}
	default:
		s.logger.DebugContext(ctx, "ignoring webhook event", "event_id", event.ID, "type", event.Type)
	}

	if ref != nil {
		result, err := s.verifier.Confirm(ctx, *ref)
		switch {
		case apperr.IsKind(err, apperr.KindPaymentIncomplete):
			s.logger.InfoContext(ctx, "webhook payment not completed yet", "event_id", event.ID, "reference", ref.ID)
		case apperr.IsKind(err, apperr.KindValidation), apperr.IsKind(err, apperr.KindNotFound):
			// not ours to enroll (foreign metadata, deleted course); redelivery cannot change that
			s.logger.WarnContext(ctx, "webhook payment not enrollable, acknowledging",
				"event_id", event.ID,
				"reference", ref.ID,
				"error", err,
			)
		case err != nil:
			return fmt.Errorf("confirm webhook payment %s: %w", ref.ID, err)
		default:
			s.logger.InfoContext(ctx, "webhook payment confirmed",
				"event_id", event.ID,
				"enrollment_id", result.Enrollment.ID,
				"created", result.Created,
			)
		}
	}

	if err := s.eventRepo.MarkProcessed(ctx, webhookProvider, event.ID, event.Type); err != nil {
		return fmt.Errorf("mark webhook event %s: %w", event.ID, err)
	}
	return nil
}
