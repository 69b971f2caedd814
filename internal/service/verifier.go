package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"course-enrollment-service/internal/apperr"
	"course-enrollment-service/internal/client"
	"course-enrollment-service/internal/model"
)

type ReferenceKind string

const (
	ReferenceSession ReferenceKind = "session"
	ReferenceIntent  ReferenceKind = "intent"
)

// PaymentReference identifies a payment attempt at the provider.
type PaymentReference struct {
	Kind ReferenceKind
	ID   string
}

type ConfirmResult struct {
	Enrollment *model.Enrollment
	// Created is false when the enrollment already existed.
	Created bool
}

type PaymentVerifier interface {
	// Confirm reconciles a payment reference into an enrollment. It is safe to
	// call any number of times, concurrently, for the same or different
	// references resolving to the same (student, course) pair.
	Confirm(ctx context.Context, ref PaymentReference) (*ConfirmResult, error)
}

type paymentVerifierImpl struct {
	provider client.PaymentProvider
	ledger   EnrollmentLedger
	notifier NotificationDispatcher
	logger   *slog.Logger
}

func NewPaymentVerifier(
	provider client.PaymentProvider,
	ledger EnrollmentLedger,
	notifier NotificationDispatcher,
	logger *slog.Logger,
) PaymentVerifier {
	return &paymentVerifierImpl{
		provider: provider,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
	}
}

type providerPayment struct {
	status    string
	succeeded bool
	reference string
	metadata  map[string]string
}

func (v *paymentVerifierImpl) Confirm(ctx context.Context, ref PaymentReference) (*ConfirmResult, error) {
	ref.ID = strings.TrimSpace(ref.ID)
	if ref.ID == "" {
		if ref.Kind == ReferenceSession {
			return nil, apperr.Validation("Session ID is required")
		}
		return nil, apperr.Validation("Please provide payment intent ID")
	}

	payment, err := v.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !payment.succeeded {
		v.logger.InfoContext(ctx, "payment not completed",
			"kind", ref.Kind,
			"reference", ref.ID,
			"provider_status", payment.status,
		)
		return nil, apperr.PaymentIncomplete(payment.status)
	}

	meta, err := ParsePurchaseMetadata(payment.metadata)
	if err != nil {
		return nil, err
	}

	enrollment, created, err := v.ledger.CreateIfAbsent(ctx, meta.StudentID, meta.CourseID, payment.reference)
	if err != nil {
		return nil, fmt.Errorf("record enrollment: %w", err)
	}

	if created {
		v.logger.InfoContext(ctx, "enrollment created",
			"enrollment_id", enrollment.ID,
			"student_id", enrollment.StudentID,
			"course_id", enrollment.CourseID,
			"payment_reference", enrollment.PaymentReference,
		)
		v.notifyPurchase(ctx, meta)
	} else {
		v.logger.DebugContext(ctx, "enrollment already exists",
			"enrollment_id", enrollment.ID,
			"reference", ref.ID,
		)
	}

	return &ConfirmResult{Enrollment: enrollment, Created: created}, nil
}

func (v *paymentVerifierImpl) fetch(ctx context.Context, ref PaymentReference) (*providerPayment, error) {
	switch ref.Kind {
	case ReferenceSession:
		session, err := v.provider.RetrieveSession(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("retrieve session %s: %w", ref.ID, err)
		}
		reference := session.PaymentIntentID
		if reference == "" {
			reference = session.ID
		}
		return &providerPayment{
			status:    session.PaymentStatus,
			succeeded: session.PaymentStatus == client.SessionPaymentStatusPaid,
			reference: reference,
			metadata:  session.Metadata,
		}, nil
	case ReferenceIntent:
		intent, err := v.provider.RetrieveIntent(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("retrieve payment intent %s: %w", ref.ID, err)
		}
		return &providerPayment{
			status:    intent.Status,
			succeeded: intent.Status == client.IntentStatusSucceeded,
			reference: intent.ID,
			metadata:  intent.Metadata,
		}, nil
	default:
		return nil, apperr.Validation("unsupported payment reference kind %q", ref.Kind)
	}
}

func (v *paymentVerifierImpl) notifyPurchase(ctx context.Context, meta PurchaseMetadata) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.ErrorContext(ctx, "purchase notification panicked", "panic", r, "course_id", meta.CourseID)
		}
	}()

	if meta.StudentEmail == "" {
		v.logger.WarnContext(ctx, "no student email in payment metadata, skipping purchase notification", "student_id", meta.StudentID)
		return
	}

	v.notifier.NotifyPurchase(meta.StudentEmail, meta.StudentName, meta.CourseTitle)
}
