package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"course-enrollment-service/internal/apperr"
	"course-enrollment-service/internal/client"
	"course-enrollment-service/internal/repository"

	"gorm.io/gorm"
)

type PaymentMode string

const (
	ModeRedirect PaymentMode = "redirect"
	ModeIntent   PaymentMode = "intent"
)

// Student is the authenticated caller as supplied by the identity provider.
type Student struct {
	ID    string
	Name  string
	Email string
}

// PaymentHandle is what the client needs to complete a payment: a hosted
// URL for redirect mode or a client secret for intent mode.
type PaymentHandle struct {
	Mode         PaymentMode
	Reference    string
	URL          string
	ClientSecret string
	Amount       int64
	Currency     string
}

type CheckoutService interface {
	Initiate(ctx context.Context, student Student, courseID string, mode PaymentMode) (*PaymentHandle, error)
}

type checkoutServiceImpl struct {
	provider       client.PaymentProvider
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	currency       string
	frontendURL    string
	logger         *slog.Logger
}

func NewCheckoutService(
	provider client.PaymentProvider,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	currency string,
	frontendURL string,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		provider:       provider,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		currency:       strings.ToLower(currency),
		frontendURL:    strings.TrimRight(frontendURL, "/"),
		logger:         logger,
	}
}

func (s *checkoutServiceImpl) Initiate(ctx context.Context, student Student, courseID string, mode PaymentMode) (*PaymentHandle, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, apperr.Validation("Please provide courseId")
	}
	if strings.TrimSpace(student.ID) == "" {
		return nil, apperr.Validation("student id is required")
	}
	if mode != ModeRedirect && mode != ModeIntent {
		return nil, apperr.Validation("unsupported payment mode %q", mode)
	}

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, fmt.Errorf("get course %s: %w", courseID, err)
	}

	// advisory only; the unique index decides at confirmation time
	enrolled, err := s.enrollmentRepo.Exists(ctx, student.ID, courseID)
	if err != nil {
		return nil, fmt.Errorf("check existing enrollment: %w", err)
	}
	if enrolled {
		return nil, apperr.Conflict("You are already enrolled in this course")
	}

	amount, err := ToMinorUnits(course.Price)
	if err != nil {
		return nil, err
	}

	metadata := PurchaseMetadata{
		StudentID:    student.ID,
		CourseID:     course.ID,
		StudentName:  student.Name,
		StudentEmail: student.Email,
		CourseTitle:  course.Title,
	}.ToMap()

	var handle *PaymentHandle
	switch mode {
	case ModeRedirect:
		session, err := s.provider.CreateSession(ctx, &client.CreateSessionRequest{
			AmountMinor:        amount,
			Currency:           s.currency,
			ProductName:        course.Title,
			ProductDescription: course.Description,
			SuccessURL:         s.frontendURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:          s.frontendURL + "/courses/" + url.PathEscape(course.ID),
			Metadata:           metadata,
		})
		if err != nil {
			return nil, fmt.Errorf("create checkout session: %w", err)
		}
		handle = &PaymentHandle{Mode: mode, Reference: session.ID, URL: session.URL}
	case ModeIntent:
		intent, err := s.provider.CreateIntent(ctx, &client.CreateIntentRequest{
			AmountMinor: amount,
			Currency:    s.currency,
			Metadata:    metadata,
		})
		if err != nil {
			return nil, fmt.Errorf("create payment intent: %w", err)
		}
		handle = &PaymentHandle{Mode: mode, Reference: intent.ID, ClientSecret: intent.ClientSecret}
	}

	handle.Amount = amount
	handle.Currency = s.currency

	s.logger.InfoContext(ctx, "payment initiated",
		"mode", mode,
		"reference", handle.Reference,
		"student_id", student.ID,
		"course_id", course.ID,
		"amount", amount,
		"currency", s.currency,
	)

	return handle, nil
}
