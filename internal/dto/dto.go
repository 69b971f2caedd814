package dto

import "course-enrollment-service/internal/model"

type InitiatePaymentRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type PaymentIntentResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type VerifySessionRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

type EnrollmentResponse struct {
	Message    string            `json:"message"`
	Enrollment *model.Enrollment `json:"enrollment"`
}

type MyEnrollmentsResponse struct {
	Count       int                 `json:"count"`
	Enrollments []*model.Enrollment `json:"enrollments"`
}

type CheckEnrollmentResponse struct {
	IsEnrolled bool `json:"isEnrolled"`
}

type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"` // provider payment status
}
