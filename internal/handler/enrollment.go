package handler

import (
	"net/http"

	"course-enrollment-service/internal/dto"
	"course-enrollment-service/internal/middleware"
	"course-enrollment-service/internal/service"

	"github.com/labstack/echo/v4"
)

type EnrollmentHandler struct {
	checkoutService   service.CheckoutService
	verifier          service.PaymentVerifier
	enrollmentService service.EnrollmentService
}

func NewEnrollmentHandler(
	checkoutService service.CheckoutService,
	verifier service.PaymentVerifier,
	enrollmentService service.EnrollmentService,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		checkoutService:   checkoutService,
		verifier:          verifier,
		enrollmentService: enrollmentService,
	}
}

func studentFromContext(c echo.Context) (service.Student, error) {
	student, ok := middleware.StudentFromContext(c)
	if !ok {
		return service.Student{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return student, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

func (h *EnrollmentHandler) CreateCheckoutSession(c echo.Context) error {
	student, err := studentFromContext(c)
	if err != nil {
		return err
	}

	var req dto.InitiatePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	handle, err := h.checkoutService.Initiate(c.Request().Context(), student, req.CourseID, service.ModeRedirect)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckoutSessionResponse{
		SessionID: handle.Reference,
		URL:       handle.URL,
		Amount:    handle.Amount,
		Currency:  handle.Currency,
	})
}

func (h *EnrollmentHandler) CreatePaymentIntent(c echo.Context) error {
	student, err := studentFromContext(c)
	if err != nil {
		return err
	}

	var req dto.InitiatePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	handle, err := h.checkoutService.Initiate(c.Request().Context(), student, req.CourseID, service.ModeIntent)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.PaymentIntentResponse{
		PaymentIntentID: handle.Reference,
		ClientSecret:    handle.ClientSecret,
		Amount:          handle.Amount,
		Currency:        handle.Currency,
	})
}

// VerifySession is hit from the success page after the hosted checkout
// redirect.
func (h *EnrollmentHandler) VerifySession(c echo.Context) error {
	var req dto.VerifySessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	return h.confirm(c, service.PaymentReference{Kind: service.ReferenceSession, ID: req.SessionID})
}

func (h *EnrollmentHandler) ConfirmPayment(c echo.Context) error {
	var req dto.ConfirmPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	return h.confirm(c, service.PaymentReference{Kind: service.ReferenceIntent, ID: req.PaymentIntentID})
}

func (h *EnrollmentHandler) confirm(c echo.Context, ref service.PaymentReference) error {
	result, err := h.verifier.Confirm(c.Request().Context(), ref)
	if err != nil {
		return err
	}

	message := "Enrollment successful"
	if !result.Created {
		message = "Already enrolled"
	}

	return c.JSON(http.StatusOK, dto.EnrollmentResponse{
		Message:    message,
		Enrollment: result.Enrollment,
	})
}

func (h *EnrollmentHandler) GetMyEnrollments(c echo.Context) error {
	student, err := studentFromContext(c)
	if err != nil {
		return err
	}

	enrollments, err := h.enrollmentService.ListMine(c.Request().Context(), student.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.MyEnrollmentsResponse{
		Count:       len(enrollments),
		Enrollments: enrollments,
	})
}

func (h *EnrollmentHandler) CheckEnrollment(c echo.Context) error {
	student, err := studentFromContext(c)
	if err != nil {
		return err
	}

	enrolled, err := h.enrollmentService.IsEnrolled(c.Request().Context(), student.ID, c.Param("courseId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CheckEnrollmentResponse{IsEnrolled: enrolled})
}
