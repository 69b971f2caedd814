package server

import (
	"context"
	"log/slog"
	"net/http"

	"course-enrollment-service/internal/handler"
	authmw "course-enrollment-service/internal/middleware"
	"course-enrollment-service/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Services struct {
	Checkout    service.CheckoutService
	Verifier    service.PaymentVerifier
	Enrollments service.EnrollmentService
	Webhooks    service.WebhookService
}

type Server struct {
	echo              *echo.Echo
	jwtSecret         string
	enrollmentHandler *handler.EnrollmentHandler
	webhookHandler    *handler.WebhookHandler
}

func NewServer(services Services, jwtSecret string, allowOrigins []string, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", slog.Group("http", attrs...))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		echo:              e,
		jwtSecret:         jwtSecret,
		enrollmentHandler: handler.NewEnrollmentHandler(services.Checkout, services.Verifier, services.Enrollments),
		webhookHandler:    handler.NewWebhookHandler(services.Webhooks),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- enrollments --------
	enrollments := api.Group("/enrollments", authmw.RequireStudent(s.jwtSecret))
	enrollments.POST("/checkout", s.enrollmentHandler.CreateCheckoutSession)
	enrollments.POST("/create-payment-intent", s.enrollmentHandler.CreatePaymentIntent)
	enrollments.POST("/verify-session", s.enrollmentHandler.VerifySession)
	enrollments.POST("/confirm-payment", s.enrollmentHandler.ConfirmPayment)
	enrollments.GET("/my-courses", s.enrollmentHandler.GetMyEnrollments)
	enrollments.GET("/check/:courseId", s.enrollmentHandler.CheckEnrollment)

	// -------- provider callbacks --------
	api.POST("/webhooks/stripe", s.webhookHandler.StripeWebhook)
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
