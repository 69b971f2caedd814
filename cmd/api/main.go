package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-enrollment-service/internal/client"
	"course-enrollment-service/internal/config"
	"course-enrollment-service/internal/logger"
	"course-enrollment-service/internal/repository"
	"course-enrollment-service/internal/server"
	"course-enrollment-service/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if cfg.SeedCourses {
		if err := courseRepo.Seed(ctx); err != nil {
			return fmt.Errorf("seed courses: %w", err)
		}
		log.Info("seeded demo courses")
	}

	stripeClient := client.NewStripeClient(&cfg.Stripe)
	mailer := client.NewMailer(&cfg.SMTP, log)

	queue, closeQueue, err := newNotificationQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeQueue()

	dispatcher := service.NewDispatcher(queue, mailer, cfg.Notify, log)
	dispatcher.Start(context.Background())

	ledger := service.NewEnrollmentLedger(db, enrollmentRepo, courseRepo)
	verifier := service.NewPaymentVerifier(stripeClient, ledger, dispatcher, log)

	srv := server.NewServer(server.Services{
		Checkout: service.NewCheckoutService(
			stripeClient,
			courseRepo,
			enrollmentRepo,
			cfg.Payment.Currency,
			cfg.Payment.FrontendURL,
			log,
		),
		Verifier:    verifier,
		Enrollments: service.NewEnrollmentService(enrollmentRepo),
		Webhooks:    service.NewWebhookService(stripeClient, verifier, webhookEventRepo, log),
	}, cfg.Auth.JWTSecret, []string{cfg.Payment.FrontendURL}, log)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	serverErr := make(chan error, 1)

	log.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("signal received, starting graceful shutdown")
	case err := <-serverErr:
		if err != nil {
			dispatcher.Stop()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err)
	}
	dispatcher.Stop()

	log.Info("shutdown complete")
	return nil
}

func newNotificationQueue(ctx context.Context, cfg *config.Config) (service.NotificationQueue, func(), error) {
	if cfg.Notify.Queue != "redis" {
		return service.NewMemoryQueue(cfg.Notify.QueueSize), func() {}, nil
	}

	rdb, err := client.InitRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return service.NewRedisQueue(rdb, service.NotificationQueueKey), func() { _ = rdb.Close() }, nil
}

