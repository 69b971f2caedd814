package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"course-enrollment-service/internal/client"
	"course-enrollment-service/internal/config"
)

const enqueueTimeout = 5 * time.Second

// NotificationDispatcher sends best-effort purchase confirmations. It never
// blocks the caller and never reports delivery failures back.
type NotificationDispatcher interface {
	NotifyPurchase(email, name, courseTitle string)
}

type Dispatcher struct {
	queue       NotificationQueue
	mailer      client.Mailer
	workers     int
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(queue NotificationQueue, mailer client.Mailer, cfg config.Notify, logger *slog.Logger) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Dispatcher{
		queue:       queue,
		mailer:      mailer,
		workers:     workers,
		maxAttempts: attempts,
		backoff:     cfg.RetryBackoff,
		logger:      logger,
	}
}

func (d *Dispatcher) NotifyPurchase(email, name, courseTitle string) {
	n := &PurchaseNotification{
		Email:       email,
		Name:        name,
		CourseTitle: courseTitle,
		QueuedAt:    time.Now().UTC(),
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("enqueue purchase notification panicked", "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
		defer cancel()

		if err := d.queue.Push(ctx, n); err != nil {
			d.logger.Error("failed to enqueue purchase notification", "to", email, "error", err)
		}
	}()
}

// Start launches the delivery workers. They run until Stop is called or ctx
// is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	d.logger.Info("notification dispatcher started", "workers", d.workers)
}

func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for {
		n, err := d.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Error("dequeue notification failed", "worker", id, "error", err)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}
		d.deliver(ctx, n)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n *PurchaseNotification) {
	body, err := renderPurchaseEmail(n)
	if err != nil {
		d.logger.Error("render purchase email failed", "to", n.Email, "error", err)
		return
	}

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err = d.send(ctx, n.Email, body)
		if err == nil {
			d.logger.Info("purchase email sent", "to", n.Email, "course", n.CourseTitle, "attempt", attempt)
			return
		}

		d.logger.Warn("purchase email failed",
			"to", n.Email,
			"attempt", attempt,
			"max_attempts", d.maxAttempts,
			"error", err,
		)
		if attempt < d.maxAttempts && !sleepCtx(ctx, d.backoff*time.Duration(attempt)) {
			return
		}
	}

	d.logger.Error("purchase email dropped", "to", n.Email, "course", n.CourseTitle, "error", err)
}

func (d *Dispatcher) send(ctx context.Context, to, body string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mailer panicked: %v", r)
		}
	}()
	return d.mailer.Send(ctx, to, purchaseEmailSubject, body)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
