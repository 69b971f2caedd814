package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"course-enrollment-service/internal/apperr"
	"course-enrollment-service/internal/model"
	"course-enrollment-service/internal/repository"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	ledgerMaxAttempts  = 3
	ledgerRetryBackoff = 20 * time.Millisecond
)

// EnrollmentLedger is the only writer of enrollments.
type EnrollmentLedger interface {
	// CreateIfAbsent returns the enrollment for (studentID, courseID),
	// inserting it first if none exists. created is true only for the call
	// that performed the insert; that call also increments the course counter.
	CreateIfAbsent(ctx context.Context, studentID, courseID, paymentReference string) (enrollment *model.Enrollment, created bool, err error)
}

type enrollmentLedgerImpl struct {
	db             *gorm.DB
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	now            func() time.Time
}

func NewEnrollmentLedger(
	db *gorm.DB,
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
) EnrollmentLedger {
	return &enrollmentLedgerImpl{
		db:             db,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		now:            time.Now,
	}
}

func (l *enrollmentLedgerImpl) CreateIfAbsent(ctx context.Context, studentID, courseID, paymentReference string) (*model.Enrollment, bool, error) {
	if studentID == "" || courseID == "" {
		return nil, false, apperr.Validation("studentId and courseId are required")
	}

	var (
		enrollment *model.Enrollment
		created    bool
		err        error
	)
	for attempt := 1; attempt <= ledgerMaxAttempts; attempt++ {
		enrollment, created, err = l.createIfAbsent(ctx, studentID, courseID, paymentReference)
		if err == nil || !isTxConflict(err) || attempt == ledgerMaxAttempts {
			break
		}
		if !sleepCtx(ctx, ledgerRetryBackoff*time.Duration(attempt)) {
			return nil, false, ctx.Err()
		}
	}
	if err != nil {
		return nil, false, err
	}
	return enrollment, created, nil
}

func (l *enrollmentLedgerImpl) createIfAbsent(ctx context.Context, studentID, courseID, paymentReference string) (*model.Enrollment, bool, error) {
	var (
		result  *model.Enrollment
		created bool
	)

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment := &model.Enrollment{
			ID:               uuid.NewString(),
			StudentID:        studentID,
			CourseID:         courseID,
			PaymentReference: paymentReference,
			PurchaseDate:     l.now().UTC(),
		}

		inserted, err := l.enrollmentRepo.CreateIfNotExists(ctx, tx, enrollment)
		if err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return apperr.NotFound("course %s not found", courseID)
			}
			return fmt.Errorf("insert enrollment: %w", err)
		}

		if !inserted {
			existing, err := l.enrollmentRepo.FindByStudentAndCourse(ctx, tx, studentID, courseID)
			if err != nil {
				return fmt.Errorf("read existing enrollment: %w", err)
			}
			result = existing
			return nil
		}

		rows, err := l.courseRepo.IncrementEnrollments(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("increment course enrollments: %w", err)
		}
		if rows == 0 {
			return apperr.NotFound("course %s not found", courseID)
		}

		result = enrollment
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, created, nil
}

// isTxConflict reports deadlocks and serialization failures, after which the
// whole transaction can be replayed.
func isTxConflict(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}
