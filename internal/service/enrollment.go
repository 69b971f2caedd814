package service

import (
	"context"
	"fmt"
	"strings"

	"course-enrollment-service/internal/apperr"
	"course-enrollment-service/internal/model"
	"course-enrollment-service/internal/repository"
)

type EnrollmentService interface {
	// ListMine returns the student's enrollments, newest first. Enrollments
	// whose course no longer exists are left out.
	ListMine(ctx context.Context, studentID string) ([]*model.Enrollment, error)
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
}

type enrollmentServiceImpl struct {
	enrollmentRepo repository.EnrollmentRepository
}

func NewEnrollmentService(enrollmentRepo repository.EnrollmentRepository) EnrollmentService {
	return &enrollmentServiceImpl{enrollmentRepo: enrollmentRepo}
}

func (s *enrollmentServiceImpl) ListMine(ctx context.Context, studentID string) ([]*model.Enrollment, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, apperr.Validation("student id is required")
	}

	enrollments, err := s.enrollmentRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	valid := make([]*model.Enrollment, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Course != nil {
			valid = append(valid, e)
		}
	}
	return valid, nil
}

func (s *enrollmentServiceImpl) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	if strings.TrimSpace(courseID) == "" {
		return false, apperr.Validation("Please provide courseId")
	}

	enrolled, err := s.enrollmentRepo.Exists(ctx, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}
