package repository

import (
	"context"
	"errors"

	"course-enrollment-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository interface {
	// CreateIfNotExists inserts the enrollment unless one already exists for
	// the same (student, course) pair. It reports whether a row was inserted.
	CreateIfNotExists(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) (bool, error)
	FindByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID string) (*model.Enrollment, error)
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.Enrollment, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
}

type enrollmentRepoImpl struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepoImpl{
		db: db,
	}
}

func (r *enrollmentRepoImpl) CreateIfNotExists(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) (bool, error) {
	result := tx.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(enrollment)

	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *enrollmentRepoImpl) FindByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID string) (*model.Enrollment, error) {
	if tx == nil {
		tx = r.db
	}

	var enrollment model.Enrollment
	err := tx.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error

	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}

func (r *enrollmentRepoImpl) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error

	return count > 0, err
}

func (r *enrollmentRepoImpl) ListByStudent(ctx context.Context, studentID string) ([]*model.Enrollment, error) {
	var enrollments []*model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("purchase_date desc").
		Find(&enrollments).Error

	if err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepoImpl) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error

	return count, err
}
