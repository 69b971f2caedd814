package repository

import (
	"context"

	"course-enrollment-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, courseID string) (*model.Course, error)
	// IncrementEnrollments bumps the counter in one statement and reports the
	// number of rows updated (0 when the course does not exist).
	IncrementEnrollments(ctx context.Context, tx *gorm.DB, courseID string) (int64, error)
}

type courseRepoImpl struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepoImpl{
		db: db,
	}
}

func (r *courseRepoImpl) Seed(ctx context.Context) error {
	courses := []model.Course{
		{ID: "go-concurrency", Title: "Go Concurrency in Practice", Description: "Goroutines, channels and the patterns around them", Price: decimal.RequireFromString("49.99"), MentorID: "mentor-001"},
		{ID: "sql-fundamentals", Title: "SQL Fundamentals", Description: "Relational modelling and queries from scratch", Price: decimal.RequireFromString("19.50"), MentorID: "mentor-002"},
		{ID: "distributed-systems", Title: "Distributed Systems Basics", Description: "Consistency, replication and failure handling", Price: decimal.RequireFromString("89.00"), MentorID: "mentor-001"},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&courses).Error
}

func (r *courseRepoImpl) FindByID(ctx context.Context, courseID string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("id = ?", courseID).
		First(&course).Error

	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (r *courseRepoImpl) IncrementEnrollments(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	result := tx.WithContext(ctx).Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("total_enrollments", gorm.Expr("total_enrollments + ?", 1))

	return result.RowsAffected, result.Error
}
