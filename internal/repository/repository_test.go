package repository

import (
	"context"
	"testing"
	"time"

	"course-enrollment-service/internal/client"
	"course-enrollment-service/internal/config"
	"course-enrollment-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitDBClient(config.Database{Driver: "sqlite", URL: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, id string) *model.Course {
	t.Helper()
	course := &model.Course{ID: id, Title: "Course " + id, Price: decimal.RequireFromString("49.99")}
	require.NoError(t, db.Create(course).Error)
	return course
}

func TestEnrollmentRepository_CreateIfNotExists(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedCourse(t, db, "c1")
	repo := NewEnrollmentRepository(db)

	first := &model.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", PaymentReference: "pi_1", PurchaseDate: time.Now()}
	inserted, err := repo.CreateIfNotExists(ctx, db, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := &model.Enrollment{ID: "e2", StudentID: "s1", CourseID: "c1", PaymentReference: "pi_2", PurchaseDate: time.Now()}
	inserted, err = repo.CreateIfNotExists(ctx, db, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	existing, err := repo.FindByStudentAndCourse(ctx, nil, "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "e1", existing.ID)
	assert.Equal(t, "pi_1", existing.PaymentReference)

	count, err := repo.CountByCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEnrollmentRepository_UniqueIndexRejectsPlainInsert(t *testing.T) {
	db := newTestDB(t)
	seedCourse(t, db, "c1")

	require.NoError(t, db.Create(&model.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", PaymentReference: "pi_1", PurchaseDate: time.Now()}).Error)
	err := db.Create(&model.Enrollment{ID: "e2", StudentID: "s1", CourseID: "c1", PaymentReference: "pi_2", PurchaseDate: time.Now()}).Error

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestEnrollmentRepository_ListByStudent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedCourse(t, db, "c1")
	seedCourse(t, db, "c2")
	repo := NewEnrollmentRepository(db)

	older := time.Now().Add(-time.Hour)
	_, err := repo.CreateIfNotExists(ctx, db, &model.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", PaymentReference: "pi_1", PurchaseDate: older})
	require.NoError(t, err)
	_, err = repo.CreateIfNotExists(ctx, db, &model.Enrollment{ID: "e2", StudentID: "s1", CourseID: "c2", PaymentReference: "pi_2", PurchaseDate: time.Now()})
	require.NoError(t, err)
	_, err = repo.CreateIfNotExists(ctx, db, &model.Enrollment{ID: "e3", StudentID: "s2", CourseID: "c1", PaymentReference: "pi_3", PurchaseDate: time.Now()})
	require.NoError(t, err)

	list, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "e2", list[0].ID)
	assert.Equal(t, "e1", list[1].ID)
	require.NotNil(t, list[0].Course)
	assert.Equal(t, "Course c2", list[0].Course.Title)

	exists, err := repo.Exists(ctx, "s2", "c2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCourseRepository_IncrementEnrollments(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedCourse(t, db, "c1")
	repo := NewCourseRepository(db)

	rows, err := repo.IncrementEnrollments(ctx, db, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.IncrementEnrollments(ctx, db, "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	course, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), course.TotalEnrollments)
	assert.True(t, course.Price.Equal(decimal.RequireFromString("49.99")))
}

func TestCourseRepository_SeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCourseRepository(db)

	require.NoError(t, repo.Seed(ctx))
	require.NoError(t, repo.Seed(ctx))

	var count int64
	require.NoError(t, db.Model(&model.Course{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	_, err := repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWebhookEventRepository_MarkProcessedTwice(t *testing.T) {
	ctx := context.Background()
	repo := NewWebhookEventRepository(newTestDB(t))

	require.NoError(t, repo.MarkProcessed(ctx, "stripe", "evt_1", "checkout.session.completed"))
	require.NoError(t, repo.MarkProcessed(ctx, "stripe", "evt_1", "checkout.session.completed"))

	exists, err := repo.Exists(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, exists)
}
