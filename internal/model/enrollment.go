package model

import "time"

// Enrollment grants a student access to one course. (StudentID, CourseID) is
// unique at the storage layer.
type Enrollment struct {
	ID               string    `gorm:"primaryKey;size:36;not null" json:"id"`
	StudentID        string    `gorm:"size:64;not null;uniqueIndex:idx_enrollments_student_course" json:"studentId"`
	CourseID         string    `gorm:"size:64;not null;uniqueIndex:idx_enrollments_student_course;index" json:"courseId"`
	PaymentReference string    `gorm:"size:255;not null" json:"paymentReference"`
	PurchaseDate     time.Time `gorm:"not null;index" json:"purchaseDate"`

	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
