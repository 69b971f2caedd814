package service

import (
	"strings"

	"course-enrollment-service/internal/apperr"
)

const (
	metaStudentID    = "studentId"
	metaCourseID     = "courseId"
	metaStudentName  = "studentName"
	metaStudentEmail = "studentEmail"
	metaCourseTitle  = "courseTitle"
)

// PurchaseMetadata is the only state carried between initiation and
// confirmation. It travels through the provider as a string map.
type PurchaseMetadata struct {
	StudentID    string
	CourseID     string
	StudentName  string
	StudentEmail string
	CourseTitle  string
}

func (m PurchaseMetadata) ToMap() map[string]string {
	return map[string]string{
		metaStudentID:    m.StudentID,
		metaCourseID:     m.CourseID,
		metaStudentName:  m.StudentName,
		metaStudentEmail: m.StudentEmail,
		metaCourseTitle:  m.CourseTitle,
	}
}

func ParsePurchaseMetadata(raw map[string]string) (PurchaseMetadata, error) {
	m := PurchaseMetadata{
		StudentID:    strings.TrimSpace(raw[metaStudentID]),
		CourseID:     strings.TrimSpace(raw[metaCourseID]),
		StudentName:  raw[metaStudentName],
		StudentEmail: strings.TrimSpace(raw[metaStudentEmail]),
		CourseTitle:  raw[metaCourseTitle],
	}
	if m.StudentID == "" || m.CourseID == "" {
		return PurchaseMetadata{}, apperr.Validation("payment metadata is missing studentId or courseId")
	}
	return m, nil
}
