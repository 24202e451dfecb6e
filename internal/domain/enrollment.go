package domain

import "time"

// Enrollment is a durable grant of one course to one student. At most one
// exists per (student, course) pair.
type Enrollment struct {
	ID         int64     `json:"id"`
	StudentID  int64     `json:"studentId"`
	CourseID   int64     `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}
