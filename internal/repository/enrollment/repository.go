package enrollment

import (
	"context"

	"course-marketplace/internal/domain"
)

type Repository interface {
	// InsertIfAbsent creates the (student, course) enrollment unless it
	// already exists. The second return value reports whether a row was
	// created.
	InsertIfAbsent(ctx context.Context, studentID, courseID int64) (*domain.Enrollment, bool, error)
	ListByStudent(ctx context.Context, studentID int64) ([]domain.Enrollment, error)
	// ExistingCourseIDs returns which of the given courses the student is
	// already enrolled in, as one batch query.
	ExistingCourseIDs(ctx context.Context, studentID int64, courseIDs []int64) (map[int64]bool, error)
}
