package enrollment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"course-marketplace/internal/domain"
)

type memGrantRepo struct {
	nextID int64
	byPair map[[2]int64]domain.Enrollment
}

func newMemGrantRepo() *memGrantRepo {
	return &memGrantRepo{nextID: 1, byPair: make(map[[2]int64]domain.Enrollment)}
}

func (r *memGrantRepo) InsertIfAbsent(_ context.Context, studentID, courseID int64) (*domain.Enrollment, bool, error) {
	key := [2]int64{studentID, courseID}
	if existing, ok := r.byPair[key]; ok {
		clone := existing
		return &clone, false, nil
	}
	e := domain.Enrollment{ID: r.nextID, StudentID: studentID, CourseID: courseID}
	r.nextID++
	r.byPair[key] = e
	clone := e
	return &clone, true, nil
}

func (r *memGrantRepo) ListByStudent(_ context.Context, studentID int64) ([]domain.Enrollment, error) {
	out := []domain.Enrollment{}
	for _, e := range r.byPair {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memGrantRepo) ExistingCourseIDs(_ context.Context, studentID int64, courseIDs []int64) (map[int64]bool, error) {
	existing := make(map[int64]bool)
	for _, id := range courseIDs {
		if _, ok := r.byPair[[2]int64{studentID, id}]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func grantCourses() []domain.Course {
	return []domain.Course{
		{ID: 10, Title: "Go", Price: decimal.RequireFromString("99.99")},
		{ID: 11, Title: "SQL", Price: decimal.RequireFromString("49.99")},
	}
}

func TestGrant_CreatesEnrollments(t *testing.T) {
	repo := newMemGrantRepo()
	svc := New(repo, nil, nil)

	granted, err := svc.Grant(context.Background(), 7, grantCourses())
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if len(granted) != 2 {
		t.Fatalf("expected 2 enrollments, got %d", len(granted))
	}

	held, err := svc.ListByStudent(context.Background(), 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(held) != 2 {
		t.Fatalf("expected 2 held enrollments, got %d", len(held))
	}
}

func TestGrant_SkipsExisting(t *testing.T) {
	repo := newMemGrantRepo()
	svc := New(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.Grant(ctx, 7, grantCourses()[:1]); err != nil {
		t.Fatalf("first grant: %v", err)
	}

	granted, err := svc.Grant(ctx, 7, grantCourses())
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if len(granted) != 1 {
		t.Fatalf("expected only the new course granted, got %d", len(granted))
	}
	if granted[0].CourseID != 11 {
		t.Fatalf("expected course 11, got %d", granted[0].CourseID)
	}
}

func TestGrant_RepeatIsNoop(t *testing.T) {
	repo := newMemGrantRepo()
	svc := New(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.Grant(ctx, 7, grantCourses()); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	granted, err := svc.Grant(ctx, 7, grantCourses())
	if err != nil {
		t.Fatalf("repeat grant: %v", err)
	}
	if len(granted) != 0 {
		t.Fatalf("repeat grant must create nothing, got %d", len(granted))
	}
}

func TestGrant_EmptyCourseList(t *testing.T) {
	svc := New(newMemGrantRepo(), nil, nil)
	granted, err := svc.Grant(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if len(granted) != 0 {
		t.Fatalf("expected no enrollments, got %d", len(granted))
	}
}
