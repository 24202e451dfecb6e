package enrollment

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	"course-marketplace/internal/domain"
	auditrepo "course-marketplace/internal/repository/auditlog"
	enrollrepo "course-marketplace/internal/repository/enrollment"
)

// Service grants course access. Grants are idempotent: a course the student
// already holds is skipped, never an error, so retried settlements are safe.
type Service struct {
	repo   grantRepo
	audit  auditSink
	logger *log.Logger
}

type grantRepo interface {
	InsertIfAbsent(ctx context.Context, studentID, courseID int64) (*domain.Enrollment, bool, error)
	ListByStudent(ctx context.Context, studentID int64) ([]domain.Enrollment, error)
	ExistingCourseIDs(ctx context.Context, studentID int64, courseIDs []int64) (map[int64]bool, error)
}

type auditSink interface {
	Append(ctx context.Context, entry domain.LogEntry) error
}

func New(repo enrollrepo.Repository, audit auditrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Grant enrolls the student into every course they do not already hold and
// returns the enrollments actually created.
func (s *Service) Grant(ctx context.Context, studentID int64, courses []domain.Course) ([]domain.Enrollment, error) {
	if len(courses) == 0 {
		return []domain.Enrollment{}, nil
	}

	ids := make([]int64, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	existing, err := s.repo.ExistingCourseIDs(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}

	granted := []domain.Enrollment{}
	for _, c := range courses {
		if existing[c.ID] {
			continue
		}
		e, created, err := s.repo.InsertIfAbsent(ctx, studentID, c.ID)
		if err != nil {
			return granted, fmt.Errorf("grant course %d: %w", c.ID, err)
		}
		if !created {
			// lost a race with another settlement; the grant exists
			continue
		}
		granted = append(granted, *e)

		if s.audit != nil {
			entry := domain.LogEntry{
				Actor:    domain.SystemActor(),
				Action:   "enrollment.granted",
				Entity:   "enrollment",
				EntityID: strconv.FormatInt(e.ID, 10),
				Details:  fmt.Sprintf("student %d course %d", studentID, c.ID),
			}
			if err := s.audit.Append(ctx, entry); err != nil {
				s.logger.Printf("audit enrollment grant: %v", err)
			}
		}
	}
	return granted, nil
}

func (s *Service) ListByStudent(ctx context.Context, studentID int64) ([]domain.Enrollment, error) {
	return s.repo.ListByStudent(ctx, studentID)
}
