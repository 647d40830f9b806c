// internal/app/scheduling/enroll.go
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.uber.org/zap"
)

// enrollAttempts bounds how often Enroll re-runs find-or-create after losing
// a race for the last seat.
const enrollAttempts = 3

// Enroll places studentID in a cohort of courseID and returns that cohort.
// joined is false when the student already belonged to it.
//
// A student who already belongs to a cohort of the course keeps it. Otherwise
// the cohort for enrolledAt's intake window is found or opened and the
// student added; if another enrollment fills it first, a fresh lookup picks
// (or opens) the next section.
func (s *Scheduler) Enroll(ctx context.Context, courseID, studentID string, enrolledAt time.Time) (c models.Cohort, joined bool, err error) {
	if err := requireID("course_id", courseID); err != nil {
		return models.Cohort{}, false, err
	}
	if err := requireID("student_id", studentID); err != nil {
		return models.Cohort{}, false, err
	}

	existing, ok, err := s.GetStudentCohort(ctx, studentID, courseID)
	if err != nil {
		return models.Cohort{}, false, err
	}
	if ok {
		return existing, false, nil
	}

	for attempt := 1; attempt <= enrollAttempts; attempt++ {
		c, err = s.FindOrCreateCohort(ctx, courseID, enrolledAt)
		if err != nil {
			return models.Cohort{}, false, err
		}

		added, err := s.AddStudentToCohort(ctx, c.ID, studentID)
		if errors.Is(err, ErrCohortFull) {
			s.rec.EnrollRetried()
			s.log.Info("cohort filled during enrollment, retrying",
				zap.String("cohort_id", c.ID.Hex()),
				zap.String("student_id", studentID),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return models.Cohort{}, false, err
		}

		current, ok, err := s.GetCohortByID(ctx, c.ID)
		if err != nil {
			return models.Cohort{}, false, err
		}
		if !ok {
			return models.Cohort{}, false, fmt.Errorf("cohort %s: %w", c.ID.Hex(), ErrNotFound)
		}
		return current, added, nil
	}
	return models.Cohort{}, false, fmt.Errorf("enroll %s in %s: %w", studentID, courseID, ErrCohortFull)
}
