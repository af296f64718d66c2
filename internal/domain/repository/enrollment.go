package repository

import (
	"context"

	"github.com/vkruglov/coursepay/internal/domain/model"
)

// EnrollmentRepository manages enrollment records and the course counter
// that is kept consistent with them.
type EnrollmentRepository interface {
	// Commit atomically inserts the enrollment for (userID, courseID),
	// bumps the course counter and marks the order ENROLLED. When the
	// unique constraint rejects the insert because the pair is already
	// enrolled, the existing enrollment is returned with created=false and
	// the counter is left untouched. Returns the enrollment, the current
	// course total and whether a new row was created.
	Commit(ctx context.Context, orderID string, userID, courseID int64) (*model.Enrollment, int64, bool, error)

	GetByOrder(ctx context.Context, orderID string) (*model.Enrollment, error)
	GetByUserCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
	CountByCourse(ctx context.Context, courseID int64) (int64, error)
}
