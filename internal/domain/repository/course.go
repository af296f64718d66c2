package repository

import (
	"context"

	"github.com/vkruglov/coursepay/internal/domain/model"
)

// CourseRepository provides read access to the course catalog and the
// reconciliation hook for its enrollment counter.
type CourseRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)

	// Recount recomputes total_enrolled from enrollment rows and returns
	// the corrected value. Used by reconciliation, never by the hot path.
	Recount(ctx context.Context, courseID int64) (int64, error)
}
