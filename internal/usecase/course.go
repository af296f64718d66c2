package usecase

import (
	"context"

	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/domain/repository"
)

// CourseUseCase exposes the course catalog.
type CourseUseCase struct {
	courses repository.CourseRepository
}

// NewCourseUseCase constructs CourseUseCase.
func NewCourseUseCase(courses repository.CourseRepository) *CourseUseCase {
	return &CourseUseCase{courses: courses}
}

// List returns all courses with their enrollment totals.
func (u *CourseUseCase) List(ctx context.Context) ([]model.Course, error) {
	return u.courses.List(ctx)
}

// Get returns a single course.
func (u *CourseUseCase) Get(ctx context.Context, id int64) (*model.Course, error) {
	return u.courses.GetByID(ctx, id)
}

// Recount rebuilds a course enrollment total from the enrollments table.
func (u *CourseUseCase) Recount(ctx context.Context, id int64) (int64, error) {
	return u.courses.Recount(ctx, id)
}
