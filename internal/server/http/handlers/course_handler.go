package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vkruglov/coursepay/internal/server/http/dto"
)

// CourseHandler serves the course catalog.
type CourseHandler struct {
	facade CourseFacade
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(facade CourseFacade) *CourseHandler {
	return &CourseHandler{facade: facade}
}

// List handles GET /api/courses.
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.facade.Courses(c.Request.Context())
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		response = append(response, dto.CourseResponse{
			ID:            course.ID,
			Title:         course.Title,
			Price:         course.Price,
			Currency:      course.Currency,
			TotalEnrolled: course.TotalEnrolled,
		})
	}

	c.JSON(http.StatusOK, response)
}
