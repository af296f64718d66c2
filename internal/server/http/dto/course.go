package dto

// CourseResponse describes a catalog entry.
type CourseResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Price         int64  `json:"price"`
	Currency      string `json:"currency"`
	TotalEnrolled int64  `json:"total_enrolled"`
}
