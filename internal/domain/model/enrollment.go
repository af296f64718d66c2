package model

import "time"

// Enrollment records that a user holds access to a course. The (UserID,
// CourseID) pair is unique at the storage layer; that constraint, not
// application logic, decides concurrent writers.
type Enrollment struct {
	ID            int64
	UserID        int64
	CourseID      int64
	SourceOrderID string
	EnrolledAt    time.Time
}
