package model

import "time"

// Course is a purchasable catalog entry. Price is in minor currency units.
// TotalEnrolled is a projection of enrollment rows and only moves inside
// the transaction that creates an enrollment.
type Course struct {
	ID            int64
	Title         string
	Price         int64
	Currency      string
	TotalEnrolled int64
	CreatedAt     time.Time
}
