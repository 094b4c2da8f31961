package model

import "time"

// Reservation holds a facility for the half-open interval
// [StartTime, EndTime).
type Reservation struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	FacilityID int64     `json:"facility_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}
