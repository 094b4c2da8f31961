package model

import "time"

// Location is a building that owns facilities. Operating times are opaque
// time-of-day strings ("07:00"); they are displayed, never computed with.
type Location struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	WeekdayOpen  string    `json:"weekday_open"`
	WeekdayClose string    `json:"weekday_close"`
	WeekendOpen  string    `json:"weekend_open"`
	WeekendClose string    `json:"weekend_close"`
	CreatedAt    time.Time `json:"created_at"`
}
