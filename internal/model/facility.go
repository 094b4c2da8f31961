package model

import "time"

type Facility struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	LocationID int64     `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
}
