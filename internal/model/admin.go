package model

import "time"

// Admin is a registered pool authority.
type Admin struct {
	Authority string    `json:"authority"`
	CreatedAt time.Time `json:"created_at"`
}
