package domain

import "time"

// Counter is the authoritative counter row owned by a single user.
type Counter struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Value     int64     `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CounterUpdate carries the mutable counter fields; nil means unchanged.
type CounterUpdate struct {
	Value *int64
}
