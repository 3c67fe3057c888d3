package domain

import "time"

// Connection is one live transport session. Its lifetime is exactly the
// transport session's lifetime; ownership is exclusive to the presence
// registry.
type Connection struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastActivity time.Time `json:"last_activity"`
}

// UserPresence summarizes the live connections of a single user, for the
// presence UI.
type UserPresence struct {
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Connections  int       `json:"connections"`
	LastActivity time.Time `json:"last_activity"`
}
