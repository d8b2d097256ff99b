package sync

import "time"

// Welcome is the first message on every connection.
type Welcome struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}
