package domain

import "time"

// LogEntry is one append-only audit record.
type LogEntry struct {
	ID        string    `json:"id"`
	Actor     Actor     `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
