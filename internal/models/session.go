package models

import "time"

// SessionStatus is the lifecycle state of a billing session.
type SessionStatus string

const (
	// SessionOpen accepts order items and may be settled.
	SessionOpen SessionStatus = "OPEN"
	// SessionProcessing means a settlement computation is in flight.
	SessionProcessing SessionStatus = "PROCESSING"
	// SessionSettled means a settlement plan exists and awaits confirmations.
	SessionSettled SessionStatus = "SETTLED"
	// SessionCompleted means every transaction of the settlement is paid.
	SessionCompleted SessionStatus = "COMPLETED"
	// SessionCancelled is reserved; nothing transitions into it yet.
	SessionCancelled SessionStatus = "CANCELLED"
)

// Terminal reports whether no further transition leaves this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Session represents one billing session ("tab") inside a group.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string `json:"id"`

	// GroupID is the group that owns this session.
	GroupID string `json:"group_id"`

	// CreatedBy is the member who opened the session.
	CreatedBy string `json:"created_by"`

	// Title is the human-readable name, e.g. "Friday lunch".
	Title string `json:"title"`

	// Status is mutated only by the settlement lifecycle.
	Status SessionStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
