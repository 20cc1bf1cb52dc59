package types

import (
	"time"
)

// Role identifies which side of a consultation authored a message.
// The dashboard observes rooms but never authors messages.
type Role string

const (
	RoleAsker     Role = "asker"
	RoleResponder Role = "responder"
)

func (r Role) Valid() bool {
	return r == RoleAsker || r == RoleResponder
}

type RoomStatus string

const (
	StatusActive   RoomStatus = "active"
	StatusPending  RoomStatus = "pending"
	StatusResolved RoomStatus = "resolved"
)

func (s RoomStatus) Valid() bool {
	return s == StatusActive || s == StatusPending || s == StatusResolved
}

type RoomPriority string

const (
	PriorityLow    RoomPriority = "low"
	PriorityNormal RoomPriority = "normal"
	PriorityHigh   RoomPriority = "high"
)

func (p RoomPriority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"message"`
	ImageURL  string    `json:"image,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type RoomSummary struct {
	Id              string       `json:"id"`
	LatestMessage   string       `json:"latestMessage"`
	LatestTimestamp time.Time    `json:"latestTimestamp"`
	Status          RoomStatus   `json:"status"`
	Priority        RoomPriority `json:"priority"`
}
