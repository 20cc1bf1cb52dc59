package store

import (
	"github.com/parassareen1/relay-chat/internal/types"
)

// NoMessagesSentinel is reported as the latest message for rooms
// without any traffic yet.
const NoMessagesSentinel = "No messages yet"

// RoomStore owns all rooms and their message logs. Every operation is
// total over "room may or may not exist": unknown rooms are normal
// traffic (a client may fetch history before any message, the dashboard
// may race a deletion), never an error.
type RoomStore interface {
	// CreateRoom allocates an empty room in active status and returns
	// its id.
	CreateRoom() (string, error)
	// AppendMessage appends to the room's log, implicitly creating the
	// room if it does not exist. The returned message carries the
	// server-assigned timestamp.
	AppendMessage(roomId string, role types.Role, text, imageURL string) types.Message
	// History returns the full ordered log, or an empty slice for an
	// unknown room.
	History(roomId string) []types.Message
	// DeleteRoom removes the room and its log, reporting whether a
	// room actually existed.
	DeleteRoom(roomId string) bool
	// HasRoom reports whether the room currently exists.
	HasRoom(roomId string) bool
	// ListSummaries returns one summary per existing room. Ordering is
	// unspecified at this layer.
	ListSummaries() []types.RoomSummary
	// SetStatus and SetPriority are idempotent and no-ops on unknown
	// rooms, since the dashboard may race with a deletion.
	SetStatus(roomId string, status types.RoomStatus)
	SetPriority(roomId string, priority types.RoomPriority)
	// Len reports the number of existing rooms.
	Len() int
}
