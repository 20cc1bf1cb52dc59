package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/parassareen1/relay-chat/internal/types"
	"github.com/teris-io/shortid"
)

type room struct {
	id       string
	messages []types.Message
	status   types.RoomStatus
	priority types.RoomPriority
	// denormalized summary, recomputed on every append
	latestMessage   string
	latestTimestamp time.Time
	createdAt       time.Time
}

// MemoryRoomStore keeps all rooms in process memory. Rooms live only as
// long as the process runs.
type MemoryRoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*room
	sid   *shortid.Shortid
}

func NewMemoryRoomStore() (*MemoryRoomStore, error) {
	sid, err := shortid.New(1, shortid.DefaultABC, uint64(time.Now().UnixNano()))
	if err != nil {
		return nil, fmt.Errorf("shortid: %w", err)
	}

	return &MemoryRoomStore{
		rooms: make(map[string]*room),
		sid:   sid,
	}, nil
}

func (s *MemoryRoomStore) CreateRoom() (string, error) {
	id, err := s.sid.Generate()
	if err != nil {
		return "", fmt.Errorf("generate room id: %w", err)
	}
	roomId := "room-" + id

	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocRoom(roomId)

	return roomId, nil
}

// allocRoom creates the room entry if missing. Callers must hold mu.
func (s *MemoryRoomStore) allocRoom(roomId string) *room {
	r, ok := s.rooms[roomId]
	if !ok {
		r = &room{
			id:        roomId,
			status:    types.StatusActive,
			priority:  types.PriorityNormal,
			createdAt: Now(),
		}
		s.rooms[roomId] = r
	}
	return r
}

func (s *MemoryRoomStore) AppendMessage(roomId string, role types.Role, text, imageURL string) types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.allocRoom(roomId)

	ts := Now()
	if n := len(r.messages); n > 0 && ts.Before(r.messages[n-1].Timestamp) {
		// timestamps are non-decreasing within a room
		ts = r.messages[n-1].Timestamp
	}

	msg := types.Message{
		Role:      role,
		Text:      text,
		ImageURL:  imageURL,
		Timestamp: ts,
	}
	r.messages = append(r.messages, msg)
	r.latestMessage = text
	r.latestTimestamp = ts

	return msg
}

func (s *MemoryRoomStore) History(roomId string) []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomId]
	if !ok {
		return []types.Message{}
	}

	history := make([]types.Message, len(r.messages))
	copy(history, r.messages)
	return history
}

func (s *MemoryRoomStore) DeleteRoom(roomId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomId]; !ok {
		return false
	}

	delete(s.rooms, roomId)
	return true
}

func (s *MemoryRoomStore) HasRoom(roomId string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rooms[roomId]
	return ok
}

func (s *MemoryRoomStore) ListSummaries() []types.RoomSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]types.RoomSummary, 0, len(s.rooms))
	for _, r := range s.rooms {
		latest := r.latestMessage
		if latest == "" {
			// image-only rooms get the sentinel too, not just empty ones
			latest = NoMessagesSentinel
		}

		summaries = append(summaries, types.RoomSummary{
			Id:              r.id,
			LatestMessage:   latest,
			LatestTimestamp: r.latestTimestamp,
			Status:          r.status,
			Priority:        r.priority,
		})
	}

	return summaries
}

func (s *MemoryRoomStore) SetStatus(roomId string, status types.RoomStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rooms[roomId]; ok {
		r.status = status
	}
}

func (s *MemoryRoomStore) SetPriority(roomId string, priority types.RoomPriority) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rooms[roomId]; ok {
		r.priority = priority
	}
}

func (s *MemoryRoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rooms)
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
