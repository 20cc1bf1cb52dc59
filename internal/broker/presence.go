package broker

import (
	"sync"
	"time"
)

const defaultTypingTimeout = 7 * time.Second

// PresenceTracker owns connection subscription state: which room a
// participant connection is in (at most one at a time), which
// connections are dashboard observers, and per-room typing markers.
type PresenceTracker struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	byClient   map[*Client]string
	dashboards map[*Client]struct{}
	typing     map[string]map[string]*time.Timer
	timeout    time.Duration
	// onTypingExpired is invoked outside the tracker lock when a typing
	// marker times out without a stop event.
	onTypingExpired func(roomId, userName string)
}

func NewPresenceTracker(timeout time.Duration) *PresenceTracker {
	if timeout <= 0 {
		timeout = defaultTypingTimeout
	}

	return &PresenceTracker{
		rooms:      make(map[string]map[*Client]struct{}),
		byClient:   make(map[*Client]string),
		dashboards: make(map[*Client]struct{}),
		typing:     make(map[string]map[string]*time.Timer),
		timeout:    timeout,
	}
}

// Subscribe makes c a participant of roomId, replacing any previous
// room subscription.
func (p *PresenceTracker) Subscribe(c *Client, roomId string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.byClient[c]; ok {
		p.dropFromRoom(c, prev)
	}

	if p.rooms[roomId] == nil {
		p.rooms[roomId] = make(map[*Client]struct{})
	}
	p.rooms[roomId][c] = struct{}{}
	p.byClient[c] = roomId
}

// UnsubscribeAll drops every subscription for c. Called on disconnect.
func (p *PresenceTracker) UnsubscribeAll(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if roomId, ok := p.byClient[c]; ok {
		p.dropFromRoom(c, roomId)
	}
	delete(p.dashboards, c)
}

// dropFromRoom removes c from a room's participant set. Callers must
// hold mu.
func (p *PresenceTracker) dropFromRoom(c *Client, roomId string) {
	delete(p.byClient, c)
	if members, ok := p.rooms[roomId]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(p.rooms, roomId)
		}
	}
}

// Participants returns the current participant connections of a room.
func (p *PresenceTracker) Participants(roomId string) []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	members := make([]*Client, 0, len(p.rooms[roomId]))
	for c := range p.rooms[roomId] {
		members = append(members, c)
	}
	return members
}

// RoomFor reports the room c participates in, if any.
func (p *PresenceTracker) RoomFor(c *Client) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	roomId, ok := p.byClient[c]
	return roomId, ok
}

func (p *PresenceTracker) SetDashboard(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dashboards[c] = struct{}{}
}

func (p *PresenceTracker) IsDashboard(c *Client) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.dashboards[c]
	return ok
}

// MarkTyping records that userName is typing in roomId. The marker
// expires after the configured timeout unless re-marked; clients
// re-send typing periodically while composing.
func (p *PresenceTracker) MarkTyping(roomId, userName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.typing[roomId] == nil {
		p.typing[roomId] = make(map[string]*time.Timer)
	}

	if timer, ok := p.typing[roomId][userName]; ok {
		timer.Reset(p.timeout)
		return
	}

	p.typing[roomId][userName] = time.AfterFunc(p.timeout, func() {
		p.expireTyping(roomId, userName)
	})
}

func (p *PresenceTracker) expireTyping(roomId, userName string) {
	p.mu.Lock()
	_, ok := p.typing[roomId][userName]
	if ok {
		p.removeTyping(roomId, userName)
	}
	cb := p.onTypingExpired
	p.mu.Unlock()

	if ok && cb != nil {
		cb(roomId, userName)
	}
}

func (p *PresenceTracker) ClearTyping(roomId, userName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if timer, ok := p.typing[roomId][userName]; ok {
		timer.Stop()
		p.removeTyping(roomId, userName)
	}
}

// removeTyping deletes a typing marker. Callers must hold mu.
func (p *PresenceTracker) removeTyping(roomId, userName string) {
	delete(p.typing[roomId], userName)
	if len(p.typing[roomId]) == 0 {
		delete(p.typing, roomId)
	}
}

func (p *PresenceTracker) TypingUsersFor(roomId string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.typing[roomId]))
	for name := range p.typing[roomId] {
		names = append(names, name)
	}
	return names
}

// ClearRoom drops all subscriptions and typing markers for a deleted
// room.
func (p *PresenceTracker) ClearRoom(roomId string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.rooms[roomId] {
		delete(p.byClient, c)
	}
	delete(p.rooms, roomId)

	for _, timer := range p.typing[roomId] {
		timer.Stop()
	}
	delete(p.typing, roomId)
}
