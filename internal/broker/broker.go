package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/parassareen1/relay-chat/internal/attach"
	"github.com/parassareen1/relay-chat/internal/stats"
	"github.com/parassareen1/relay-chat/internal/store"
	"github.com/parassareen1/relay-chat/internal/types"
)

const (
	ConnectionsMetric        = "Connections"
	TotalMessagesMetric      = "TotalMessages"
	AttachmentFailuresMetric = "AttachmentFailures"
	EventsDroppedMetric      = "EventsDropped"
)

// MessageArchiver is the optional persistence collaborator. Calls are
// fire-and-forget; delivery never depends on them.
type MessageArchiver interface {
	SaveMessage(roomId string, msg types.Message)
	DeleteRoom(roomId string)
}

type unloadRequest struct {
	roomId string
	proc   *roomProc
}

// Broker routes inbound client events to the room store and presence
// tracker and fans resulting events out to subscribers.
type Broker struct {
	log            *log.Logger
	store          store.RoomStore
	presence       *PresenceTracker
	resolver       attach.Resolver
	archive        MessageArchiver
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	eventChan      chan *ClientEvent
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	unloadChan     chan unloadRequest
	procs          map[string]*roomProc
	procsLock      sync.Mutex
	idleTimeout    time.Duration
	stop           chan struct{}
	done           chan struct{}
}

// NewBroker wires the router. resolver and archiver may be nil, which
// disables attachments and archiving respectively.
func NewBroker(logger *log.Logger, rs store.RoomStore, presence *PresenceTracker, resolver attach.Resolver, archiver MessageArchiver, su stats.StatsProvider) (*Broker, error) {
	if rs == nil {
		return nil, fmt.Errorf("room store is required")
	}
	if presence == nil {
		return nil, fmt.Errorf("presence tracker is required")
	}

	b := &Broker{
		log:            logger,
		store:          rs,
		presence:       presence,
		resolver:       resolver,
		archive:        archiver,
		stats:          su,
		clients:        make(map[*Client]struct{}),
		eventChan:      make(chan *ClientEvent, 256),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		unloadChan:     make(chan unloadRequest, 16),
		procs:          make(map[string]*roomProc),
		idleTimeout:    idleProcTimeout,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	su.RegisterMetric(ConnectionsMetric)
	su.RegisterMetric(TotalMessagesMetric)
	su.RegisterMetric(AttachmentFailuresMetric)
	su.RegisterMetric(EventsDroppedMetric)

	presence.onTypingExpired = func(roomId, userName string) {
		b.log.Printf("typing marker for %q in room %q expired", userName, roomId)
		b.broadcastRoom(roomId, NewTypingEvent(EvtStopTyping, roomId, userName), nil)
	}

	return b, nil
}

func (b *Broker) Run() {
	for {
		select {
		case evt := <-b.eventChan:
			b.routeToProc(evt)
		case client := <-b.RegisterChan:
			b.log.Printf("adding connection %s", client.id)
			b.addClient(client)
			b.stats.Incr(ConnectionsMetric)
		case client := <-b.deRegisterChan:
			b.log.Printf("removing connection %s", client.id)
			b.removeClient(client)
			b.presence.UnsubscribeAll(client)
			b.stats.Decr(ConnectionsMetric)
		case req := <-b.unloadChan:
			b.procsLock.Lock()
			if b.procs[req.roomId] == req.proc {
				delete(b.procs, req.roomId)
			}
			b.procsLock.Unlock()
			// re-route events that raced the worker shutdown
		drain:
			for {
				select {
				case evt := <-req.proc.events:
					b.routeToProc(evt)
				default:
					break drain
				}
			}
		case <-b.stop:
			b.log.Println("shutting down room workers")
			b.procsLock.Lock()
			for id, p := range b.procs {
				b.log.Printf("stopping worker for room %q", id)
				close(p.exit)
				<-p.done
			}
			b.procsLock.Unlock()

			close(b.done)
			return
		}
	}
}

// routeToProc hands a room-scoped mutating event to the room's worker,
// spawning one if the room has no live worker.
func (b *Broker) routeToProc(evt *ClientEvent) {
	var payload RoomPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.RoomId == "" {
		evt.reply(NewErrorEvent("roomId is required"))
		return
	}

	b.procsLock.Lock()
	proc, ok := b.procs[payload.RoomId]
	if !ok {
		proc = newRoomProc(payload.RoomId, b)
		b.procs[payload.RoomId] = proc
		go proc.run()
	}
	b.procsLock.Unlock()

	select {
	case proc.events <- evt:
	default:
		b.log.Printf("event queue full for room %q", payload.RoomId)
		evt.reply(NewErrorEvent("service unavailable"))
	}
}

// dispatch validates an inbound event and routes it. Called from each
// connection's read pump; per-room ordering is enforced by the room
// workers, not here.
func (b *Broker) dispatch(evt *ClientEvent) {
	switch evt.Event {
	case EvtJoinRoom:
		roomId, ok := b.roomIdFrom(evt)
		if !ok {
			return
		}
		b.presence.Subscribe(evt.client, roomId)
		b.broadcastAll(NewUserJoinedEvent(roomId))
	case EvtDashboard:
		b.presence.SetDashboard(evt.client)
	case EvtCreateRoom:
		roomId, err := b.store.CreateRoom()
		if err != nil {
			b.log.Println("error creating room:", err)
			evt.client.queueEvent(NewErrorEvent("could not create room"))
			return
		}
		evt.client.queueEvent(NewRoomCreatedEvent(roomId))
	case EvtGetMessages:
		roomId, ok := b.roomIdFrom(evt)
		if !ok {
			return
		}
		evt.client.queueEvent(NewChatHistoryEvent(b.store.History(roomId)))
	case EvtQuestion, EvtResponse:
		var payload PostPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.RoomId == "" {
			evt.client.queueEvent(NewErrorEvent("roomId is required"))
			return
		}
		if payload.Msg == "" && payload.Image == "" {
			evt.client.queueEvent(NewErrorEvent("msg or image is required"))
			return
		}
		b.enqueue(evt)
	case EvtDeleteRoom:
		if _, ok := b.roomIdFrom(evt); !ok {
			return
		}
		b.enqueue(evt)
	case EvtTyping, EvtStopTyping:
		b.handleTyping(evt)
	case EvtGetRooms:
		b.broadcastSummaries()
	default:
		evt.client.queueEvent(NewErrorEvent("unknown event " + evt.Event))
	}
}

// enqueue puts a room-scoped mutating event on the router queue.
func (b *Broker) enqueue(evt *ClientEvent) {
	select {
	case b.eventChan <- evt:
	default:
		b.log.Println("event queue full")
		evt.client.queueEvent(NewErrorEvent("service unavailable"))
	}
}

func (b *Broker) handleTyping(evt *ClientEvent) {
	var payload TypingPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.RoomId == "" {
		evt.client.queueEvent(NewErrorEvent("roomId is required"))
		return
	}

	userName := payload.UserName
	if userName == "" {
		userName = "anonymous"
	}

	if evt.Event == EvtTyping {
		b.presence.MarkTyping(payload.RoomId, userName)
	} else {
		b.presence.ClearTyping(payload.RoomId, userName)
	}

	b.broadcastRoom(payload.RoomId, NewTypingEvent(evt.Event, payload.RoomId, userName), evt.client)
}

// roomIdFrom extracts a required roomId, replying with a diagnostic to
// the originator only when it is missing.
func (b *Broker) roomIdFrom(evt *ClientEvent) (string, bool) {
	var payload RoomPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.RoomId == "" {
		evt.client.queueEvent(NewErrorEvent("roomId is required"))
		return "", false
	}
	return payload.RoomId, true
}

func (b *Broker) addClient(c *Client) {
	b.clientsLock.Lock()
	defer b.clientsLock.Unlock()
	b.clients[c] = struct{}{}
}

func (b *Broker) removeClient(c *Client) {
	b.clientsLock.Lock()
	defer b.clientsLock.Unlock()
	delete(b.clients, c)
}

// broadcastAll queues an event for every live connection. Delivery is
// best-effort per subscriber: a full queue skips that subscriber only.
func (b *Broker) broadcastAll(evt *ServerEvent) {
	b.clientsLock.Lock()
	targets := make([]*Client, 0, len(b.clients))
	for c := range b.clients {
		targets = append(targets, c)
	}
	b.clientsLock.Unlock()

	for _, c := range targets {
		c.queueEvent(evt)
	}
}

// broadcastRoom queues an event for the room's participants, optionally
// excluding the sender.
func (b *Broker) broadcastRoom(roomId string, evt *ServerEvent, skip *Client) {
	for _, c := range b.presence.Participants(roomId) {
		if c == skip {
			continue
		}
		c.queueEvent(evt)
	}
}

// broadcastSummaries sends a refreshed summary list to every
// connection. The list is always global, never scoped to the
// requester.
func (b *Broker) broadcastSummaries() {
	b.broadcastAll(NewRoomsListEvent(b.store.ListSummaries()))
}

// RegisterClient hands a freshly upgraded connection to the router.
func (b *Broker) RegisterClient(c *Client) {
	b.RegisterChan <- c
}

// DeleteRoom requests a room deletion on behalf of an external caller
// such as the dashboard REST surface. The deletion runs through the
// room's worker so it queues behind in-flight posts and produces the
// same roomDeleted fan-out and presence cleanup as a wire-level delete.
// Reports whether the room existed at request time.
func (b *Broker) DeleteRoom(roomId string) bool {
	if !b.store.HasRoom(roomId) {
		return false
	}

	data, err := json.Marshal(RoomPayload{RoomId: roomId})
	if err != nil {
		b.log.Println("error encoding delete request:", err)
		return false
	}

	select {
	case b.eventChan <- &ClientEvent{Event: EvtDeleteRoom, Data: data}:
	case <-b.stop:
	}

	return true
}

// procCount reports the number of live room workers.
func (b *Broker) procCount() int {
	b.procsLock.Lock()
	defer b.procsLock.Unlock()
	return len(b.procs)
}

func (b *Broker) Shutdown(ctx context.Context) error {
	b.log.Println("received shutdown signal")

	b.clientsLock.Lock()
	for c := range b.clients {
		c.stopClient()
	}
	b.clientsLock.Unlock()

	close(b.stop)

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
