package broker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/parassareen1/relay-chat/internal/types"
)

const (
	idleProcTimeout = 30 * time.Second
	attachTimeout   = 15 * time.Second
)

// roomProc serializes mutating traffic for one room. Posts wait for
// attachment resolution inside the worker, so concurrent posts to the
// same room land in arrival order while other rooms proceed
// independently. The worker is a scheduling scope only: room data
// lives in the store and survives an idle worker being reaped.
type roomProc struct {
	roomId string
	broker *Broker
	events chan *ClientEvent
	log    *log.Logger
	// killTimer reaps the worker when the room goes quiet
	killTimer   *time.Timer
	idleTimeout time.Duration
	exit        chan struct{}
	done        chan struct{}
}

func newRoomProc(roomId string, b *Broker) *roomProc {
	return &roomProc{
		roomId:      roomId,
		broker:      b,
		events:      make(chan *ClientEvent, 256),
		log:         b.log,
		idleTimeout: b.idleTimeout,
		exit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (p *roomProc) run() {
	p.log.Printf("starting worker for room %q", p.roomId)
	p.killTimer = time.NewTimer(p.idleTimeout)
	defer close(p.done)

	for {
		select {
		case evt := <-p.events:
			p.killTimer.Stop()

			switch evt.Event {
			case EvtQuestion, EvtResponse:
				p.handlePost(evt)
			case EvtDeleteRoom:
				p.handleDelete(evt)
				p.requestUnload()
				return
			}

			p.killTimer.Reset(p.idleTimeout)
		case <-p.killTimer.C:
			if len(p.events) > 0 {
				// an event raced the timer, keep going
				p.killTimer.Reset(p.idleTimeout)
				continue
			}
			p.log.Printf("worker for room %q idle, unloading", p.roomId)
			p.requestUnload()
			return
		case <-p.exit:
			return
		}
	}
}

func (p *roomProc) requestUnload() {
	select {
	case p.broker.unloadChan <- unloadRequest{roomId: p.roomId, proc: p}:
	case <-p.broker.stop:
	}
}

func (p *roomProc) handlePost(evt *ClientEvent) {
	var payload PostPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		p.log.Println("error parsing post payload:", err)
		evt.client.queueEvent(NewErrorEvent("invalid event format"))
		return
	}

	imageURL := p.resolveAttachment(payload.Image)

	role := types.RoleAsker
	if evt.Event == EvtResponse {
		role = types.RoleResponder
	}

	msg := p.broker.store.AppendMessage(p.roomId, role, payload.Msg, imageURL)
	p.broker.stats.Incr(TotalMessagesMetric)

	if p.broker.archive != nil {
		go p.broker.archive.SaveMessage(p.roomId, msg)
	}

	p.broker.broadcastRoom(p.roomId, NewMessageEvent(evt.Event, msg), nil)
	p.broker.broadcastRoom(p.roomId, NewChatHistoryEvent(p.broker.store.History(p.roomId)), nil)
	p.broker.broadcastAll(NewAdminMessageEvent(adminEventFor(evt.Event), p.roomId, msg))
	p.broker.broadcastSummaries()
}

// resolveAttachment turns an inbound image blob into a stored URL. A
// resolver failure degrades to a message without an attachment; the
// message itself is never dropped.
func (p *roomProc) resolveAttachment(blob string) string {
	if blob == "" {
		return ""
	}

	if p.broker.resolver == nil {
		p.log.Printf("no attachment resolver configured, dropping attachment for room %q", p.roomId)
		p.broker.stats.Incr(AttachmentFailuresMetric)
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), attachTimeout)
	defer cancel()

	url, err := p.broker.resolver.Upload(ctx, blob)
	if err != nil {
		p.log.Printf("error uploading attachment for room %q: %v", p.roomId, err)
		p.broker.stats.Incr(AttachmentFailuresMetric)
		return ""
	}

	return url
}

func (p *roomProc) handleDelete(evt *ClientEvent) {
	if !p.broker.store.DeleteRoom(p.roomId) {
		p.log.Printf("room %q not found", p.roomId)
		return
	}

	p.log.Printf("deleted room %q", p.roomId)

	deleted := NewRoomDeletedEvent(p.roomId)
	p.broker.broadcastRoom(p.roomId, deleted, nil)
	p.broker.broadcastAll(deleted)

	p.broker.presence.ClearRoom(p.roomId)

	if p.broker.archive != nil {
		go p.broker.archive.DeleteRoom(p.roomId)
	}

	p.broker.broadcastSummaries()
}
