package broker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/parassareen1/relay-chat/internal/stats"
	"github.com/parassareen1/relay-chat/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestHandlePost_invalidPayload(t *testing.T) {
	b := newTestBroker(t, &store.MockRoomStore{}, nil, &stats.MockStatsUpdater{})
	c := newTestClient(t, b)

	p := newRoomProc("room-1", b)
	p.handlePost(&ClientEvent{Event: EvtQuestion, Data: json.RawMessage(`{`), client: c})

	events := drainEvents(c, 50*time.Millisecond)
	assert.Len(t, events, 1, "expected a diagnostic reply")
	assert.Equal(t, EvtError, events[0].Event, "expected error event for bad payload")
}

func TestResolveAttachment_noResolver(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	b := newTestBroker(t, &store.MockRoomStore{}, nil, su)

	p := newRoomProc("room-1", b)
	url := p.resolveAttachment("data:image/png;base64,aGk=")

	assert.Empty(t, url, "expected no url without a resolver")
	su.AssertCalled(t, "Incr", AttachmentFailuresMetric)
}

func TestResolveAttachment_emptyBlob(t *testing.T) {
	b := newTestBroker(t, &store.MockRoomStore{}, nil, &stats.MockStatsUpdater{})

	p := newRoomProc("room-1", b)
	assert.Empty(t, p.resolveAttachment(""), "expected empty blob to be a no-op")
}

func TestRequestUnload(t *testing.T) {
	b := newTestBroker(t, &store.MockRoomStore{}, nil, &stats.MockStatsUpdater{})

	p := newRoomProc("room-1", b)
	p.requestUnload()

	select {
	case req := <-b.unloadChan:
		assert.Equal(t, "room-1", req.roomId, "expected unload request for the worker's room")
		assert.Equal(t, p, req.proc, "expected unload request to carry the worker")
	default:
		t.Error("expected unload request to be queued")
	}
}
