package broker

import (
	"testing"
	"time"

	"github.com/parassareen1/relay-chat/internal/store"
	"github.com/parassareen1/relay-chat/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNewMessageEvent(t *testing.T) {
	msg := types.Message{
		Role:      types.RoleAsker,
		Text:      "hello",
		Timestamp: store.Now(),
	}

	evt := NewMessageEvent(EvtQuestion, msg)
	assert.Equal(t, EvtQuestion, evt.Event, "expected event name to be preserved")
	assert.Equal(t, msg, evt.Data, "expected message as payload")
	assert.Equal(t, msg.Timestamp, evt.Timestamp, "expected event timestamp to match message")
}

func TestNewAdminMessageEvent(t *testing.T) {
	msg := types.Message{
		Role:      types.RoleResponder,
		Text:      "reply",
		ImageURL:  "https://img.example/1.png",
		Timestamp: store.Now(),
	}

	evt := NewAdminMessageEvent(EvtAdminResponse, "room-1", msg)
	assert.Equal(t, EvtAdminResponse, evt.Event)

	payload, ok := evt.Data.(AdminMessagePayload)
	assert.True(t, ok, "expected admin payload")
	assert.Equal(t, "room-1", payload.RoomId, "expected room id in admin payload")
	assert.Equal(t, "reply", payload.Msg, "expected message text in admin payload")
	assert.Equal(t, "https://img.example/1.png", payload.Image, "expected image url in admin payload")
}

func TestNewErrorEvent(t *testing.T) {
	evt := NewErrorEvent("roomId is required")
	assert.Equal(t, EvtError, evt.Event)
	assert.Equal(t, ErrorPayload{Message: "roomId is required"}, evt.Data)
	assert.WithinDuration(t, store.Now(), evt.Timestamp, time.Second, "expected a fresh timestamp")
}

func TestNewRoomCreatedEvent(t *testing.T) {
	evt := NewRoomCreatedEvent("room-abc")
	assert.Equal(t, EvtRoomCreated, evt.Event)
	assert.Equal(t, RoomPayload{RoomId: "room-abc"}, evt.Data)
}

func TestAdminEventFor(t *testing.T) {
	assert.Equal(t, EvtAdminQuestion, adminEventFor(EvtQuestion), "expected question to map to adminQuestion")
	assert.Equal(t, EvtAdminResponse, adminEventFor(EvtResponse), "expected response to map to adminResponse")
}
