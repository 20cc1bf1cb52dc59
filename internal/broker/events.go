package broker

import (
	"encoding/json"
	"time"

	"github.com/parassareen1/relay-chat/internal/store"
	"github.com/parassareen1/relay-chat/internal/types"
)

// Inbound event names.
const (
	EvtJoinRoom    = "joinRoom"
	EvtDashboard   = "dashboard"
	EvtCreateRoom  = "createRoom"
	EvtGetMessages = "getMessages"
	EvtQuestion    = "question"
	EvtResponse    = "response"
	EvtTyping      = "typing"
	EvtStopTyping  = "stopTyping"
	EvtDeleteRoom  = "deleteRoom"
	EvtGetRooms    = "getRooms"
)

// Outbound event names.
const (
	EvtChatHistory   = "chatHistory"
	EvtRoomCreated   = "roomCreated"
	EvtAdminQuestion = "adminQuestion"
	EvtAdminResponse = "adminResponse"
	EvtRoomsList     = "roomsList"
	EvtRoomDeleted   = "roomDeleted"
	EvtUserJoined    = "userJoined"
	EvtError         = "error"
)

// ClientEvent is one inbound wire frame.
type ClientEvent struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	client *Client
}

// reply queues a diagnostic back to the originating connection. Events
// injected by the server itself have no originator.
func (e *ClientEvent) reply(evt *ServerEvent) {
	if e.client != nil {
		e.client.queueEvent(evt)
	}
}

// ServerEvent is one outbound wire frame.
type ServerEvent struct {
	Event     string    `json:"event"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type RoomPayload struct {
	RoomId string `json:"roomId"`
}

type PostPayload struct {
	RoomId string `json:"roomId"`
	Msg    string `json:"msg"`
	Image  string `json:"image,omitempty"`
}

type TypingPayload struct {
	RoomId   string `json:"roomId"`
	UserName string `json:"userName,omitempty"`
}

type AdminMessagePayload struct {
	RoomId string `json:"roomId"`
	Msg    string `json:"msg"`
	Image  string `json:"image,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewChatHistoryEvent(history []types.Message) *ServerEvent {
	return &ServerEvent{
		Event:     EvtChatHistory,
		Data:      history,
		Timestamp: store.Now(),
	}
}

func NewRoomCreatedEvent(roomId string) *ServerEvent {
	return &ServerEvent{
		Event:     EvtRoomCreated,
		Data:      RoomPayload{RoomId: roomId},
		Timestamp: store.Now(),
	}
}

// NewMessageEvent echoes a stored message back to room participants
// under the same event name it arrived on.
func NewMessageEvent(event string, msg types.Message) *ServerEvent {
	return &ServerEvent{
		Event:     event,
		Data:      msg,
		Timestamp: msg.Timestamp,
	}
}

func NewAdminMessageEvent(event, roomId string, msg types.Message) *ServerEvent {
	return &ServerEvent{
		Event: event,
		Data: AdminMessagePayload{
			RoomId: roomId,
			Msg:    msg.Text,
			Image:  msg.ImageURL,
		},
		Timestamp: msg.Timestamp,
	}
}

func NewRoomsListEvent(summaries []types.RoomSummary) *ServerEvent {
	return &ServerEvent{
		Event:     EvtRoomsList,
		Data:      summaries,
		Timestamp: store.Now(),
	}
}

func NewRoomDeletedEvent(roomId string) *ServerEvent {
	return &ServerEvent{
		Event:     EvtRoomDeleted,
		Data:      RoomPayload{RoomId: roomId},
		Timestamp: store.Now(),
	}
}

func NewUserJoinedEvent(roomId string) *ServerEvent {
	return &ServerEvent{
		Event:     EvtUserJoined,
		Data:      RoomPayload{RoomId: roomId},
		Timestamp: store.Now(),
	}
}

func NewTypingEvent(event, roomId, userName string) *ServerEvent {
	return &ServerEvent{
		Event: event,
		Data: TypingPayload{
			RoomId:   roomId,
			UserName: userName,
		},
		Timestamp: store.Now(),
	}
}

func NewErrorEvent(message string) *ServerEvent {
	return &ServerEvent{
		Event:     EvtError,
		Data:      ErrorPayload{Message: message},
		Timestamp: store.Now(),
	}
}

// adminEventFor maps a participant message event to its dashboard
// counterpart.
func adminEventFor(event string) string {
	if event == EvtQuestion {
		return EvtAdminQuestion
	}
	return EvtAdminResponse
}
