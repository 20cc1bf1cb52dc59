package store

import (
	"github.com/parassareen1/relay-chat/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockRoomStore struct {
	mock.Mock
}

func (m *MockRoomStore) CreateRoom() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockRoomStore) AppendMessage(roomId string, role types.Role, text, imageURL string) types.Message {
	args := m.Called(roomId, role, text, imageURL)
	return args.Get(0).(types.Message)
}

func (m *MockRoomStore) History(roomId string) []types.Message {
	args := m.Called(roomId)
	return args.Get(0).([]types.Message)
}

func (m *MockRoomStore) DeleteRoom(roomId string) bool {
	args := m.Called(roomId)
	return args.Bool(0)
}

func (m *MockRoomStore) HasRoom(roomId string) bool {
	args := m.Called(roomId)
	return args.Bool(0)
}

func (m *MockRoomStore) ListSummaries() []types.RoomSummary {
	args := m.Called()
	return args.Get(0).([]types.RoomSummary)
}

func (m *MockRoomStore) SetStatus(roomId string, status types.RoomStatus) {
	m.Called(roomId, status)
}

func (m *MockRoomStore) SetPriority(roomId string, priority types.RoomPriority) {
	m.Called(roomId, priority)
}

func (m *MockRoomStore) Len() int {
	args := m.Called()
	return args.Int(0)
}
