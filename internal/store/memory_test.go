package store

import (
	"strconv"
	"strings"
	"testing"

	"github.com/parassareen1/relay-chat/internal/types"
	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *MemoryRoomStore {
	s, err := NewMemoryRoomStore()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func TestCreateRoom(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateRoom()
	assert.NoError(t, err, "expected no error creating room")
	assert.True(t, strings.HasPrefix(id, "room-"), "expected room id to carry the room- prefix")
	assert.Equal(t, 1, s.Len(), "expected one room after creation")

	id2, err := s.CreateRoom()
	assert.NoError(t, err, "expected no error creating second room")
	assert.NotEqual(t, id, id2, "expected unique room ids")
	assert.Equal(t, 2, s.Len(), "expected two rooms after second creation")
}

func TestAppendMessage_ordering(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 10; i++ {
		s.AppendMessage("room-1", types.RoleAsker, "msg "+strconv.Itoa(i), "")
	}

	history := s.History("room-1")
	assert.Len(t, history, 10, "expected all messages in history")
	for i, msg := range history {
		assert.Equalf(t, "msg "+strconv.Itoa(i), msg.Text, "expected message %d in call order", i)
		if i > 0 {
			assert.False(t, msg.Timestamp.Before(history[i-1].Timestamp),
				"expected non-decreasing timestamps")
		}
	}
}

func TestAppendMessage_implicitCreation(t *testing.T) {
	s := newTestStore(t)

	msg := s.AppendMessage("room-unknown", types.RoleAsker, "hello", "")
	assert.Equal(t, types.RoleAsker, msg.Role, "expected role to be stored")
	assert.False(t, msg.Timestamp.IsZero(), "expected server-assigned timestamp")
	assert.Equal(t, 1, s.Len(), "expected room to be created implicitly")

	summaries := s.ListSummaries()
	assert.Len(t, summaries, 1, "expected one summary for implicit room")
	assert.Equal(t, types.StatusActive, summaries[0].Status, "expected implicit room to be active")
	assert.Equal(t, types.PriorityNormal, summaries[0].Priority, "expected default priority")
}

func TestHistory_unknownRoom(t *testing.T) {
	s := newTestStore(t)

	history := s.History("room-nope")
	assert.NotNil(t, history, "expected empty slice, not nil")
	assert.Empty(t, history, "expected no messages for unknown room")
}

func TestHistory_returnsCopy(t *testing.T) {
	s := newTestStore(t)
	s.AppendMessage("room-1", types.RoleAsker, "original", "")

	history := s.History("room-1")
	history[0].Text = "mutated"

	assert.Equal(t, "original", s.History("room-1")[0].Text,
		"expected stored message to be immutable through returned history")
}

func TestDeleteRoom(t *testing.T) {
	s := newTestStore(t)
	s.AppendMessage("room-1", types.RoleAsker, "hello", "")

	assert.True(t, s.DeleteRoom("room-1"), "expected true deleting existing room")
	assert.False(t, s.DeleteRoom("room-1"), "expected false on second delete")
	assert.Empty(t, s.History("room-1"), "expected empty history after deletion")
	assert.Equal(t, 0, s.Len(), "expected no rooms after deletion")
}

func TestHasRoom(t *testing.T) {
	s := newTestStore(t)

	assert.False(t, s.HasRoom("room-1"), "expected no room before any traffic")

	s.AppendMessage("room-1", types.RoleAsker, "hello", "")
	assert.True(t, s.HasRoom("room-1"), "expected room after implicit creation")

	s.DeleteRoom("room-1")
	assert.False(t, s.HasRoom("room-1"), "expected room gone after deletion")
}

func TestListSummaries(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateRoom()
	assert.NoError(t, err)
	s.AppendMessage("room-busy", types.RoleResponder, "latest reply", "")

	summaries := s.ListSummaries()
	assert.Len(t, summaries, 2, "expected one summary per room")

	byId := make(map[string]types.RoomSummary, len(summaries))
	for _, sum := range summaries {
		byId[sum.Id] = sum
	}

	assert.Equal(t, NoMessagesSentinel, byId[id].LatestMessage,
		"expected sentinel for empty room")
	assert.Equal(t, "latest reply", byId["room-busy"].LatestMessage,
		"expected latest message text in summary")

	s.DeleteRoom("room-busy")
	summaries = s.ListSummaries()
	assert.Len(t, summaries, 1, "expected deleted room to drop from summaries")
	assert.Equal(t, id, summaries[0].Id, "expected remaining room in summaries")
}

func TestListSummaries_imageOnlyMessage(t *testing.T) {
	s := newTestStore(t)
	s.AppendMessage("room-1", types.RoleAsker, "", "https://img.example/1.png")

	summaries := s.ListSummaries()
	assert.Len(t, summaries, 1)
	assert.Equal(t, NoMessagesSentinel, summaries[0].LatestMessage,
		"expected sentinel when the latest message has no text")
}

func TestSetStatusAndPriority(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateRoom()
	assert.NoError(t, err)

	s.SetStatus(id, types.StatusResolved)
	s.SetPriority(id, types.PriorityHigh)

	summaries := s.ListSummaries()
	assert.Equal(t, types.StatusResolved, summaries[0].Status, "expected status update")
	assert.Equal(t, types.PriorityHigh, summaries[0].Priority, "expected priority update")

	// unknown rooms are a no-op, not an error
	s.SetStatus("room-gone", types.StatusResolved)
	s.SetPriority("room-gone", types.PriorityLow)
	assert.Equal(t, 1, s.Len(), "expected no room created by status update")
}

func TestLeaseScenario(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateRoom()
	assert.NoError(t, err)

	s.AppendMessage(id, types.RoleAsker, "Need help with a lease", "")

	history := s.History(id)
	assert.Len(t, history, 1, "expected one message")
	assert.Equal(t, types.RoleAsker, history[0].Role, "expected asker role")
	assert.Equal(t, "Need help with a lease", history[0].Text, "expected message text")
	assert.Empty(t, history[0].ImageURL, "expected no attachment")

	assert.True(t, s.DeleteRoom(id), "expected deletion of existing room")
	assert.Empty(t, s.History(id), "expected empty history after deletion")
}
