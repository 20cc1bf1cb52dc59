package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscribe(t *testing.T) {
	p := NewPresenceTracker(0)
	c := &Client{id: "c1"}

	p.Subscribe(c, "room-1")
	assert.Len(t, p.Participants("room-1"), 1, "expected one participant")

	roomId, ok := p.RoomFor(c)
	assert.True(t, ok, "expected client to have a room")
	assert.Equal(t, "room-1", roomId, "expected subscribed room")
}

func TestSubscribe_replacesPreviousRoom(t *testing.T) {
	p := NewPresenceTracker(0)
	c := &Client{id: "c1"}

	p.Subscribe(c, "room-1")
	p.Subscribe(c, "room-2")

	assert.Empty(t, p.Participants("room-1"), "expected client to leave previous room")
	assert.Len(t, p.Participants("room-2"), 1, "expected client in new room")

	roomId, _ := p.RoomFor(c)
	assert.Equal(t, "room-2", roomId, "expected current room to be the new one")
}

func TestUnsubscribeAll(t *testing.T) {
	p := NewPresenceTracker(0)
	c := &Client{id: "c1"}

	p.Subscribe(c, "room-1")
	p.SetDashboard(c)
	p.UnsubscribeAll(c)

	assert.Empty(t, p.Participants("room-1"), "expected no participants after unsubscribe")
	assert.False(t, p.IsDashboard(c), "expected dashboard flag to be dropped")

	_, ok := p.RoomFor(c)
	assert.False(t, ok, "expected no room after unsubscribe")
}

func TestDashboard(t *testing.T) {
	p := NewPresenceTracker(0)
	c := &Client{id: "c1"}

	assert.False(t, p.IsDashboard(c), "expected connection to not be a dashboard by default")
	p.SetDashboard(c)
	assert.True(t, p.IsDashboard(c), "expected dashboard flag to be set")
}

func TestTyping_markAndClear(t *testing.T) {
	p := NewPresenceTracker(time.Minute)

	p.MarkTyping("room-1", "alice")
	assert.Equal(t, []string{"alice"}, p.TypingUsersFor("room-1"), "expected alice typing")

	p.ClearTyping("room-1", "alice")
	assert.Empty(t, p.TypingUsersFor("room-1"), "expected typing cleared after stop")

	// clearing an absent marker is a no-op
	p.ClearTyping("room-1", "bob")
	assert.Empty(t, p.TypingUsersFor("room-1"))
}

func TestTyping_expires(t *testing.T) {
	p := NewPresenceTracker(20 * time.Millisecond)

	expired := make(chan string, 1)
	p.onTypingExpired = func(roomId, userName string) {
		expired <- roomId + "/" + userName
	}

	p.MarkTyping("room-1", "alice")
	assert.Equal(t, []string{"alice"}, p.TypingUsersFor("room-1"), "expected alice typing before timeout")

	select {
	case got := <-expired:
		assert.Equal(t, "room-1/alice", got, "expected expiry callback for the marker")
	case <-time.After(time.Second):
		t.Fatal("timeout: typing marker did not expire")
	}

	assert.Empty(t, p.TypingUsersFor("room-1"), "expected typing cleared after timeout")
}

func TestTyping_remarkResetsTimer(t *testing.T) {
	p := NewPresenceTracker(50 * time.Millisecond)

	p.MarkTyping("room-1", "alice")
	time.Sleep(30 * time.Millisecond)
	p.MarkTyping("room-1", "alice")
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, []string{"alice"}, p.TypingUsersFor("room-1"),
		"expected re-mark to reset the expiry window")
}

func TestClearRoom(t *testing.T) {
	p := NewPresenceTracker(time.Minute)
	c := &Client{id: "c1"}

	p.Subscribe(c, "room-1")
	p.MarkTyping("room-1", "alice")
	p.ClearRoom("room-1")

	assert.Empty(t, p.Participants("room-1"), "expected participants cleared with room")
	assert.Empty(t, p.TypingUsersFor("room-1"), "expected typing cleared with room")

	_, ok := p.RoomFor(c)
	assert.False(t, ok, "expected client subscription dropped with room")
}
