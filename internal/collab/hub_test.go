package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hubFixture(t *testing.T, identityIDs ...string) (*Hub, []*Client) {
	t.Helper()

	h := NewHub(nil)
	clients := make([]*Client, len(identityIDs))
	for i, id := range identityIDs {
		clients[i] = testClient(id)
		clients[i].hub = h
		h.registerClient(clients[i])
	}
	drain(clients...)
	return h, clients
}

func TestRegisterSendsConnectedAndOnline(t *testing.T) {
	h := NewHub(nil)
	a := testClient("a")

	h.registerClient(a)

	ev := nextEvent(t, a)
	assert.Equal(t, TypeConnected, ev.Type)
	assert.Equal(t, a.Identity, decodeData[Identity](t, ev))

	ev = nextEvent(t, a)
	assert.Equal(t, TypeUserOnline, ev.Type)

	// Второй девайс не анонсируется
	a2 := testClient("a")
	h.registerClient(a2)
	assert.Equal(t, TypeConnected, nextEvent(t, a2).Type)
	assertNoEvents(t, a2)
}

func TestJoinSnapshotAndAnnouncements(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]

	h.JoinRoom(a, "port-5")
	ev := nextEvent(t, a)
	assert.Equal(t, TypeRoomJoined, ev.Type)
	snapshot := decodeData[RoomJoinedPayload](t, ev)
	assert.Equal(t, []Identity{a.Identity}, snapshot.Members)

	h.JoinRoom(b, "port-5")

	// Существующие участники получают user-joined
	ev = nextEvent(t, a)
	assert.Equal(t, TypeUserJoined, ev.Type)
	assert.Equal(t, b.Identity, decodeData[Identity](t, ev))

	// Сам вошедший — полный срез, а не дельту
	ev = nextEvent(t, b)
	assert.Equal(t, TypeRoomJoined, ev.Type)
	snapshot = decodeData[RoomJoinedPayload](t, ev)
	assert.ElementsMatch(t, []Identity{a.Identity, b.Identity}, snapshot.Members)

	// Повторный join: срез вошедшему, тишина остальным
	h.JoinRoom(a, "port-5")
	assert.Equal(t, TypeRoomJoined, nextEvent(t, a).Type)
	assertNoEvents(t, b)
}

func TestSecondDeviceJoinIsNotAnnounced(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]
	h.JoinRoom(a, "port-5")
	h.JoinRoom(b, "port-5")
	drain(a, b)

	b2 := testClient("b")
	h.registerClient(b2)
	drain(a, b, b2)

	h.JoinRoom(b2, "port-5")
	assert.Equal(t, TypeRoomJoined, nextEvent(t, b2).Type)
	assertNoEvents(t, a)
	assertNoEvents(t, b)
}

func TestEditingScenario(t *testing.T) {
	h, clients := hubFixture(t, "a", "b", "c")
	a, b, c := clients[0], clients[1], clients[2]
	for _, cl := range clients {
		h.JoinRoom(cl, "port-42")
	}
	drain(a, b, c)

	require.NoError(t, h.StartEditing(b, "port-42", "hero"))

	for _, observer := range []*Client{a, c} {
		ev := nextEvent(t, observer)
		assert.Equal(t, TypeEditingState, ev.Type)
		payload := decodeData[EditingStatePayload](t, ev)
		assert.Equal(t, "hero", payload.RegionID)
		require.NotNil(t, payload.Holder)
		assert.Equal(t, b.Identity, *payload.Holder)
	}
	assertNoEvents(t, b)

	require.NoError(t, h.StopEditing(b, "port-42", "hero"))

	for _, observer := range []*Client{a, c} {
		ev := nextEvent(t, observer)
		assert.Equal(t, TypeEditingState, ev.Type)
		payload := decodeData[EditingStatePayload](t, ev)
		assert.Equal(t, "hero", payload.RegionID)
		assert.Nil(t, payload.Holder)
	}
	assertNoEvents(t, b)
}

func TestEditingRequiresMembership(t *testing.T) {
	h, clients := hubFixture(t, "a")
	a := clients[0]

	assert.ErrorIs(t, h.StartEditing(a, "port-42", "hero"), ErrNotInRoom)
	assert.ErrorIs(t, h.StopEditing(a, "port-42", "hero"), ErrNotInRoom)
	assert.ErrorIs(t, h.Typing(a, "port-42"), ErrNotInRoom)
}

func TestAdvisoryOverwriteBroadcast(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]
	h.JoinRoom(a, "port-1")
	h.JoinRoom(b, "port-1")
	drain(a, b)

	require.NoError(t, h.StartEditing(a, "port-1", "hero"))
	require.NoError(t, h.StartEditing(b, "port-1", "hero"))

	// B молча перезаписал держателя; A видит нового держателя
	drain(b)
	ev := nextEvent(t, a)
	payload := decodeData[EditingStatePayload](t, ev)
	require.NotNil(t, payload.Holder)
	assert.Equal(t, b.Identity, *payload.Holder)
}

func TestChatEchoIncludesSender(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]
	h.JoinRoom(a, "port-1")
	h.JoinRoom(b, "port-1")
	drain(a, b)

	sent, err := h.SendMessage(a, "port-1", "hello")
	require.NoError(t, err)
	assert.False(t, sent.Timestamp.IsZero())

	for _, recipient := range []*Client{a, b} {
		ev := nextEvent(t, recipient)
		assert.Equal(t, TypeNewMessage, ev.Type)
		msg := decodeData[Message](t, ev)
		assert.Equal(t, "hello", msg.Content)
		assert.Equal(t, a.Identity, msg.Sender)
		assert.Equal(t, "port-1", msg.RoomID)
	}

	_, err = h.SendMessage(a, "port-1", "")
	assert.ErrorIs(t, err, ErrEmptyContent)

	outsider := testClient("x")
	h.registerClient(outsider)
	_, err = h.SendMessage(outsider, "port-1", "hi")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestLiveChangeRelaysVerbatim(t *testing.T) {
	h, clients := hubFixture(t, "a", "b", "c")
	a, b, c := clients[0], clients[1], clients[2]
	for _, cl := range clients {
		h.JoinRoom(cl, "port-1")
	}
	drain(a, b, c)

	delta := json.RawMessage(`{"op":"replace","path":"/title","value":"new"}`)
	require.NoError(t, h.LiveChange(a, "port-1", "hero", delta))

	for _, observer := range []*Client{b, c} {
		ev := nextEvent(t, observer)
		assert.Equal(t, TypeLiveUpdate, ev.Type)
		payload := decodeData[LiveUpdatePayload](t, ev)
		assert.Equal(t, "hero", payload.RegionID)
		assert.JSONEq(t, string(delta), string(payload.Delta))
		assert.Equal(t, a.Identity, payload.Sender)
	}
	assertNoEvents(t, a)
}

func TestCursorAndTypingRelay(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]
	h.JoinRoom(a, "port-1")
	h.JoinRoom(b, "port-1")
	drain(a, b)

	position := json.RawMessage(`{"region":"hero","offset":12}`)
	require.NoError(t, h.CursorMove(a, "port-1", position))

	ev := nextEvent(t, b)
	assert.Equal(t, TypeCursorUpdate, ev.Type)
	payload := decodeData[CursorUpdatePayload](t, ev)
	assert.Equal(t, a.Identity, payload.Identity)
	assert.JSONEq(t, string(position), string(payload.Position))
	assertNoEvents(t, a)

	require.NoError(t, h.Typing(a, "port-1"))
	ev = nextEvent(t, b)
	assert.Equal(t, TypeUserTyping, ev.Type)
	assertNoEvents(t, a)
}

func TestAbruptDisconnect(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]
	h.JoinRoom(a, "port-7")
	h.JoinRoom(b, "port-7")
	drain(a, b)

	// Обрыв линка без leave-room
	h.unregisterClient(a)

	ev := nextEvent(t, b)
	assert.Equal(t, TypeUserLeft, ev.Type)
	assert.Equal(t, "port-7", ev.RoomID)
	assert.Equal(t, a.Identity, decodeData[Identity](t, ev))

	ev = nextEvent(t, b)
	assert.Equal(t, TypeUserOffline, ev.Type)

	assertNoEvents(t, b)

	members, ok := h.RoomMemberIdentities("port-7")
	require.True(t, ok)
	assert.Equal(t, []Identity{b.Identity}, members)
}

func TestDisconnectFromMultipleRooms(t *testing.T) {
	h, clients := hubFixture(t, "a", "b", "c")
	a, b, c := clients[0], clients[1], clients[2]
	h.JoinRoom(a, "r1")
	h.JoinRoom(a, "r2")
	h.JoinRoom(b, "r1")
	h.JoinRoom(c, "r2")
	drain(a, b, c)

	h.unregisterClient(a)

	// Ровно один user-left в каждой комнате
	ev := nextEvent(t, b)
	assert.Equal(t, TypeUserLeft, ev.Type)
	assert.Equal(t, "r1", ev.RoomID)
	ev = nextEvent(t, c)
	assert.Equal(t, TypeUserLeft, ev.Type)
	assert.Equal(t, "r2", ev.RoomID)

	assert.Equal(t, TypeUserOffline, nextEvent(t, b).Type)
	assert.Equal(t, TypeUserOffline, nextEvent(t, c).Type)
	assertNoEvents(t, b)
	assertNoEvents(t, c)
}

func TestMultiDeviceDisconnectSuppression(t *testing.T) {
	h, clients := hubFixture(t, "u1", "u2")
	phone, observer := clients[0], clients[1]
	laptop := testClient("u1")
	h.registerClient(laptop)
	drain(phone, observer, laptop)

	h.JoinRoom(phone, "port-3")
	h.JoinRoom(laptop, "port-3")
	h.JoinRoom(observer, "port-3")
	drain(phone, observer, laptop)

	// Пользователь еще присутствует со второго девайса — тишина
	h.unregisterClient(phone)
	assertNoEvents(t, observer)

	h.unregisterClient(laptop)
	assert.Equal(t, TypeUserLeft, nextEvent(t, observer).Type)
	assert.Equal(t, TypeUserOffline, nextEvent(t, observer).Type)
	assertNoEvents(t, observer)
}

func TestDisconnectReleasesEditFocus(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]
	h.JoinRoom(a, "port-1")
	h.JoinRoom(b, "port-1")
	drain(a, b)

	require.NoError(t, h.StartEditing(a, "port-1", "hero"))
	drain(b)

	h.unregisterClient(a)

	ev := nextEvent(t, b)
	assert.Equal(t, TypeEditingState, ev.Type)
	payload := decodeData[EditingStatePayload](t, ev)
	assert.Equal(t, "hero", payload.RegionID)
	assert.Nil(t, payload.Holder)

	assert.Equal(t, TypeUserLeft, nextEvent(t, b).Type)
	assert.Equal(t, TypeUserOffline, nextEvent(t, b).Type)
}

func TestLeaveRoomReleasesFocus(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]
	h.JoinRoom(a, "port-1")
	h.JoinRoom(b, "port-1")
	drain(a, b)

	require.NoError(t, h.StartEditing(a, "port-1", "hero"))
	drain(b)

	h.LeaveRoom(a, "port-1")

	ev := nextEvent(t, b)
	assert.Equal(t, TypeEditingState, ev.Type)
	assert.Nil(t, decodeData[EditingStatePayload](t, ev).Holder)
	assert.Equal(t, TypeUserLeft, nextEvent(t, b).Type)
	assertNoEvents(t, b)
}

func TestOnlineIdentities(t *testing.T) {
	h, clients := hubFixture(t, "a", "b")
	a, b := clients[0], clients[1]

	assert.ElementsMatch(t, []Identity{a.Identity, b.Identity}, h.OnlineIdentities())

	h.unregisterClient(a)
	assert.Equal(t, []Identity{b.Identity}, h.OnlineIdentities())

	_, ok := h.RoomMemberIdentities("nope")
	assert.False(t, ok)
}
