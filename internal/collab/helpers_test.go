package collab

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testClient — соединение без транспорта: события читаются прямо из очереди
func testClient(identityID string) *Client {
	return &Client{
		ID:       uuid.New(),
		Identity: Identity{ID: identityID, DisplayName: "user " + identityID},
		send:     make(chan []byte, 64),
	}
}

func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()

	select {
	case frame, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		return ev
	default:
		t.Fatal("no event queued")
		return Event{}
	}
}

func assertNoEvents(t *testing.T, c *Client) {
	t.Helper()

	select {
	case frame := <-c.send:
		var ev Event
		_ = json.Unmarshal(frame, &ev)
		t.Fatalf("unexpected event queued: %s", ev.Type)
	default:
	}
}

func drain(clients ...*Client) {
	for _, c := range clients {
		for len(c.send) > 0 {
			<-c.send
		}
	}
}

func decodeData[T any](t *testing.T, ev Event) T {
	t.Helper()

	var payload T
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	return payload
}
