package history

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devTechs001/folio-collab/internal/collab"
)

type fakeSink struct {
	mu       sync.Mutex
	messages []*ChatMessage
	deltas   []*EditDelta
}

func (f *fakeSink) SaveMessage(msg *ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeSink) SaveDelta(delta *EditDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltas = append(f.deltas, delta)
	return nil
}

func (f *fakeSink) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages), len(f.deltas)
}

func TestRecorderPersistsAsync(t *testing.T) {
	sink := &fakeSink{}
	r := &Recorder{store: sink, records: make(chan record, 8)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	sender := collab.Identity{ID: "u1", DisplayName: "Alice"}
	r.RecordMessage(collab.Message{
		RoomID:    "port-1",
		Sender:    sender,
		Content:   "hello",
		Timestamp: time.Now(),
	})
	r.RecordLiveChange("port-1", "hero", sender, json.RawMessage(`{"v":1}`))

	require.Eventually(t, func() bool {
		msgs, deltas := sink.counts()
		return msgs == 1 && deltas == 1
	}, time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "hello", sink.messages[0].Content)
	assert.Equal(t, "u1", sink.messages[0].SenderID)
	assert.Equal(t, "hero", sink.deltas[0].RegionID)
	assert.JSONEq(t, `{"v":1}`, sink.deltas[0].Delta)
}

func TestRecorderDropsOnOverflow(t *testing.T) {
	sink := &fakeSink{}
	// Consumer не запущен — вторая запись упирается в полный буфер
	r := &Recorder{store: sink, records: make(chan record, 1)}

	sender := collab.Identity{ID: "u1"}
	r.RecordMessage(collab.Message{RoomID: "port-1", Sender: sender, Content: "first"})
	r.RecordMessage(collab.Message{RoomID: "port-1", Sender: sender, Content: "dropped"})

	assert.Len(t, r.records, 1, "overflow must drop, not block the relay")
}
