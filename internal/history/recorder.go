package history

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/devTechs001/folio-collab/internal/collab"
)

// sink — то, куда recorder пишет записи. *Store его реализует;
// в тестах подменяется фейком.
type sink interface {
	SaveMessage(msg *ChatMessage) error
	SaveDelta(delta *EditDelta) error
}

type record struct {
	message *ChatMessage
	delta   *EditDelta
}

// Recorder — асинхронный подписчик истории. Кормится через буферизованный
// канал: переполнение и ошибки БД логируются и отбрасываются, живая
// ретрансляция от него не зависит.
type Recorder struct {
	store   sink
	records chan record
}

func NewRecorder(store *Store, buffer int) *Recorder {
	return &Recorder{
		store:   store,
		records: make(chan record, buffer),
	}
}

// Run пишет записи до отмены контекста
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case rec := <-r.records:
			r.persist(rec)
		}
	}
}

func (r *Recorder) persist(rec record) {
	switch {
	case rec.message != nil:
		if err := r.store.SaveMessage(rec.message); err != nil {
			log.Printf("Failed to save chat message: %v", err)
		}
	case rec.delta != nil:
		if err := r.store.SaveDelta(rec.delta); err != nil {
			log.Printf("Failed to save edit delta: %v", err)
		}
	}
}

// RecordMessage ставит сообщение в очередь записи, не блокируя отправителя
func (r *Recorder) RecordMessage(msg collab.Message) {
	r.enqueue(record{message: &ChatMessage{
		RoomID:     msg.RoomID,
		SenderID:   msg.Sender.ID,
		SenderName: msg.Sender.DisplayName,
		Content:    msg.Content,
		CreatedAt:  msg.Timestamp,
	}})
}

// RecordLiveChange ставит дельту в очередь записи
func (r *Recorder) RecordLiveChange(roomID, regionID string, sender collab.Identity, delta json.RawMessage) {
	r.enqueue(record{delta: &EditDelta{
		RoomID:    roomID,
		RegionID:  regionID,
		SenderID:  sender.ID,
		Delta:     string(delta),
		CreatedAt: time.Now(),
	}})
}

func (r *Recorder) enqueue(rec record) {
	select {
	case r.records <- rec:
	default:
		log.Printf("History queue full, record dropped")
	}
}
