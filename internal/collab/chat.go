package collab

import (
	"encoding/json"
	"time"
)

// Recorder — необязательный подписчик на события, достойные долговременного
// хранения. Живая рассылка никогда не зависит от его успеха.
type Recorder interface {
	RecordMessage(msg Message)
	RecordLiveChange(roomID, regionID string, sender Identity, delta json.RawMessage)
}

// ChatRelay ретранслирует сообщения участникам комнаты.
// История не хранится — это забота внешнего подписчика.
type ChatRelay struct {
	dispatcher *Dispatcher
	recorder   Recorder // может быть nil
}

func NewChatRelay(dispatcher *Dispatcher, recorder Recorder) *ChatRelay {
	return &ChatRelay{dispatcher: dispatcher, recorder: recorder}
}

// SendMessage штампует отправителя и серверное время и рассылает сообщение
// всей комнате, включая эхо самому отправителю — его UI подтверждает
// доставку, не полагаясь на локальное применение.
func (r *ChatRelay) SendMessage(c *Client, roomID, content string) (Message, error) {
	if content == "" {
		return Message{}, ErrEmptyContent
	}

	msg := Message{
		RoomID:    roomID,
		Sender:    c.Identity,
		Content:   content,
		Timestamp: time.Now(),
	}

	r.dispatcher.Deliver(TypeNewMessage, roomID, msg, Scope{RoomID: roomID})

	if r.recorder != nil {
		r.recorder.RecordMessage(msg)
	}

	return msg, nil
}
