package collab

import (
	"encoding/json"
	"time"
)

// EventType определяет типы событий протокола
type EventType string

const (
	// Входящие события (клиент -> ядро)
	TypeJoinRoom     EventType = "join-room"
	TypeLeaveRoom    EventType = "leave-room"
	TypeStartEditing EventType = "start-editing"
	TypeStopEditing  EventType = "stop-editing"
	TypeLiveChange   EventType = "live-change"
	TypeCursorMove   EventType = "cursor-move"
	TypeSendMessage  EventType = "send-message"
	TypeTyping       EventType = "typing"

	// Исходящие события (ядро -> клиент)
	TypeConnected    EventType = "connected"
	TypeAuthError    EventType = "auth-error" // отказ отдается как HTTP 401 до апгрейда, кадр зарезервирован
	TypeRoomJoined   EventType = "room-joined"
	TypeUserJoined   EventType = "user-joined"
	TypeUserLeft     EventType = "user-left"
	TypeUserOnline   EventType = "user-online"
	TypeUserOffline  EventType = "user-offline"
	TypeEditingState EventType = "editing-state"
	TypeLiveUpdate   EventType = "live-update"
	TypeCursorUpdate EventType = "cursor-update"
	TypeNewMessage   EventType = "new-message"
	TypeUserTyping   EventType = "user-typing"
	TypeError        EventType = "error"
)

// Event — общий конверт для всех событий
type Event struct {
	Type      EventType       `json:"type"`
	RoomID    string          `json:"room_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Identity — данные пользователя, полученные один раз при handshake.
// Неизменяема на протяжении жизни соединения.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Message — чат-сообщение. Живет только как событие в полете,
// ядро его не сохраняет.
type Message struct {
	RoomID    string    `json:"room_id"`
	Sender    Identity  `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Payload исходящих событий

type RoomJoinedPayload struct {
	RoomID  string     `json:"room_id"`
	Members []Identity `json:"members"`
}

type EditingStatePayload struct {
	RegionID string    `json:"region_id"`
	Holder   *Identity `json:"holder"` // nil = регион свободен
}

type LiveUpdatePayload struct {
	RegionID string          `json:"region_id"`
	Delta    json.RawMessage `json:"delta"`
	Sender   Identity        `json:"sender"`
}

type CursorUpdatePayload struct {
	Identity Identity        `json:"identity"`
	Position json.RawMessage `json:"position"`
}

type TypingPayload struct {
	Identity Identity `json:"identity"`
}
