package collab

import (
	"context"
	"encoding/json"
	"log"

	"github.com/samber/lo"
)

// Hub — композиционный корень ядра синхронизации. Владеет реестром комнат
// (он же ведет присутствие), диспетчером, координатором редактирования
// и чатом; создается при старте сервиса и останавливается при shutdown.
// Никаких глобальных карт — все зависимости передаются явно.
type Hub struct {
	registry   *RoomRegistry
	dispatcher *Dispatcher
	edits      *EditSessionCoordinator
	chat       *ChatRelay
	recorder   Recorder // может быть nil

	// Канал отмены регистрации: cleanup сериализуется в цикле Run
	unregister chan *Client

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub. recorder == nil — история не пишется.
func NewHub(recorder Recorder) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		registry:   NewRoomRegistry(),
		edits:      NewEditSessionCoordinator(),
		recorder:   recorder,
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
	h.dispatcher = NewDispatcher(h.registry, h.scheduleCleanup)
	h.chat = NewChatRelay(h.dispatcher, recorder)
	return h
}

// Run запускает цикл cleanup'а соединений
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	for _, client := range h.registry.AllClients() {
		if _, _, ok := h.registry.Unregister(client); ok {
			client.closeSend()
		}
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

// Register регистрирует нового клиента. Синхронно: к моменту возврата
// соединение учтено, и его насосы можно запускать.
func (h *Hub) Register(client *Client) {
	h.registerClient(client)
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// scheduleCleanup выводит из строя получателя, которому не удалось
// доставить событие. Асинхронно: текущий fan-out не должен останавливаться.
func (h *Hub) scheduleCleanup(client *Client) {
	go h.Unregister(client)
}

func (h *Hub) registerClient(client *Client) {
	first := h.registry.Register(client)

	log.Printf("Client registered: %s (user: %s)", client.ID, client.Identity.ID)

	if err := client.SendEvent(TypeConnected, "", client.Identity); err != nil {
		log.Printf("Failed to send connected event to %s: %v", client.ID, err)
	}

	if first {
		h.dispatcher.Deliver(TypeUserOnline, "", client.Identity, Scope{All: true})
	}
}

// unregisterClient выполняет терминальный переход соединения:
// выход из всех комнат, снятие отметок редактирования, обновление
// присутствия — безусловно, и для явного закрытия, и для обрыва линка.
func (h *Hub) unregisterClient(client *Client) {
	departures, lastOnline, ok := h.registry.Unregister(client)
	if !ok {
		// Уже удален (гонка обрыва линка и неудачной доставки)
		return
	}

	for _, released := range h.edits.ReleaseAll(client.ID) {
		h.broadcastEditingState(released.RoomID, released.RegionID, nil)
	}

	for _, dep := range departures {
		if dep.LastInRoom {
			h.dispatcher.Deliver(TypeUserLeft, dep.RoomID, client.Identity, Scope{RoomID: dep.RoomID})
		}
	}

	if lastOnline {
		h.dispatcher.Deliver(TypeUserOffline, "", client.Identity, Scope{All: true})
	}

	client.closeSend()

	log.Printf("Client unregistered: %s (user: %s)", client.ID, client.Identity.ID)
}

// JoinRoom добавляет клиента в комнату. Сам вошедший получает полный срез
// участников; остальные — user-joined, и только если это первое
// соединение пользователя в комнате.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	members, _, first, ok := h.registry.Join(client, roomID)
	if !ok {
		return
	}

	if first {
		h.dispatcher.Deliver(TypeUserJoined, roomID, client.Identity,
			Scope{RoomID: roomID, ExcludeConn: client.ID})
	}

	payload := RoomJoinedPayload{
		RoomID:  roomID,
		Members: memberIdentities(members),
	}
	if err := client.SendEvent(TypeRoomJoined, roomID, payload); err != nil {
		log.Printf("Failed to send room snapshot to %s: %v", client.ID, err)
	}
}

// LeaveRoom удаляет клиента из комнаты
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	for _, regionID := range h.edits.ReleaseRoom(client.ID, roomID) {
		h.broadcastEditingState(roomID, regionID, nil)
	}

	left, last := h.registry.Leave(client, roomID)
	if !left {
		return
	}

	if last {
		h.dispatcher.Deliver(TypeUserLeft, roomID, client.Identity, Scope{RoomID: roomID})
	}
}

// StartEditing ставит advisory-отметку на регион и оповещает комнату
func (h *Hub) StartEditing(client *Client, roomID, regionID string) error {
	if !h.registry.InRoom(client.ID, roomID) {
		return ErrNotInRoom
	}

	f := h.edits.Start(client, roomID, regionID)
	h.dispatcher.Deliver(TypeEditingState, roomID,
		EditingStatePayload{RegionID: regionID, Holder: &f.Identity},
		Scope{RoomID: roomID, ExcludeConn: client.ID})
	return nil
}

// StopEditing снимает отметку, если ее еще держит этот клиент
func (h *Hub) StopEditing(client *Client, roomID, regionID string) error {
	if !h.registry.InRoom(client.ID, roomID) {
		return ErrNotInRoom
	}

	if h.edits.Stop(client, roomID, regionID) {
		h.dispatcher.Deliver(TypeEditingState, roomID,
			EditingStatePayload{RegionID: regionID, Holder: nil},
			Scope{RoomID: roomID, ExcludeConn: client.ID})
	}
	return nil
}

// LiveChange ретранслирует дельту содержимого как есть, без интерпретации
func (h *Hub) LiveChange(client *Client, roomID, regionID string, delta json.RawMessage) error {
	if !h.registry.InRoom(client.ID, roomID) {
		return ErrNotInRoom
	}

	h.dispatcher.Deliver(TypeLiveUpdate, roomID,
		LiveUpdatePayload{RegionID: regionID, Delta: delta, Sender: client.Identity},
		Scope{RoomID: roomID, ExcludeConn: client.ID})

	if h.recorder != nil {
		h.recorder.RecordLiveChange(roomID, regionID, client.Identity, delta)
	}
	return nil
}

// CursorMove ретранслирует позицию курсора без троттлинга —
// rate-limiting, если нужен, политика вызывающей стороны
func (h *Hub) CursorMove(client *Client, roomID string, position json.RawMessage) error {
	if !h.registry.InRoom(client.ID, roomID) {
		return ErrNotInRoom
	}

	h.dispatcher.Deliver(TypeCursorUpdate, roomID,
		CursorUpdatePayload{Identity: client.Identity, Position: position},
		Scope{RoomID: roomID, ExcludeConn: client.ID})
	return nil
}

// SendMessage ретранслирует чат-сообщение всей комнате, включая отправителя
func (h *Hub) SendMessage(client *Client, roomID, content string) (Message, error) {
	if !h.registry.InRoom(client.ID, roomID) {
		return Message{}, ErrNotInRoom
	}
	return h.chat.SendMessage(client, roomID, content)
}

// Typing оповещает комнату, что пользователь печатает
func (h *Hub) Typing(client *Client, roomID string) error {
	if !h.registry.InRoom(client.ID, roomID) {
		return ErrNotInRoom
	}

	h.dispatcher.Deliver(TypeUserTyping, roomID,
		TypingPayload{Identity: client.Identity},
		Scope{RoomID: roomID, ExcludeConn: client.ID})
	return nil
}

func (h *Hub) broadcastEditingState(roomID, regionID string, holder *Identity) {
	h.dispatcher.Deliver(TypeEditingState, roomID,
		EditingStatePayload{RegionID: regionID, Holder: holder},
		Scope{RoomID: roomID})
}

// RoomMemberIdentities возвращает пользователей комнаты.
// ok=false — комнаты не существует.
func (h *Hub) RoomMemberIdentities(roomID string) ([]Identity, bool) {
	members, ok := h.registry.Members(roomID)
	if !ok {
		return nil, false
	}
	return memberIdentities(members), true
}

// OnlineIdentities возвращает всех пользователей онлайн
func (h *Hub) OnlineIdentities() []Identity {
	identities := make([]Identity, 0)
	for _, id := range h.registry.OnlineIDs() {
		if clients := h.registry.IdentityClients(id); len(clients) > 0 {
			identities = append(identities, clients[0].Identity)
		}
	}
	return identities
}

// memberIdentities сводит соединения к уникальным пользователям
func memberIdentities(members []*Client) []Identity {
	identities := lo.Map(members, func(c *Client, _ int) Identity {
		return c.Identity
	})
	return lo.UniqBy(identities, func(i Identity) string {
		return i.ID
	})
}
