package collab

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// RoomDeparture — комната, из которой соединение вышло при снятии с учета
type RoomDeparture struct {
	RoomID string

	// Последнее соединение пользователя в комнате — комнате стоит
	// сообщить user-left
	LastInRoom bool
}

// RoomRegistry владеет всем членством: какие соединения живы,
// какие принадлежат какому пользователю и какие состоят в каких комнатах.
// Каждая операция атомарна под одним мьютексом — никто снаружи
// не трогает карты напрямую. Счетчики присутствия мутируются только
// здесь, под тем же мьютексом: членство и присутствие не могут
// разойтись между собой в гонке join/unregister.
type RoomRegistry struct {
	mu sync.RWMutex

	// Все живые соединения
	clients map[uuid.UUID]*Client

	// Соединения по пользователю (один пользователь может иметь несколько соединений)
	byIdentity map[string]map[uuid.UUID]*Client

	// Соединения в комнатах
	rooms map[string]map[uuid.UUID]*Client

	// Комнаты по соединению — для быстрого leaveAll при отключении
	byConn map[uuid.UUID]map[string]struct{}

	// Счетчики присутствия; все мутации — под mu
	presence *PresenceTracker
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		clients:    make(map[uuid.UUID]*Client),
		byIdentity: make(map[string]map[uuid.UUID]*Client),
		rooms:      make(map[string]map[uuid.UUID]*Client),
		byConn:     make(map[uuid.UUID]map[string]struct{}),
		presence:   NewPresenceTracker(),
	}
}

// Register добавляет соединение в реестр.
// true — это первое соединение пользователя (он стал онлайн).
func (r *RoomRegistry) Register(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c.ID] = c

	if _, ok := r.byIdentity[c.Identity.ID]; !ok {
		r.byIdentity[c.Identity.ID] = make(map[uuid.UUID]*Client)
	}
	r.byIdentity[c.Identity.ID][c.ID] = c

	r.byConn[c.ID] = make(map[string]struct{})

	return r.presence.ConnectionOpened(c.Identity.ID)
}

// Unregister удаляет соединение отовсюду: из всех комнат и из реестра,
// со снятием счетчиков присутствия в той же критической секции.
// Возвращает покинутые комнаты и признак "пользователь стал оффлайн".
// Повторный вызов — no-op (ok=false).
func (r *RoomRegistry) Unregister(c *Client) (departures []RoomDeparture, lastOnline, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; !exists {
		return nil, false, false
	}

	for roomID := range r.byConn[c.ID] {
		r.removeFromRoomUnsafe(c, roomID)
		departures = append(departures, RoomDeparture{
			RoomID:     roomID,
			LastInRoom: r.presence.LeftRoom(c.Identity.ID, roomID),
		})
	}

	if identityClients, exists := r.byIdentity[c.Identity.ID]; exists {
		delete(identityClients, c.ID)
		if len(identityClients) == 0 {
			delete(r.byIdentity, c.Identity.ID)
		}
	}

	delete(r.byConn, c.ID)
	delete(r.clients, c.ID)

	return departures, r.presence.ConnectionClosed(c.Identity.ID), true
}

// Join добавляет соединение в комнату. Комната создается лениво.
// Повторный join идемпотентен: состав не меняется, возвращается
// текущий срез участников. firstInRoom — пользователь появился в комнате
// впервые (и об этом стоит оповестить остальных). ok=false — соединение
// уже снято с учета (join проиграл гонку с отключением), ни членство,
// ни присутствие не создаются.
func (r *RoomRegistry) Join(c *Client, roomID string) (members []*Client, already, firstInRoom, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, live := r.clients[c.ID]; !live {
		return nil, false, false, false
	}

	room, exists := r.rooms[roomID]
	if !exists {
		room = make(map[uuid.UUID]*Client)
		r.rooms[roomID] = room
	}

	if _, already = room[c.ID]; !already {
		room[c.ID] = c
		r.byConn[c.ID][roomID] = struct{}{}
		firstInRoom = r.presence.JoinedRoom(c.Identity.ID, roomID)
	}

	return lo.Values(room), already, firstInRoom, true
}

// Leave удаляет соединение из комнаты. Выход из комнаты, в которой
// соединение не состоит — no-op (left=false). lastInRoom — в комнате
// не осталось соединений этого пользователя.
func (r *RoomRegistry) Leave(c *Client, roomID string) (left, lastInRoom bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeFromRoomUnsafe(c, roomID) {
		return false, false
	}
	return true, r.presence.LeftRoom(c.Identity.ID, roomID)
}

func (r *RoomRegistry) removeFromRoomUnsafe(c *Client, roomID string) bool {
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := room[c.ID]; !ok {
		return false
	}

	delete(room, c.ID)
	delete(r.byConn[c.ID], roomID)

	// Пустая комната удаляется сразу
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}

	return true
}

// Members возвращает срез участников комнаты.
// ok=false — комнаты нет (в том числе после ухода последнего участника).
func (r *RoomRegistry) Members(roomID string) ([]*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	return lo.Values(room), true
}

// InRoom проверяет членство соединения в комнате
func (r *RoomRegistry) InRoom(connID uuid.UUID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = room[connID]
	return ok
}

// Client возвращает соединение по его ID
func (r *RoomRegistry) Client(connID uuid.UUID) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[connID]
	return c, ok
}

// IdentityClients возвращает все соединения пользователя
func (r *RoomRegistry) IdentityClients(identityID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.byIdentity[identityID])
}

// AllClients возвращает срез всех живых соединений
func (r *RoomRegistry) AllClients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.clients)
}

// IsOnline проверяет, есть ли у пользователя живые соединения
func (r *RoomRegistry) IsOnline(identityID string) bool {
	return r.presence.IsOnline(identityID)
}

// OnlineIDs возвращает ID всех пользователей онлайн
func (r *RoomRegistry) OnlineIDs() []string {
	return r.presence.OnlineIDs()
}
