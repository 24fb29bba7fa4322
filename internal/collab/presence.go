package collab

import (
	"sync"

	"github.com/samber/lo"
)

// PresenceTracker считает соединения пользователя по комнатам и глобально.
// Уведомления user-joined/user-left испускаются только на первом и последнем
// соединении пользователя — второй девайс не анонсируется повторно.
// Сам трекер ничего не рассылает, он лишь отвечает "это было первое/последнее?".
// Мутируется только реестром, в одной критической секции с членством;
// собственный мьютекс прикрывает читающие запросы.
type PresenceTracker struct {
	mu sync.Mutex

	// Открытые соединения по пользователю (весь сайт)
	global map[string]int

	// Соединения пользователя в конкретной комнате
	rooms map[string]map[string]int
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		global: make(map[string]int),
		rooms:  make(map[string]map[string]int),
	}
}

// ConnectionOpened учитывает новое соединение.
// true — это первое соединение пользователя (он стал онлайн).
func (p *PresenceTracker) ConnectionOpened(identityID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.global[identityID]++
	return p.global[identityID] == 1
}

// ConnectionClosed учитывает закрытие соединения.
// true — это было последнее соединение пользователя (он стал оффлайн).
func (p *PresenceTracker) ConnectionClosed(identityID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.global[identityID]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(p.global, identityID)
		return true
	}
	p.global[identityID] = n - 1
	return false
}

// JoinedRoom учитывает вход соединения в комнату.
// true — пользователь появился в комнате впервые.
func (p *PresenceTracker) JoinedRoom(identityID, roomID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.rooms[roomID]
	if !ok {
		room = make(map[string]int)
		p.rooms[roomID] = room
	}
	room[identityID]++
	return room[identityID] == 1
}

// LeftRoom учитывает уход соединения из комнаты.
// true — в комнате не осталось соединений этого пользователя.
func (p *PresenceTracker) LeftRoom(identityID, roomID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.rooms[roomID]
	if !ok {
		return false
	}
	n, ok := room[identityID]
	if !ok {
		return false
	}

	if n <= 1 {
		delete(room, identityID)
		if len(room) == 0 {
			delete(p.rooms, roomID)
		}
		return true
	}
	room[identityID] = n - 1
	return false
}

// IsOnline проверяет, есть ли у пользователя живые соединения
func (p *PresenceTracker) IsOnline(identityID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.global[identityID] > 0
}

// OnlineIDs возвращает ID всех пользователей онлайн
func (p *PresenceTracker) OnlineIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return lo.Keys(p.global)
}
