package collab

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EditFocus — рекомендательная (advisory) отметка "кто редактирует регион".
// Не мьютекс: второй редактор молча перезаписывает держателя.
type EditFocus struct {
	RegionID string
	Holder   uuid.UUID
	Identity Identity
	Since    time.Time
}

// ReleasedFocus — регион, освобожденный при отключении соединения
type ReleasedFocus struct {
	RoomID   string
	RegionID string
}

// EditSessionCoordinator хранит advisory-отметки редактирования по комнатам.
// Не более одного держателя на регион; конфликты не отклоняются.
type EditSessionCoordinator struct {
	mu sync.Mutex

	// roomID -> regionID -> focus
	focus map[string]map[string]EditFocus
}

func NewEditSessionCoordinator() *EditSessionCoordinator {
	return &EditSessionCoordinator{
		focus: make(map[string]map[string]EditFocus),
	}
}

// Start ставит отметку редактирования. Существующий держатель
// перезаписывается без ошибки.
func (e *EditSessionCoordinator) Start(c *Client, roomID, regionID string) EditFocus {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.focus[roomID]
	if !ok {
		room = make(map[string]EditFocus)
		e.focus[roomID] = room
	}

	f := EditFocus{
		RegionID: regionID,
		Holder:   c.ID,
		Identity: c.Identity,
		Since:    time.Now(),
	}
	room[regionID] = f
	return f
}

// Stop снимает отметку, если ее все еще держит это соединение.
// true — отметка снята и об этом стоит оповестить комнату.
func (e *EditSessionCoordinator) Stop(c *Client, roomID, regionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.focus[roomID]
	if !ok {
		return false
	}
	f, ok := room[regionID]
	if !ok || f.Holder != c.ID {
		return false
	}

	delete(room, regionID)
	if len(room) == 0 {
		delete(e.focus, roomID)
	}
	return true
}

// Holder возвращает текущего держателя региона
func (e *EditSessionCoordinator) Holder(roomID, regionID string) (EditFocus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.focus[roomID]
	if !ok {
		return EditFocus{}, false
	}
	f, ok := room[regionID]
	return f, ok
}

// ReleaseRoom снимает отметки соединения в одной комнате (вызывается при
// выходе из комнаты) и возвращает освобожденные регионы.
func (e *EditSessionCoordinator) ReleaseRoom(connID uuid.UUID, roomID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.focus[roomID]
	if !ok {
		return nil
	}

	var released []string
	for regionID, f := range room {
		if f.Holder == connID {
			delete(room, regionID)
			released = append(released, regionID)
		}
	}
	if len(room) == 0 {
		delete(e.focus, roomID)
	}
	return released
}

// ReleaseAll снимает все отметки соединения (вызывается при отключении)
// и возвращает их для рассылки editing-state(null).
func (e *EditSessionCoordinator) ReleaseAll(connID uuid.UUID) []ReleasedFocus {
	e.mu.Lock()
	defer e.mu.Unlock()

	var released []ReleasedFocus
	for roomID, room := range e.focus {
		for regionID, f := range room {
			if f.Holder == connID {
				delete(room, regionID)
				released = append(released, ReleasedFocus{RoomID: roomID, RegionID: regionID})
			}
		}
		if len(room) == 0 {
			delete(e.focus, roomID)
		}
	}
	return released
}
