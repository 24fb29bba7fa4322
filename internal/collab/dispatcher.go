package collab

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

// Scope определяет получателей доставки. Исключение отправителя —
// явный параметр, а не сахар транспорта: область fan-out должна быть
// чистой функцией от входа.
type Scope struct {
	// Все участники комнаты; ExcludeConn (uuid.Nil = никто) вычитается
	RoomID      string
	ExcludeConn uuid.UUID

	// Одно конкретное соединение
	ConnID uuid.UUID

	// Все соединения одного пользователя
	IdentityID string

	// Все живые соединения
	All bool
}

// Dispatcher доставляет события получателям, определяемым Scope.
// Доставка at-most-once: отказ одного получателя (переполненная или
// закрытая очередь) логируется и приводит к его cleanup, остальные
// получатели того же fan-out не затрагиваются.
type Dispatcher struct {
	registry *RoomRegistry

	// Вызывается для получателя, которому не удалось доставить
	onFailure func(*Client)
}

func NewDispatcher(registry *RoomRegistry, onFailure func(*Client)) *Dispatcher {
	return &Dispatcher{registry: registry, onFailure: onFailure}
}

// Deliver сериализует событие один раз и рассылает его получателям.
// Порядок per-sender-per-room держится на том, что события одного
// отправителя попадают сюда из одной горутины чтения.
func (d *Dispatcher) Deliver(evType EventType, roomID string, payload interface{}, scope Scope) {
	ev := Event{
		Type:      evType,
		RoomID:    roomID,
		Timestamp: time.Now(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("Failed to marshal %s payload: %v", evType, err)
			return
		}
		ev.Data = data
	}

	frame, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", evType, err)
		return
	}

	for _, c := range d.resolve(scope) {
		if err := c.enqueue(frame); err != nil {
			log.Printf("Failed to deliver %s to client %s: %v", evType, c.ID, err)
			if d.onFailure != nil {
				d.onFailure(c)
			}
		}
	}
}

// resolve переводит Scope в срез получателей на момент доставки
func (d *Dispatcher) resolve(scope Scope) []*Client {
	switch {
	case scope.All:
		return d.registry.AllClients()

	case scope.ConnID != uuid.Nil:
		if c, ok := d.registry.Client(scope.ConnID); ok {
			return []*Client{c}
		}
		return nil

	case scope.IdentityID != "":
		return d.registry.IdentityClients(scope.IdentityID)

	case scope.RoomID != "":
		members, ok := d.registry.Members(scope.RoomID)
		if !ok {
			return nil
		}
		if scope.ExcludeConn == uuid.Nil {
			return members
		}
		recipients := make([]*Client, 0, len(members))
		for _, c := range members {
			if c.ID != scope.ExcludeConn {
				recipients = append(recipients, c)
			}
		}
		return recipients
	}

	return nil
}
