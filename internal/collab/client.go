package collab

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер события
	maxEventSize = 512 * 1024 // 512KB

	// Размер буфера исходящих событий
	sendBufferSize = 256
)

// EventHandler обрабатывает входящие события клиента
type EventHandler interface {
	HandleEvent(client *Client, ev *Event) error
}

// Client — одно живое соединение. Владеет транспортным линком;
// реестр комнат хранит на него только ссылки.
type Client struct {
	ID        uuid.UUID
	Identity  Identity
	CreatedAt time.Time

	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// Защищает закрытие очереди от гонки с конкурентным fan-out
	mu     sync.RWMutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		ID:        uuid.New(),
		Identity:  identity,
		CreatedAt: time.Now(),
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		hub:       hub,
	}
}

// ReadPump читает события от клиента. Завершение цикла (ошибка чтения,
// закрытие линка) — единственный путь к cleanup соединения.
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxEventSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &ev); err != nil {
				log.Printf("Error handling %s event: %v", ev.Type, err)
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump отправляет события клиенту и пингует линк
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue ставит кадр в очередь отправки, не блокируя вызывающего.
// Переполненная очередь — ошибка получателя, не отправителя.
func (c *Client) enqueue(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// closeSend закрывает очередь отправки. Повторный вызов — no-op.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) SendEvent(evType EventType, roomID string, data interface{}) error {
	ev := Event{
		Type:      evType,
		RoomID:    roomID,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		ev.Data = jsonData
	}

	frame, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return c.enqueue(frame)
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent(TypeError, "", map[string]string{
		"error": errorMsg,
	})
}
