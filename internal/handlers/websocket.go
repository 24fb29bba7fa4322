package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/devTechs001/folio-collab/internal/collab"
	"github.com/devTechs001/folio-collab/internal/middleware"
)

// WebSocketHandler — шлюз соединений: принимает handshake уже
// аутентифицированного запроса, апгрейдит линк и передает соединение hub'у
type WebSocketHandler struct {
	hub          *collab.Hub
	eventHandler *CollabHandler
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler создает новый WebSocket handler
func NewWebSocketHandler(hub *collab.Hub, eventHandler *CollabHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		eventHandler: eventHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Проверить origin в prod
				return true
			},
		},
	}
}

// HandleWebSocket обрабатывает WebSocket соединения
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// Identity кладется в контекст WS-middleware до апгрейда;
	// до этой точки неаутентифицированный запрос не доходит
	identity, exists := c.Get(middleware.IdentityKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := collab.NewClient(h.hub, conn, identity.(collab.Identity))

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.eventHandler)
}
