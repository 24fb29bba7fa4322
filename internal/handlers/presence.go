package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devTechs001/folio-collab/internal/collab"
)

// PresenceHandler отдает производное состояние присутствия по HTTP —
// для индикаторов "кто онлайн" вне живого соединения
type PresenceHandler struct {
	hub *collab.Hub
}

func NewPresenceHandler(hub *collab.Hub) *PresenceHandler {
	return &PresenceHandler{hub: hub}
}

// GetOnlineUsers возвращает список пользователей онлайн
func (h *PresenceHandler) GetOnlineUsers(c *gin.Context) {
	users := h.hub.OnlineIdentities()
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// GetRoomMembers возвращает участников комнаты.
// Комнаты без участников не существуют — 404, а не пустой список.
func (h *PresenceHandler) GetRoomMembers(c *gin.Context) {
	roomID := c.Param("id")

	members, ok := h.hub.RoomMemberIdentities(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "members": members})
}
