package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devTechs001/folio-collab/internal/collab"
)

func presenceRouter(hub *collab.Hub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPresenceHandler(hub)
	r.GET("/api/v1/presence/online", h.GetOnlineUsers)
	r.GET("/api/v1/rooms/:id/members", h.GetRoomMembers)
	return r
}

func TestGetRoomMembers(t *testing.T) {
	hub := collab.NewHub(nil)
	client := collab.NewClient(hub, nil, collab.Identity{ID: "u1", DisplayName: "Alice"})
	hub.Register(client)
	hub.JoinRoom(client, "port-1")

	r := presenceRouter(hub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/port-1/members", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
	assert.Contains(t, w.Body.String(), "Alice")
}

func TestGetRoomMembersUnknownRoom(t *testing.T) {
	hub := collab.NewHub(nil)
	r := presenceRouter(hub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/ghost/members", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOnlineUsers(t *testing.T) {
	hub := collab.NewHub(nil)
	client := collab.NewClient(hub, nil, collab.Identity{ID: "u1", DisplayName: "Alice"})
	hub.Register(client)

	r := presenceRouter(hub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence/online", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), "u1")
}
