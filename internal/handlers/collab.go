package handlers

import (
	"encoding/json"
	"log"

	"github.com/devTechs001/folio-collab/internal/collab"
	"github.com/devTechs001/folio-collab/internal/handlers/dto"
)

// CollabHandler разбирает входящие события соединения и вызывает
// операции ядра. Одно событие = одна единица работы; события разных
// соединений обрабатываются параллельно.
type CollabHandler struct {
	hub *collab.Hub
}

func NewCollabHandler(hub *collab.Hub) *CollabHandler {
	return &CollabHandler{hub: hub}
}

func (h *CollabHandler) HandleEvent(client *collab.Client, ev *collab.Event) error {
	switch ev.Type {
	case collab.TypeJoinRoom:
		if ev.RoomID == "" {
			return collab.ErrInvalidEvent
		}
		h.hub.JoinRoom(client, ev.RoomID)
		return nil

	case collab.TypeLeaveRoom:
		if ev.RoomID == "" {
			return collab.ErrInvalidEvent
		}
		h.hub.LeaveRoom(client, ev.RoomID)
		return nil

	case collab.TypeStartEditing:
		return h.handleStartEditing(client, ev)

	case collab.TypeStopEditing:
		return h.handleStopEditing(client, ev)

	case collab.TypeLiveChange:
		return h.handleLiveChange(client, ev)

	case collab.TypeCursorMove:
		return h.handleCursorMove(client, ev)

	case collab.TypeSendMessage:
		return h.handleSendMessage(client, ev)

	case collab.TypeTyping:
		if ev.RoomID == "" {
			return collab.ErrInvalidEvent
		}
		return h.hub.Typing(client, ev.RoomID)

	default:
		log.Printf("Unknown event type: %s", ev.Type)
		return nil
	}
}

func (h *CollabHandler) handleStartEditing(client *collab.Client, ev *collab.Event) error {
	var payload dto.StartEditingPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return err
	}
	if ev.RoomID == "" || payload.RegionID == "" {
		return collab.ErrInvalidEvent
	}

	return h.hub.StartEditing(client, ev.RoomID, payload.RegionID)
}

func (h *CollabHandler) handleStopEditing(client *collab.Client, ev *collab.Event) error {
	var payload dto.StopEditingPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return err
	}
	if ev.RoomID == "" || payload.RegionID == "" {
		return collab.ErrInvalidEvent
	}

	return h.hub.StopEditing(client, ev.RoomID, payload.RegionID)
}

func (h *CollabHandler) handleLiveChange(client *collab.Client, ev *collab.Event) error {
	var payload dto.LiveChangePayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return err
	}
	if ev.RoomID == "" || payload.RegionID == "" {
		return collab.ErrInvalidEvent
	}

	return h.hub.LiveChange(client, ev.RoomID, payload.RegionID, payload.Delta)
}

func (h *CollabHandler) handleCursorMove(client *collab.Client, ev *collab.Event) error {
	var payload dto.CursorMovePayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return err
	}
	if ev.RoomID == "" {
		return collab.ErrInvalidEvent
	}

	return h.hub.CursorMove(client, ev.RoomID, payload.Position)
}

func (h *CollabHandler) handleSendMessage(client *collab.Client, ev *collab.Event) error {
	var payload dto.SendMessagePayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return err
	}
	if ev.RoomID == "" {
		return collab.ErrInvalidEvent
	}

	_, err := h.hub.SendMessage(client, ev.RoomID, payload.Content)
	return err
}
