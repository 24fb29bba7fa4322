package dto

import "encoding/json"

// Payload входящих событий коллаборации

type StartEditingPayload struct {
	RegionID string `json:"region_id"`
}

type StopEditingPayload struct {
	RegionID string `json:"region_id"`
}

type LiveChangePayload struct {
	RegionID string          `json:"region_id"`
	Delta    json.RawMessage `json:"delta"`
}

type CursorMovePayload struct {
	Position json.RawMessage `json:"position"`
}

type SendMessagePayload struct {
	Content string `json:"content"`
}
