package collab

import "errors"

var (
	ErrClientQueueFull = errors.New("client event queue is full")
	ErrClientClosed    = errors.New("client connection is closed")
	ErrInvalidEvent    = errors.New("invalid event format")
	ErrNotInRoom       = errors.New("connection is not a member of the room")
	ErrRoomNotFound    = errors.New("room not found")
	ErrEmptyContent    = errors.New("message content is empty")
)
