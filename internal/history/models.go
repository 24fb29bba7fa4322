package history

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage — сохраненная копия чат-сообщения.
// Ядро на эти записи не опирается.
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID     string    `gorm:"not null;index:idx_chat_room_created"`
	SenderID   string    `gorm:"not null"`
	SenderName string
	Content    string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"index:idx_chat_room_created"`
}

// EditDelta — сохраненная дельта live-change, как есть, без интерпретации
type EditDelta struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID    string    `gorm:"not null;index:idx_delta_room_created"`
	RegionID  string    `gorm:"not null"`
	SenderID  string    `gorm:"not null"`
	Delta     string    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"index:idx_delta_room_created"`
}
