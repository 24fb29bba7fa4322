package history

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store пишет историю коллаборации в Postgres
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&ChatMessage{}, &EditDelta{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) SaveMessage(msg *ChatMessage) error {
	return s.db.Create(msg).Error
}

func (s *Store) SaveDelta(delta *EditDelta) error {
	return s.db.Create(delta).Error
}
