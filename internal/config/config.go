package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config — конфигурация сервиса из окружения
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	RedisURL  string `envconfig:"REDIS_URL" required:"true"`

	// DSN истории; пусто — ретрансляция без записи
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Таймаут аутентификации handshake
	AuthTimeout time.Duration `envconfig:"COLLAB_AUTH_TIMEOUT" default:"5s"`

	// TTL токенов, выданных локальным инструментарием
	TokenTTL time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Буфер канала записи истории
	HistoryBuffer int `envconfig:"HISTORY_BUFFER" default:"1024"`
}

// Load читает .env.local/.env и собирает конфигурацию
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
