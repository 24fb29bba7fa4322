package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/devTechs001/folio-collab/internal/collab"
)

var (
	ErrTokenRevoked = errors.New("token is revoked")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verifier проверяет уже выданный токен и возвращает пользователя.
// Ядро не кэширует и не обновляет токены — черный ящик.
type Verifier interface {
	Verify(ctx context.Context, token string) (collab.Identity, error)
}

// BlacklistVerifier — проверка подписи JWT плюс черный список
// отозванных токенов в Redis (контракт logout платформы).
type BlacklistVerifier struct {
	jwt   *JWTManager
	redis *redis.Client
}

func NewBlacklistVerifier(jwt *JWTManager, rdb *redis.Client) *BlacklistVerifier {
	return &BlacklistVerifier{jwt: jwt, redis: rdb}
}

func (v *BlacklistVerifier) Verify(ctx context.Context, token string) (collab.Identity, error) {
	exists, err := v.redis.Exists(ctx, "blacklist:"+token).Result()
	if err != nil {
		return collab.Identity{}, fmt.Errorf("blacklist check: %w", err)
	}
	if exists > 0 {
		return collab.Identity{}, ErrTokenRevoked
	}

	claims, err := v.jwt.Verify(token)
	if err != nil {
		return collab.Identity{}, ErrInvalidToken
	}

	displayName := claims.DisplayName
	if displayName == "" {
		displayName = claims.Subject
	}

	return collab.Identity{ID: claims.Subject, DisplayName: displayName}, nil
}
