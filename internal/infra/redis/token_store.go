package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"edustop-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps issued tasks as JSON under task-token:{token} with a TTL.
// Consume uses GETDEL so a token can be read at most once across instances.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

func (s *TokenStore) Issue(ctx context.Context, issued domain.IssuedTask) (string, error) {
	data, err := json.Marshal(issued)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", storageErr("store task token", err)
	}
	return token, nil
}

func (s *TokenStore) Consume(ctx context.Context, token string) (domain.IssuedTask, error) {
	if token == "" {
		return domain.IssuedTask{}, domain.ErrInvalidOrExpiredToken
	}
	raw, err := s.client.GetDel(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.IssuedTask{}, domain.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return domain.IssuedTask{}, storageErr("consume task token", err)
	}

	var issued domain.IssuedTask
	if err := json.Unmarshal(raw, &issued); err != nil {
		return domain.IssuedTask{}, storageErr("decode task token", err)
	}
	return issued, nil
}

func (s *TokenStore) key(token string) string {
	return "task-token:" + token
}
