// Package redisstore keeps guest check-in tokens in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const (
	keyPrefix = "presenca:"

	// ExpiryGrace keeps a token readable past its expiry so validation can
	// report it as expired rather than unknown.
	ExpiryGrace = time.Hour
)

// NewClient parses a redis:// URL and verifies connectivity with short
// timeouts.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 1 * time.Second
	opts.WriteTimeout = 1 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// TokenStore stores one token per guest. Keys expire through Redis TTLs, so
// DeleteExpired has nothing to do.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

type tokenPayload struct {
	GuestID   uuid.UUID `json:"guest_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func tokenKey(hash string) string {
	return keyPrefix + "token:" + hash
}

func guestKey(id uuid.UUID) string {
	return keyPrefix + "guest-token:" + id.String()
}

func (s *TokenStore) Save(ctx context.Context, token *domain.CheckInToken) error {
	payload, err := json.Marshal(tokenPayload{
		GuestID:   token.GuestID,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	evictAt := token.ExpiresAt.Add(ExpiryGrace)

	previous, err := s.client.SetArgs(ctx, guestKey(token.GuestID), token.Hash, redis.SetArgs{
		Get:      true,
		ExpireAt: evictAt,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("save guest token index: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != "" && previous != token.Hash {
			pipe.Del(ctx, tokenKey(previous))
		}
		pipe.Set(ctx, tokenKey(token.Hash), payload, 0)
		pipe.ExpireAt(ctx, tokenKey(token.Hash), evictAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) GetByHash(ctx context.Context, hash string) (*domain.CheckInToken, error) {
	raw, err := s.client.Get(ctx, tokenKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	var p tokenPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	return &domain.CheckInToken{
		Hash:      hash,
		GuestID:   p.GuestID,
		ExpiresAt: p.ExpiresAt,
		CreatedAt: p.CreatedAt,
	}, nil
}

func (s *TokenStore) Delete(ctx context.Context, hash string) error {
	token, err := s.GetByHash(ctx, hash)
	if errors.Is(err, domain.ErrInvalidToken) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.client.Del(ctx, tokenKey(hash)).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}

	current, err := s.client.Get(ctx, guestKey(token.GuestID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get guest token index: %w", err)
	}
	if current == hash {
		if err := s.client.Del(ctx, guestKey(token.GuestID)).Err(); err != nil {
			return fmt.Errorf("delete guest token index: %w", err)
		}
	}
	return nil
}

func (s *TokenStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

var errNoClient = errors.New("redis client not configured")

// Ping verifies redis connectivity.
func (s *TokenStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errNoClient
	}
	return s.client.Ping(ctx).Err()
}
