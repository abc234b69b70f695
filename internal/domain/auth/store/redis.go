package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"catalog-server-go/internal/domain/auth/model"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed user store. Records do not expire:
// accounts persist until deleted.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "auth:user:"
	}
	return &redisStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (s *redisStore) key(username string) string {
	return s.prefix + username
}

func (s *redisStore) Save(ctx context.Context, user model.UserRecord) error {
	if user.Username == "" {
		return fmt.Errorf("username required")
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(user.Username), data, 0).Err()
}

func (s *redisStore) Get(ctx context.Context, username string) (model.UserRecord, error) {
	raw, err := s.client.Get(ctx, s.key(username)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.UserRecord{}, fmt.Errorf("%w: %s", ErrNotFound, username)
		}
		return model.UserRecord{}, err
	}
	var user model.UserRecord
	if err := json.Unmarshal(raw, &user); err != nil {
		return model.UserRecord{}, err
	}
	return user, nil
}

func (s *redisStore) List(ctx context.Context) ([]model.UserRecord, error) {
	var cursor uint64
	users := make([]model.UserRecord, 0)
	pattern := s.prefix + "*"
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			user, err := s.Get(ctx, strings.TrimPrefix(key, s.prefix))
			if err != nil {
				continue
			}
			users = append(users, user)
		}
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return users, nil
}

func (s *redisStore) SetRole(ctx context.Context, username string, role model.Role) error {
	user, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	user.Role = role
	return s.Save(ctx, user)
}

func (s *redisStore) SetActive(ctx context.Context, username string, active bool) error {
	user, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	user.Active = active
	return s.Save(ctx, user)
}

func (s *redisStore) Delete(ctx context.Context, username string) error {
	removed, err := s.client.Del(ctx, s.key(username)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := 0
	for _, user := range users {
		if user.Active {
			active++
		}
	}
	return map[string]any{
		"type":   "redis",
		"total":  len(users),
		"active": active,
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
