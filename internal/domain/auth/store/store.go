package store

import (
	"context"
	"errors"

	"catalog-server-go/internal/domain/auth/model"
)

// ErrNotFound is returned when no record exists for the username.
var ErrNotFound = errors.New("user record not found")

// Store defines the user persistence behaviour required by the auth domain.
type Store interface {
	Save(ctx context.Context, user model.UserRecord) error
	Get(ctx context.Context, username string) (model.UserRecord, error)
	List(ctx context.Context) ([]model.UserRecord, error)
	SetRole(ctx context.Context, username string, role model.Role) error
	SetActive(ctx context.Context, username string, active bool) error
	Delete(ctx context.Context, username string) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	Redis  *RedisConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
