package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("storage unavailable")
)

// Backend is the injected key-value store. It is the interface implemented by
// the gofiber/storage drivers (memory, redis).
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Reset() error
	Close() error
}

// Storage reads and writes JSON documents on a Backend.
type Storage interface {
	Get(ctx context.Context, key string, val any) error
	Set(ctx context.Context, key string, val any, expiresIn time.Duration) error
	Save(ctx context.Context, key string, val any) error
	Delete(ctx context.Context, key string) error
}

// Store is a typed view over a Storage.
type Store[T any] interface {
	Storage() Storage
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, val T, expiresIn time.Duration) error
	Save(ctx context.Context, key string, val T) error
	Delete(ctx context.Context, key string) error
}
