package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JSONStorage serializes values as JSON documents on the underlying Backend.
// Backend failures surface as ErrUnavailable so callers can distinguish an
// unreachable store from a missing key.
type JSONStorage struct {
	backend Backend
}

func (s *JSONStorage) Backend() Backend {
	return s.backend
}

func (s *JSONStorage) Get(ctx context.Context, key string, val any) error {
	raw, err := s.backend.Get(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(raw) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal(raw, val)
}

func (s *JSONStorage) Set(ctx context.Context, key string, val any, expiresIn time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if expiresIn < 0 {
		expiresIn = 0
	}
	if err := s.backend.Set(key, raw, expiresIn); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *JSONStorage) Save(ctx context.Context, key string, val any) error {
	return s.Set(ctx, key, val, 0)
}

func (s *JSONStorage) Delete(ctx context.Context, key string) error {
	if err := s.backend.Delete(key); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func NewJSONStorage(backend Backend) *JSONStorage {
	return &JSONStorage{backend: backend}
}
