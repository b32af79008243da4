package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
)

type document struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONStorage_RoundTrip(t *testing.T) {
	storage := NewJSONStorage(memory.New())
	ctx := context.Background()

	in := document{Name: "uplink", Count: 3}
	if err := storage.Save(ctx, "doc", in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	var out document
	if err := storage.Get(ctx, "doc", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != in {
		t.Fatalf("Get returned %+v, want %+v", out, in)
	}
}

func TestJSONStorage_MissingKey(t *testing.T) {
	storage := NewJSONStorage(memory.New())

	var out document
	err := storage.Get(context.Background(), "absent", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on missing key returned %v, want ErrNotFound", err)
	}
}

func TestJSONStorage_Delete(t *testing.T) {
	storage := NewJSONStorage(memory.New())
	ctx := context.Background()

	if err := storage.Save(ctx, "doc", document{Name: "gone"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := storage.Delete(ctx, "doc"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var out document
	if err := storage.Get(ctx, "doc", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete returned %v, want ErrNotFound", err)
	}
	// deleting a missing key is not an error
	if err := storage.Delete(ctx, "doc"); err != nil {
		t.Fatalf("Delete on missing key failed: %v", err)
	}
}

// failingBackend simulates an unreachable backend so error wrapping can be
// checked without a real broken connection.
type failingBackend struct{}

func (failingBackend) Get(key string) ([]byte, error) { return nil, errors.New("down") }

func (failingBackend) Set(key string, val []byte, exp time.Duration) error {
	return errors.New("down")
}

func (failingBackend) Delete(key string) error { return errors.New("down") }

func (failingBackend) Reset() error { return errors.New("down") }

func (failingBackend) Close() error { return nil }

func TestJSONStorage_BackendFailure(t *testing.T) {
	storage := NewJSONStorage(failingBackend{})
	ctx := context.Background()

	var out document
	if err := storage.Get(ctx, "doc", &out); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get returned %v, want ErrUnavailable", err)
	}
	if err := storage.Save(ctx, "doc", document{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Save returned %v, want ErrUnavailable", err)
	}
	if err := storage.Delete(ctx, "doc"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Delete returned %v, want ErrUnavailable", err)
	}
}

// TestStoreWithPrefix verifies that typed stores with different prefixes do
// not collide on the same logical key.
func TestStoreWithPrefix(t *testing.T) {
	storage := NewJSONStorage(memory.New())
	ctx := context.Background()

	secrets := New[string](storage, "mfaSecret_")
	enabled := New[string](storage, "mfaEnabled_")

	if err := secrets.Save(ctx, "admin", "GEZDGNBVGY3TQOJQ"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := enabled.Save(ctx, "admin", "true"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secret, err := secrets.Get(ctx, "admin")
	if err != nil || secret != "GEZDGNBVGY3TQOJQ" {
		t.Fatalf("secrets.Get = %q, %v", secret, err)
	}
	flag, err := enabled.Get(ctx, "admin")
	if err != nil || flag != "true" {
		t.Fatalf("enabled.Get = %q, %v", flag, err)
	}

	// the raw keys carry the prefixes
	var raw string
	if err := storage.Get(ctx, "mfaSecret_admin", &raw); err != nil {
		t.Fatalf("raw Get failed: %v", err)
	}
	if raw != "GEZDGNBVGY3TQOJQ" {
		t.Fatalf("raw value = %q", raw)
	}

	if err := secrets.Delete(ctx, "admin"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := enabled.Get(ctx, "admin"); err != nil {
		t.Fatalf("deleting one prefix removed the other: %v", err)
	}
}
