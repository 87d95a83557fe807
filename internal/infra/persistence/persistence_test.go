package persistence

import (
	"path/filepath"
	"testing"

	"halomock/internal/infra/persistence/memory"
	"halomock/internal/infra/persistence/sqlite"
)

func TestOpenStoreMemory(t *testing.T) {
	t.Setenv("HALOMOCK_STORAGE_DRIVER", "memory")
	store, err := OpenStore()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenStoreDefaultSQLite(t *testing.T) {
	t.Setenv("HALOMOCK_STORAGE_DRIVER", "")
	path := filepath.Join(t.TempDir(), "halomock.db")
	t.Setenv("HALOMOCK_SQLITE_PATH", path)

	store, err := OpenStore()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	defer func() { _ = s.Close() }()
	if s.Path() != path {
		t.Fatalf("expected configured path %q, got %q", path, s.Path())
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	t.Setenv("HALOMOCK_STORAGE_DRIVER", "bogus")
	if _, err := OpenStore(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
