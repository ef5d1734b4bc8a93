package core

import (
	"context"
	"path/filepath"
	"testing"

	"medcabinet/internal/infra/persistence/memory"
	"medcabinet/pkg/domain"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("MEDCABINET_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(NewRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("MEDCABINET_STORAGE_DRIVER", "")
	t.Setenv("MEDCABINET_SQLITE_PATH", filepath.Join(t.TempDir(), "state.db"))
	store, err := OpenPersistentStore(NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer func() { _ = store.Close() }()
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, e := tx.CreateMedication(domain.Medication{Name: "Probe", DateAdded: "2026-08-01"})
		return e
	}); err != nil {
		t.Fatalf("transaction through sqlite store: %v", err)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("MEDCABINET_STORAGE_DRIVER", "etcd")
	if _, err := OpenPersistentStore(NewRulesEngine()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
