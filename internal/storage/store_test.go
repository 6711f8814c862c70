package storage

import (
	"testing"
	"time"

	"github.com/mlrig/hwmon/internal/domain"
)

func TestAgentIDStableAcrossStores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id, err := first.AgentID()
	if err != nil {
		t.Fatalf("AgentID: %v", err)
	}
	if id == "" {
		t.Fatal("empty agent id")
	}

	// A new store over the same directory sees the same identity.
	second, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	again, err := second.AgentID()
	if err != nil {
		t.Fatalf("AgentID: %v", err)
	}
	if again != id {
		t.Errorf("agent id changed: %q then %q", id, again)
	}
}

func TestInventoryRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if inv, err := store.LoadInventory(); err != nil || inv != nil {
		t.Fatalf("LoadInventory on empty store = %v, %v", inv, err)
	}

	saved := domain.Inventory{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		System:    domain.SystemInfo{Hostname: "rig-01"},
	}
	if err := store.SaveInventory(saved); err != nil {
		t.Fatalf("SaveInventory: %v", err)
	}

	loaded, err := store.LoadInventory()
	if err != nil {
		t.Fatalf("LoadInventory: %v", err)
	}
	if loaded == nil || loaded.System.Hostname != "rig-01" {
		t.Errorf("loaded = %+v", loaded)
	}
	if !loaded.Timestamp.Equal(saved.Timestamp) {
		t.Errorf("timestamp = %v, want %v", loaded.Timestamp, saved.Timestamp)
	}
}
