package querylog

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, patterns []string) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "querylog.db")
	store, err := NewStore(dbPath, patterns)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRecordAndRecent(t *testing.T) {
	store := newTestStore(t, nil)

	store.Record(Entry{
		ToolName:        "echo",
		Input:           map[string]interface{}{"message": "hi"},
		Output:          map[string]interface{}{"ok": true},
		ExecutionTimeMS: 3,
		Success:         true,
	})
	store.Record(Entry{
		ToolName:     "echo",
		Input:        map[string]interface{}{},
		Success:      false,
		ErrorMessage: "boom",
	})

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	for _, e := range entries {
		if e.ID == "" {
			t.Error("Entry should be assigned an id")
		}
		if e.ToolName != "echo" {
			t.Errorf("Unexpected tool name: %s", e.ToolName)
		}
	}

	var failed *Entry
	for i := range entries {
		if !entries[i].Success {
			failed = &entries[i]
		}
	}
	if failed == nil || failed.ErrorMessage != "boom" {
		t.Errorf("Failed entry not recorded correctly: %+v", entries)
	}
}

func TestStoreByTool(t *testing.T) {
	store := newTestStore(t, nil)

	store.Record(Entry{ToolName: "echo", Input: "a", Output: "b", Success: true})
	store.Record(Entry{ToolName: "health", Input: "c", Output: "d", Success: true})

	entries, err := store.ByTool("health", 10)
	if err != nil {
		t.Fatalf("ByTool failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ToolName != "health" {
		t.Errorf("Expected single health entry, got %+v", entries)
	}
}

func TestStoreExcludePatterns(t *testing.T) {
	store := newTestStore(t, []string{"debug_*", "internal/**"})

	if !store.Excluded("debug_dump") {
		t.Error("debug_dump should match debug_*")
	}
	if !store.Excluded("internal/trace/deep") {
		t.Error("internal/trace/deep should match internal/**")
	}
	if store.Excluded("echo") {
		t.Error("echo should not be excluded")
	}

	store.Record(Entry{ToolName: "debug_dump", Input: "x", Output: "y", Success: true})
	store.Record(Entry{ToolName: "echo", Input: "x", Output: "y", Success: true})

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ToolName != "echo" {
		t.Errorf("Excluded tool should not be persisted: %+v", entries)
	}
}
