package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

type testArtifact struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

func TestSaveAndLoad(t *testing.T) {
	store := NewStore(t.TempDir())

	want := testArtifact{Value: "hello", Count: 3}
	if err := store.Save("unit1", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var got testArtifact
	if err := store.Load("unit1", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestCompletedMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	if store.Completed("nope") {
		t.Error("Completed should be false for a missing artifact")
	}
}

func TestCompletedAfterSave(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save("unit1", testArtifact{Value: "x"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.Completed("unit1") {
		t.Error("Completed should be true after Save")
	}
}

func TestCompletedRejectsTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	// Simulate a writer that died mid-write.
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte(`{"value": "hel`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if store.Completed("broken") {
		t.Error("Completed should reject a truncated artifact")
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save("unit1", testArtifact{Value: "old"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save("unit1", testArtifact{Value: "new"}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	var got testArtifact
	if err := store.Load("unit1", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Value != "new" {
		t.Errorf("Value = %q, want %q", got.Value, "new")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := store.Save("unit1", testArtifact{Value: "x"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file after Save, got %d", len(entries))
	}
}

func TestSaveJSONCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.json")
	if err := SaveJSON(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	var got map[string]int
	if err := LoadJSON(path, &got); err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if got["a"] != 1 {
		t.Errorf("got %v, want map[a:1]", got)
	}
}
