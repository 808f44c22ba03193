package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"econ_release_notifier/internal/apperr"
	"econ_release_notifier/internal/domain/ledger"
)

var testNow = time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)

func TestLoadAbsentFileIsEmptyLedger(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "er.state.json"))
	l, err := s.Load(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(l.Events) != 0 {
		t.Errorf("Events has %d entries, want 0", len(l.Events))
	}
}

func TestLoadCorruptFileIsUsageErrorAndFileIsPreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "er.state.json")
	if err := os.WriteFile(path, []byte(`{"events": {`), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path)
	_, err := s.Load(context.Background(), testNow)
	if err == nil {
		t.Fatal("Load() = nil error for corrupt file")
	}
	if apperr.ExitCode(err) != apperr.ExitUsage {
		t.Errorf("exit code = %d, want %d", apperr.ExitCode(err), apperr.ExitUsage)
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("re-reading corrupt file: %v", readErr)
	}
	if string(data) != `{"events": {` {
		t.Errorf("corrupt file was modified: %q", data)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "er.state.json")
	s := NewFileStore(path)

	l := ledger.New()
	l.RecordSend("2026-01-03T12:00:00Z|US|CPI", time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC), testNow)
	if err := s.Save(context.Background(), l); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Load(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	entry := got.Events["2026-01-03T12:00:00Z|US|CPI"]
	if entry.LastNotifiedAtUTC != ledger.FormatTime(testNow) {
		t.Errorf("entry = %+v", entry)
	}
	if got.LastNotifiedTimeUTC == nil || *got.LastNotifiedTimeUTC != "2026-01-03T12:00:00Z" {
		t.Errorf("LastNotifiedTimeUTC = %v", got.LastNotifiedTimeUTC)
	}
}

func TestSaveLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "er.state.json"))
	if err := s.Save(context.Background(), ledger.New()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "er.state.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only er.state.json", names)
	}
}

// The destination must always hold a complete document: either the old or the
// new version, regardless of where a crash interrupts persistence. A stray
// temp file from an interrupted write must not corrupt the next save.
func TestSaveSurvivesLeftoverTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "er.state.json")
	s := NewFileStore(path)

	old := ledger.New()
	old.RecordSend("old-key", testNow, testNow)
	if err := s.Save(context.Background(), old); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Simulate a previous run dying after writing half a temp file.
	if err := os.WriteFile(path+".tmp", []byte(`{"events`), 0o600); err != nil {
		t.Fatal(err)
	}

	fresh := ledger.New()
	fresh.RecordSend("new-key", testNow, testNow)
	if err := s.Save(context.Background(), fresh); err != nil {
		t.Fatalf("Save() after leftover temp file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("state file is not valid JSON after save: %v", err)
	}
	events, ok := doc["events"].(map[string]any)
	if !ok {
		t.Fatalf("state file has no events object: %s", data)
	}
	if _, ok := events["new-key"]; !ok {
		t.Error("saved document missing new entry")
	}
	if _, ok := events["old-key"]; ok {
		t.Error("saved document mixes old and new content")
	}
}

func TestSaveCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "er.state.json")
	s := NewFileStore(path)
	if err := s.Save(context.Background(), ledger.New()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file not created: %v", err)
	}
}
