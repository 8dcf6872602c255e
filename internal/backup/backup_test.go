package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCreate_JSONDataFile(t *testing.T) {
	path := writeDataFile(t, "assistant.json", `{"version":1}`)
	m := NewManager(path)

	backupPath, err := m.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if filepath.Dir(backupPath) != m.BackupDir() {
		t.Errorf("backup written outside backup dir: %s", backupPath)
	}
	if !strings.HasSuffix(backupPath, ".json") {
		t.Errorf("backup should keep the data file extension, got %s", backupPath)
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":1}` {
		t.Errorf("backup content mismatch: %q", data)
	}
}

func TestCreate_MissingDataFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.json"))

	if _, err := m.Create(); err == nil {
		t.Error("Create() should fail when the data file does not exist")
	}
}

func TestCreate_CollisionGetsUniqueName(t *testing.T) {
	path := writeDataFile(t, "assistant.json", `{}`)
	m := NewManager(path)

	first, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Errorf("two backups in the same minute must not collide: %s", first)
	}
}

func TestList_NewestFirst(t *testing.T) {
	path := writeDataFile(t, "assistant.json", `{}`)
	m := NewManager(path)

	if err := os.MkdirAll(m.BackupDir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"assistant-20250308-1200.json",
		"assistant-20250310-0900.json",
		"assistant-20250309-2330.json",
		"not-a-backup.json",
		"assistant-garbage.json",
	} {
		if err := os.WriteFile(filepath.Join(m.BackupDir(), name), []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 recognized backups, got %d", len(backups))
	}
	if !strings.Contains(backups[0].Path, "20250310-0900") {
		t.Errorf("newest backup should come first, got %s", backups[0].Path)
	}
	if !strings.Contains(backups[2].Path, "20250308-1200") {
		t.Errorf("oldest backup should come last, got %s", backups[2].Path)
	}
}

func TestRotate_KeepsRetentionLimit(t *testing.T) {
	path := writeDataFile(t, "assistant.json", `{}`)
	m := NewManager(path)

	if err := os.MkdirAll(m.BackupDir(), 0700); err != nil {
		t.Fatal(err)
	}
	// 20 synthetic backups, one per day.
	for day := 1; day <= 20; day++ {
		name := fmt.Sprintf("assistant-202503%02d-1200.json", day)
		if err := os.WriteFile(filepath.Join(m.BackupDir(), name), []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.rotate(); err != nil {
		t.Fatal(err)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 14 {
		t.Errorf("expected 14 backups after rotation, got %d", len(backups))
	}
	// The survivors must be the newest ones.
	if !strings.Contains(backups[len(backups)-1].Path, "20250307") {
		t.Errorf("oldest survivor should be day 7, got %s", backups[len(backups)-1].Path)
	}
}

func TestRestore_SwapsFileAndKeepsSafetyBackup(t *testing.T) {
	path := writeDataFile(t, "assistant.json", `{"state":"current"}`)
	m := NewManager(path)

	backupPath := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(backupPath, []byte(`{"state":"old"}`), 0600); err != nil {
		t.Fatal(err)
	}

	if err := m.Restore(backupPath); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"state":"old"}` {
		t.Errorf("data file not restored, got %q", data)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("restore should have snapshotted the previous state, got %d backups", len(backups))
	}
	snapshot, err := os.ReadFile(backups[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(snapshot) != `{"state":"current"}` {
		t.Errorf("safety backup content mismatch: %q", snapshot)
	}
}

func TestRestore_MissingBackup(t *testing.T) {
	path := writeDataFile(t, "assistant.json", `{}`)
	m := NewManager(path)

	if err := m.Restore(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Restore() should fail for a missing backup file")
	}
}
