package pop3

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeMessage(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotMaildrop(t *testing.T) {
	root := t.TempDir()
	newDir := filepath.Join(root, "new")
	if err := os.MkdirAll(newDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMessage(t, newDir, "m1", "hi\n")
	writeMessage(t, newDir, "m2", "hello\r\nworld\n")
	if err := os.MkdirAll(filepath.Join(newDir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	records, err := snapshotMaildrop(testLogger(), root)
	if err != nil {
		t.Fatalf("snapshotMaildrop() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records (directory skipped), got %d", len(records))
	}
}

func TestMessageRecordSizeOfLazy(t *testing.T) {
	root := t.TempDir()
	newDir := filepath.Join(root, "new")
	if err := os.MkdirAll(newDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMessage(t, newDir, "m1", "hi\n")

	records, err := snapshotMaildrop(testLogger(), root)
	if err != nil {
		t.Fatalf("snapshotMaildrop() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	size, err := records[0].sizeOf()
	if err != nil {
		t.Fatalf("sizeOf() error = %v", err)
	}
	if size != 4 {
		t.Errorf("sizeOf() = %d, want 4", size)
	}

	// Second call should hit the cache; corrupt the backing file and
	// confirm sizeOf still returns the cached value.
	if err := os.WriteFile(records[0].path, []byte("completely different"), 0o644); err != nil {
		t.Fatal(err)
	}
	size2, err := records[0].sizeOf()
	if err != nil {
		t.Fatalf("sizeOf() second call error = %v", err)
	}
	if size2 != 4 {
		t.Errorf("sizeOf() cached = %d, want 4", size2)
	}
}

func TestFinalizeDeletionsNoneMarked(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "new"), 0o755); err != nil {
		t.Fatal(err)
	}

	records := []*messageRecord{{path: filepath.Join(root, "new", "m1"), filename: "m1"}}
	count, ok := finalizeDeletions(testLogger(), root, records)
	if count != 0 || !ok {
		t.Errorf("finalizeDeletions() = (%d, %v), want (0, true)", count, ok)
	}
	if _, err := os.Stat(filepath.Join(root, "cur")); err == nil {
		t.Error("cur/ should not be created when nothing is deleted")
	}
}

func TestFinalizeDeletionsMovesFiles(t *testing.T) {
	root := t.TempDir()
	newDir := filepath.Join(root, "new")
	if err := os.MkdirAll(newDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMessage(t, newDir, "m1", "hi\n")
	writeMessage(t, newDir, "m2", "bye\n")

	records := []*messageRecord{
		{path: filepath.Join(newDir, "m1"), filename: "m1", deleted: true},
		{path: filepath.Join(newDir, "m2"), filename: "m2", deleted: false},
	}

	count, ok := finalizeDeletions(testLogger(), root, records)
	if !ok || count != 1 {
		t.Fatalf("finalizeDeletions() = (%d, %v), want (1, true)", count, ok)
	}

	if _, err := os.Stat(filepath.Join(root, "cur", "m1")); err != nil {
		t.Errorf("expected cur/m1 to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(newDir, "m1")); !os.IsNotExist(err) {
		t.Errorf("expected new/m1 to no longer exist")
	}
	if _, err := os.Stat(filepath.Join(newDir, "m2")); err != nil {
		t.Errorf("expected new/m2 to remain: %v", err)
	}
}
