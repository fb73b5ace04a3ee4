package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFSWriter_WriteAndChecksum(t *testing.T) {
	w, err := NewFSWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSWriter: %v", err)
	}

	data := []byte("<html>evidence</html>")
	ref, err := w.Write(context.Background(), "sess-1", "page-1", ArtifactVisibleText, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ref.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", ref.Size, len(data))
	}
	if len(ref.Checksum) != 64 {
		t.Errorf("Checksum = %q, want 64 hex chars", ref.Checksum)
	}

	path := filepath.Join(w.root, "sess-1", "page-1.visible_text.txt")
	if got, err := os.ReadFile(path); err != nil || string(got) != string(data) {
		t.Errorf("stored file = (%q, %v)", got, err)
	}
	if ref.URI != "file://"+path {
		t.Errorf("URI = %q", ref.URI)
	}
}

func TestFSWriter_RejectsEmptyPayload(t *testing.T) {
	w, err := NewFSWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSWriter: %v", err)
	}
	if _, err := w.Write(context.Background(), "s", "p", ArtifactScreenshot, nil); err == nil {
		t.Error("empty payload accepted")
	}
}

func TestFSWriter_RejectsUnknownKind(t *testing.T) {
	w, err := NewFSWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSWriter: %v", err)
	}
	if _, err := w.Write(context.Background(), "s", "p", ArtifactKind("bogus"), []byte("x")); err == nil {
		t.Error("unknown kind accepted")
	}
}
