package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// memFile adapts a bytes.Reader to multipart.File.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func newMemFile(content string) memFile {
	return memFile{bytes.NewReader([]byte(content))}
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(filepath.Join(dir, "uploads"), 1<<20)
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}

	path, storedName, err := fm.SaveUpload(newMemFile("lecture notes"), "Notes Final.TXT")
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}

	if !strings.HasSuffix(storedName, ".txt") {
		t.Errorf("stored name should keep a lowercased extension: %q", storedName)
	}
	if strings.Contains(storedName, "Notes") {
		t.Errorf("stored name must not leak the original filename: %q", storedName)
	}
	if filepath.Dir(path) != fm.Dir() {
		t.Errorf("path %q not under uploads dir %q", path, fm.Dir())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "lecture notes" {
		t.Errorf("stored content: %q", data)
	}

	// A second save of the same filename gets its own name.
	_, storedName2, err := fm.SaveUpload(newMemFile("other"), "Notes Final.TXT")
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if storedName2 == storedName {
		t.Error("two uploads share a stored name")
	}
}

func TestSaveUploadSizeLimit(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir, 10)
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}

	path, _, err := fm.SaveUpload(newMemFile("this is well over ten bytes"), "big.txt")
	if err == nil {
		t.Fatal("expected size limit error")
	}
	if path != "" {
		t.Errorf("failed save should return no path, got %q", path)
	}

	// The partial file is cleaned up.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty uploads dir after failed save, got %d entries", len(entries))
	}
}

func TestSaveUploadNoExtension(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir, 0)
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}

	_, storedName, err := fm.SaveUpload(newMemFile("x"), "README")
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if strings.Contains(storedName, ".") {
		t.Errorf("extensionless upload should store without extension: %q", storedName)
	}
}
