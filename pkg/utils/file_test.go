package utils

import (
	"path/filepath"
	"testing"
)

func TestWriteFileCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans", "monday.md")

	if FileExists(path) {
		t.Fatal("file should not exist yet")
	}
	if err := WriteFile(path, "# Legs\n"); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if !FileExists(path) {
		t.Fatal("file should exist after write")
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Legs\n" {
		t.Errorf("content = %q", got)
	}

	if err := WriteFile(path, "# Back\n"); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	got, _ = ReadFile(path)
	if got != "# Back\n" {
		t.Errorf("content after overwrite = %q", got)
	}
}

func TestFileExistsIgnoresDirs(t *testing.T) {
	if FileExists(t.TempDir()) {
		t.Error("directory reported as file")
	}
}
