package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/churnviz-cli/internal/utils"
)

func TestWriteFileIn_CreatesDirAndReplacesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	path, err := utils.WriteFileIn(dir, "a.txt", []byte("one"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := utils.WriteFileIn(dir, "a.txt", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "two" {
		t.Fatalf("got %q want %q", b, "two")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSafeWriteFile_MissingDir(t *testing.T) {
	err := utils.SafeWriteFile(filepath.Join(t.TempDir(), "nope", "x.txt"), []byte("x"))
	if err == nil {
		t.Fatalf("expected error writing into a missing directory")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("unexpected json: %s", b)
	}
}
