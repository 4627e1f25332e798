// write_test.go tests [Write] and [WriteFunc] for basic correctness,
// concurrent safety across distinct files, and cleanup of temp files on
// failure.

package atomicfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// tempLeftovers returns the names of temp files remaining in dir.
func tempLeftovers(t *testing.T, dir string) []string {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	var out []string
	for _, e := range entries {
		if matched, _ := filepath.Match("*.tmp.*", e.Name()); matched {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestWriteBasic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	data := []byte(`{"version":1}`)

	if err := Write(path, data, 0o644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestWriteConcurrent(t *testing.T) {
	dir := t.TempDir()
	const n = 16

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func(i int) {
			defer wg.Done()
			path := filepath.Join(dir, fmt.Sprintf("palette-%02d.txt", i))
			if err := Write(path, []byte(fmt.Sprintf("#%06x", i)), 0o644); err != nil {
				t.Errorf("concurrent Write %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	for i := range n {
		path := filepath.Join(dir, fmt.Sprintf("palette-%02d.txt", i))
		want := fmt.Sprintf("#%06x", i)
		got, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("ReadFile %d: %v", i, err)
			continue
		}
		if string(got) != want {
			t.Errorf("file %d: got %q, want %q", i, got, want)
		}
	}

	if left := tempLeftovers(t, dir); len(left) > 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

func TestWrite_OverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := Write(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	if err := Write(path, []byte("updated"), 0o644); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "updated" {
		t.Errorf("content = %q, want %q", got, "updated")
	}
}

func TestWrite_Permissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "perms.txt")

	if err := Write(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm()&0o600 == 0 {
		t.Errorf("permissions = %o, expected at least owner rw", info.Mode().Perm())
	}
}

func TestWriteCleanupOnFailure(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "no-such-dir", "file.txt")

	if err := Write(badPath, []byte("data"), 0o644); err == nil {
		t.Fatal("expected error writing to non-existent directory")
	}
}

func TestWriteFuncStreams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	err := WriteFunc(path, 0o644, func(w io.Writer) error {
		for _, s := range []string{"#ff0000ff\n", "#00ff00ff\n"} {
			if _, err := io.WriteString(w, s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WriteFunc: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "#ff0000ff\n#00ff00ff\n" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteFuncErrorKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.txt")
	if err := Write(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("Write: %v", err)
	}

	boom := errors.New("encoder failed")
	err := WriteFunc(path, 0o644, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WriteFunc error = %v, want wrapping %v", err, boom)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "original" {
		t.Errorf("content = %q, want original preserved", got)
	}
	if left := tempLeftovers(t, dir); len(left) > 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}
