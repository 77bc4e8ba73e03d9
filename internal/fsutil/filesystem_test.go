package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_CreateAll(t *testing.T) {
	fsys := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "out", "nested", "series.csv")

	w, err := CreateAll(fsys, path)
	if err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}
	if _, err := io.WriteString(w, "time_min,rate\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "time_min,rate\n" {
		t.Errorf("got %q", data)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.WriteFile("/cfg.json", []byte(`{"base_rate":0.05}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := mfs.ReadFile("/cfg.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `{"base_rate":0.05}` {
		t.Errorf("got %q", data)
	}

	// Returned slices are copies.
	data[0] = 'X'
	again, _ := mfs.ReadFile("/cfg.json")
	if again[0] != '{' {
		t.Error("ReadFile exposed internal buffer")
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_, err := mfs.ReadFile("/missing")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryFileSystem_CreateCommitsOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := CreateAll(mfs, "/reports/run.json")
	if err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}
	if _, err := mfs.Create("/reports"); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("Create over the parent directory err = %v, want fs.ErrInvalid", err)
	}
	if _, err := w.Write([]byte("{}")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if data, _ := mfs.ReadFile("/reports/run.json"); len(data) != 0 {
		t.Errorf("data visible before Close: %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if data, _ := mfs.ReadFile("/reports/run.json"); string(data) != "{}" {
		t.Errorf("got %q after Close", data)
	}

	if _, err := w.Write([]byte("x")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("write after close err = %v", err)
	}
	if got := mfs.Files(); len(got) != 1 || got[0] != filepath.Clean("/reports/run.json") {
		t.Errorf("Files() = %v", got)
	}
}

func TestMemoryFileSystem_MkdirOverFile(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/a", nil, 0o644)
	if err := mfs.MkdirAll("/a/b", 0o755); !errors.Is(err, fs.ErrExist) {
		t.Errorf("MkdirAll over file err = %v, want fs.ErrExist", err)
	}
	if _, err := mfs.Create("/a/b"); err != nil {
		t.Errorf("failed MkdirAll left a partial directory chain: %v", err)
	}
}
