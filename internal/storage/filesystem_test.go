package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), "https://artifacts.example")
	if err != nil {
		t.Fatalf("create file store: %v", err)
	}
	return store
}

func TestFileStoreUploadBytes(t *testing.T) {
	store := newTestFileStore(t)

	url, err := store.UploadBytes(context.Background(), "proj-1/panel-0.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("expected upload success: %v", err)
	}
	if url != "https://artifacts.example/proj-1/panel-0.png" {
		t.Fatalf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(store.BasePath(), "proj-1", "panel-0.png"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("stored content = %q", data)
	}
}

func TestFileStoreRejectsOverwrite(t *testing.T) {
	store := newTestFileStore(t)

	if _, err := store.UploadBytes(context.Background(), "proj-1/panel-0.png", []byte("first"), ""); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	_, err := store.UploadBytes(context.Background(), "proj-1/panel-0.png", []byte("second"), "")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage for collision", err)
	}
}

func TestFileStoreRejectsTraversalKeys(t *testing.T) {
	store := newTestFileStore(t)

	for _, key := range []string{"", "../escape.png", "a/../../escape.png"} {
		if _, err := store.UploadBytes(context.Background(), key, []byte("x"), ""); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestFileStoreUploadFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("fetched-bytes"))
	}))
	defer server.Close()

	store := newTestFileStore(t)
	url, err := store.UploadFromURL(context.Background(), server.URL+"/source.png", "proj-2/panel-1.png")
	if err != nil {
		t.Fatalf("expected upload success: %v", err)
	}
	if url != "https://artifacts.example/proj-2/panel-1.png" {
		t.Fatalf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(store.BasePath(), "proj-2", "panel-1.png"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "fetched-bytes" {
		t.Fatalf("stored content = %q", data)
	}
}

func TestFileStoreUploadFromURLPropagatesFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := newTestFileStore(t)
	if _, err := store.UploadFromURL(context.Background(), server.URL+"/missing.png", "proj-3/panel-0.png"); !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
}
