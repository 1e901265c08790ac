package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore persists artifacts onto the local filesystem and serves their
// URLs under a configured public base. It covers development and test
// environments where object storage is not available.
type FileStore struct {
	basePath   string
	publicBase string
	httpClient *http.Client
}

func NewFileStore(basePath, publicBase string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	publicBase = strings.TrimSuffix(strings.TrimSpace(publicBase), "/")
	if publicBase == "" {
		publicBase = "file://" + basePath
	}
	return &FileStore{
		basePath:   basePath,
		publicBase: publicBase,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (s *FileStore) Available() bool {
	return s != nil && s.basePath != ""
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

func (s *FileStore) UploadBytes(ctx context.Context, filename string, data []byte, _ string) (string, error) {
	if !s.Available() {
		return "", fmt.Errorf("%w: no store configured", ErrStorage)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanName, err := sanitizeKey(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload for %s", ErrStorage, cleanName)
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanName))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: ensure directory: %v", ErrStorage, err)
	}
	if _, statErr := os.Stat(fullPath); statErr == nil {
		return "", fmt.Errorf("%w: %s already exists", ErrStorage, cleanName)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write file: %v", ErrStorage, err)
	}
	return s.publicBase + "/" + cleanName, nil
}

func (s *FileStore) UploadFromURL(ctx context.Context, sourceURL string, filename string) (string, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return "", fmt.Errorf("%w: source url is required", ErrStorage)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create fetch request: %v", ErrStorage, err)
	}
	response, err := s.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", ErrStorage, sourceURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", fmt.Errorf("%w: fetch %s: status %d", ErrStorage, sourceURL, response.StatusCode)
	}
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrStorage, sourceURL, err)
	}
	return s.UploadBytes(ctx, filename, data, response.Header.Get("Content-Type"))
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("invalid key")
	}
	return cleaned, nil
}
