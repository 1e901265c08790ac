package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type SupabaseStoreConfig struct {
	ProjectURL string
	ServiceKey string
	Bucket     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// SupabaseStore writes objects through the storage REST API. Uploads never
// overwrite: a filename collision is an error, which keeps artifact URLs
// immutable once published.
type SupabaseStore struct {
	projectURL string
	serviceKey string
	bucket     string
	timeout    time.Duration
	httpClient *http.Client
}

func NewSupabaseStore(config SupabaseStoreConfig) *SupabaseStore {
	if strings.TrimSpace(config.Bucket) == "" {
		config.Bucket = "dreamcard-images"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	return &SupabaseStore{
		projectURL: strings.TrimSuffix(strings.TrimSpace(config.ProjectURL), "/"),
		serviceKey: strings.TrimSpace(config.ServiceKey),
		bucket:     config.Bucket,
		timeout:    config.Timeout,
		httpClient: config.HTTPClient,
	}
}

func (s *SupabaseStore) Available() bool {
	return s.projectURL != "" && s.serviceKey != ""
}

func (s *SupabaseStore) UploadBytes(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if !s.Available() {
		return "", fmt.Errorf("%w: supabase store not configured", ErrStorage)
	}
	cleanName, err := sanitizeKey(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload for %s", ErrStorage, cleanName)
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "image/png"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.projectURL, s.bucket, cleanName)
	request, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: create upload request: %v", ErrStorage, err)
	}
	request.Header.Set("Authorization", "Bearer "+s.serviceKey)
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Cache-Control", "max-age=3600")
	request.Header.Set("x-upsert", "false")

	response, err := s.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %v", ErrStorage, cleanName, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 700))
		return "", fmt.Errorf("%w: upload %s: status %d: %s",
			ErrStorage, cleanName, response.StatusCode, strings.TrimSpace(string(body)))
	}

	return s.PublicURL(cleanName), nil
}

// UploadFromURL fetches a provider-hosted image and re-uploads it. Provider
// output URLs expire, so artifacts must be copied before the job finishes.
func (s *SupabaseStore) UploadFromURL(ctx context.Context, sourceURL string, filename string) (string, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return "", fmt.Errorf("%w: source url is required", ErrStorage)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, sourceURL, nil)
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

	contentType := response.Header.Get("Content-Type")
	return s.UploadBytes(ctx, filename, data, contentType)
}

// PublicURL returns the stable public URL for an object in the bucket.
func (s *SupabaseStore) PublicURL(filename string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.projectURL, s.bucket, filename)
}
