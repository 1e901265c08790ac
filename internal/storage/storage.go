// Package storage persists rendered panel images and exposes their public
// URLs. The Supabase adapter is the production backend; FileStore covers
// development and test environments without object storage.
package storage

import (
	"context"
	"errors"
)

var ErrStorage = errors.New("artifact storage failed")

// ArtifactStore copies a provider-hosted image into durable storage under a
// deterministic filename and returns a stable public URL for it.
type ArtifactStore interface {
	UploadBytes(ctx context.Context, filename string, data []byte, contentType string) (string, error)
	UploadFromURL(ctx context.Context, sourceURL string, filename string) (string, error)
	Available() bool
}
