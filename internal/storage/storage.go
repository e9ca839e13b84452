package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// ObjectStorage defines the object operations the media host contract needs.
// Reads never go through the API server; clients fetch objects from the
// public retrieval URL directly.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// MediaStore wraps an ObjectStorage backend with the media-host contract the
// content handlers rely on: upload-by-stream returning a stable retrieval
// URL, and delete keyed off a previously returned URL.
type MediaStore struct {
	backend ObjectStorage
	folder  string
	baseURL string
	log     zerolog.Logger
}

// NewMediaStore constructs a MediaStore over the provided backend. folder is
// the key prefix for all uploads; baseURL is the public retrieval prefix
// recorded in stored URLs.
func NewMediaStore(backend ObjectStorage, folder, baseURL string, log zerolog.Logger) *MediaStore {
	return &MediaStore{
		backend: backend,
		folder:  strings.Trim(folder, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// EnsureBucket ensures the configured bucket exists.
func (s *MediaStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Upload stores the payload under the media folder and returns its retrieval
// URL. name must already be a safe object name (see ObjectName).
func (s *MediaStore) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	key := name
	if s.folder != "" {
		key = s.folder + "/" + name
	}
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.urlFor(key), nil
}

// DeleteByURL removes the object a previously returned URL points at. The
// lookup key is derived from the URL; when the stored object name and the URL
// disagree on space encoding (underscore vs %20 vs a literal space), each
// candidate is tried in turn before giving up.
func (s *MediaStore) DeleteByURL(ctx context.Context, rawURL string) error {
	key, err := DeriveKey(rawURL, s.folder)
	if err != nil {
		return fmt.Errorf("derive media key from %q: %w", rawURL, err)
	}

	var lastErr error
	for _, candidate := range KeyVariants(key) {
		if err := s.backend.Delete(ctx, candidate); err != nil {
			s.log.Warn().Str("key", candidate).Err(err).Msg("media delete attempt failed")
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("delete media object %q: %w", key, lastErr)
}

func (s *MediaStore) urlFor(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	// Without a configured public base the bucket name anchors the URL.
	return "/" + s.backend.Bucket() + "/" + key
}
