package domain

import "context"

// BlobStore is the external object store holding profile photos. Uploads
// are keyed by member identifier; the store exposes an on-the-fly image
// transform behind a URL-rewriting convention.
type BlobStore interface {
	// UploadPhoto stores data at path (upsert) and returns the public URL.
	UploadPhoto(ctx context.Context, path, contentType string, data []byte) (string, error)
	// ThumbnailURL rewrites a public object URL into its transform variant.
	ThumbnailURL(publicURL string, width, quality int) string
	// FetchThumbnail downloads the transformed image bytes.
	FetchThumbnail(ctx context.Context, publicURL string, width, quality int) ([]byte, error)
}
