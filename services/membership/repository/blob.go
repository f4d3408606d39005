package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"mdpva/domain"

	"github.com/hashicorp/go-retryablehttp"
)

type blobStore struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
	bucket  string
}

// NewBlobStore talks to the hosted storage service over its REST surface.
// Objects land under a public bucket; thumbnails come from the render/image
// transform path with width/quality appended as query parameters.
func NewBlobStore() domain.BlobStore {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	bucket := os.Getenv("STORAGE_BUCKET")
	if bucket == "" {
		bucket = "member-photos"
	}

	return &blobStore{
		http:    client,
		baseURL: strings.TrimRight(os.Getenv("STORAGE_URL"), "/"),
		apiKey:  os.Getenv("STORAGE_SERVICE_KEY"),
		bucket:  bucket,
	}
}

func (bs *blobStore) UploadPhoto(ctx context.Context, path, contentType string, data []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", bs.baseURL, bs.bucket, path)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("could not build upload request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+bs.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "3600")
	req.Header.Set("x-upsert", "true")

	resp, err := bs.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("photo upload failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("photo upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", bs.baseURL, bs.bucket, path), nil
}

func (bs *blobStore) ThumbnailURL(publicURL string, width, quality int) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return publicURL
	}
	u.Path = strings.Replace(u.Path, "/object/public/", "/render/image/public/", 1)
	q := u.Query()
	q.Set("width", strconv.Itoa(width))
	q.Set("quality", strconv.Itoa(quality))
	u.RawQuery = q.Encode()
	return u.String()
}

func (bs *blobStore) FetchThumbnail(ctx context.Context, publicURL string, width, quality int) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		bs.ThumbnailURL(publicURL, width, quality), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build thumbnail request: %v", err)
	}

	resp, err := bs.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("thumbnail fetch failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thumbnail fetch failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
