package store

import (
	"bytes"
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
)

// BlobStore wraps the Supabase storage bucket holding generated images.
type BlobStore struct {
	client *storage_go.Client
	bucket string
}

func NewBlobStore(client *storage_go.Client, bucket string) *BlobStore {
	return &BlobStore{client: client, bucket: bucket}
}

const (
	pngContentType = "image/png"
	cacheControl   = "3600"
)

// Upload puts data under key in the bucket. The key carries no uniqueness
// guarantee beyond its timestamp component; collisions are accepted as
// negligible.
func (b *BlobStore) Upload(ctx context.Context, key string, data []byte) error {
	contentType := pngContentType
	control := cacheControl
	_, err := b.client.UploadFile(b.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &control,
	})
	if err != nil {
		return fmt.Errorf("upload %q to bucket %q: %w", key, b.bucket, err)
	}
	return nil
}

func (b *BlobStore) Remove(ctx context.Context, key string) error {
	if _, err := b.client.RemoveFile(b.bucket, []string{key}); err != nil {
		return fmt.Errorf("remove %q from bucket %q: %w", key, b.bucket, err)
	}
	return nil
}

// PublicURL resolves the public URL of an object in the bucket.
func (b *BlobStore) PublicURL(key string) string {
	return b.client.GetPublicUrl(b.bucket, key).SignedURL
}
