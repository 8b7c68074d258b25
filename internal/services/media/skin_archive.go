package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

const skinPrefix = "skins/"

// SkinKey names the archived skin photo objectID of a participant.
func SkinKey(userID int64, objectID, contentType string) string {
	return skinPrefix + strconv.FormatInt(userID, 10) + "/" + objectID + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// SkinArchive keeps reviewed skin photos in a MinIO bucket. The bucket is
// created on the first upload.
type SkinArchive struct {
	client *minio.Client
	bucket string

	mu    sync.Mutex
	ready bool
}

func NewSkinArchive(client *minio.Client, bucket string) *SkinArchive {
	return &SkinArchive{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

func (a *SkinArchive) prepare(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check skin bucket %q: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create skin bucket %q: %w", a.bucket, err)
		}
	}
	a.ready = true
	return nil
}

// Store uploads the skin photo of userID and returns its object key.
func (a *SkinArchive) Store(ctx context.Context, userID int64, objectID string, photo []byte, contentType string) (string, error) {
	if a.client == nil || a.bucket == "" {
		return "", ErrDisabled
	}
	if userID <= 0 || objectID == "" || len(photo) == 0 {
		return "", ErrValidation
	}
	if err := a.prepare(ctx); err != nil {
		return "", err
	}

	key := SkinKey(userID, objectID, contentType)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(photo), int64(len(photo)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"participant": strconv.FormatInt(userID, 10)},
	})
	if err != nil {
		return "", fmt.Errorf("upload skin of user %d: %w", userID, err)
	}
	return key, nil
}

// Link signs a short-lived URL that opens the photo inline in a browser.
func (a *SkinArchive) Link(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if a.client == nil {
		return "", ErrDisabled
	}
	if !strings.HasPrefix(key, skinPrefix) {
		return "", ErrValidation
	}

	params := url.Values{}
	params.Set("response-content-disposition", "inline")
	signed, err := a.client.PresignedGetObject(ctx, a.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("sign skin link: %w", err)
	}
	return signed.String(), nil
}

// Delete removes an archived photo. Keys outside the archive are ignored.
func (a *SkinArchive) Delete(ctx context.Context, key string) error {
	if a.client == nil || !strings.HasPrefix(key, skinPrefix) {
		return nil
	}
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove skin %s: %w", key, err)
	}
	return nil
}
