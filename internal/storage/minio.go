// Package storage archives document export snapshots in S3-compatible
// object storage. Persistence of snapshots is a collaborator concern; the
// document core never touches this package.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/patchdoc/patchdoc/internal/config"
)

// SnapshotStore is a thin wrapper around the minio client that stores one
// JSON object per snapshot, keyed <docID>/<timestamp>.json.
type SnapshotStore struct {
	client *minio.Client
	bucket string
}

// NewSnapshotStore creates the client and ensures the bucket exists.
func NewSnapshotStore(cfg config.MinIOConfig) (*SnapshotStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &SnapshotStore{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// tolerate a bucket created by a previous run
		exists, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exists {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Put uploads one export payload and returns the object key.
func (s *SnapshotStore) Put(ctx context.Context, docID, payload string) (string, error) {
	key := fmt.Sprintf("%s/%s.json", docID, time.Now().UTC().Format("20060102T150405.000000000"))
	r := strings.NewReader(payload)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, int64(len(payload)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return key, nil
}

// Get returns a reader over a stored snapshot.
func (s *SnapshotStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PresignedURL returns a presigned GET URL valid for the given duration.
func (s *SnapshotStore) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, url.Values{})
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
