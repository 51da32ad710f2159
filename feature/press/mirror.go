package press

import (
	"context"
	"fmt"
	"os"
	"path"

	"songlib/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Mirror copies finished artifacts to object storage so a CDN or a second
// instance can serve them. The local build directory stays the primary
// copy; every mirror operation is best-effort from the cache's point of
// view.
type Mirror struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewMirror creates an artifact mirror.
func NewMirror(client storage.Client, bucket string, logger *zap.Logger) *Mirror {
	return &Mirror{client: client, bucket: bucket, logger: logger}
}

// EnsureBucket creates the mirror bucket if it does not exist yet.
func (m *Mirror) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	m.logger.Info("Created artifact mirror bucket", zap.String("bucket", m.bucket))
	return nil
}

// Upload pushes one rendered artifact to the bucket.
func (m *Mirror) Upload(ctx context.Context, songID, artifactPath string) error {
	f, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}

	_, err = m.client.PutObject(ctx, m.bucket, objectName(songID), f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return fmt.Errorf("upload artifact: %w", err)
	}
	return nil
}

// Remove deletes a song's mirrored artifact.
func (m *Mirror) Remove(ctx context.Context, songID string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectName(songID), minio.RemoveObjectOptions{})
}

func objectName(songID string) string {
	return path.Join(songID, ArtifactFile)
}
