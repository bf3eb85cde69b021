package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	minioUsername = "admin"
	minioPassword = "password"
)

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	if testing.Short() {
		t.Skip("skipping minio integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func TestS3ObjectStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	endpoint := setupMinioContainer(t, ctx)

	cfg := S3ClientConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	}

	objectStore, err := NewS3ObjectStore(ctx, cfg, "models", "artifacts")
	require.NoError(t, err)

	// Creating the store a second time reuses the existing bucket.
	_, err = NewS3ObjectStore(ctx, cfg, "models", "artifacts")
	require.NoError(t, err)

	key := "sentiment_model_20250301_123045.gob"
	exists, err := objectStore.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = objectStore.GetObject(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	content := []byte("model bytes")
	require.NoError(t, objectStore.PutObject(ctx, key, bytes.NewReader(content)))

	exists, err = objectStore.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := objectStore.GetObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	assert.Equal(t, "s3://models/artifacts/"+key, objectStore.Location(key))
}
