// Package storage holds the MinIO client and the audio mirror that
// copies provider-hosted tracks into our own bucket.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mantrafm/config"
	"mantrafm/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio connects to the MinIO server and makes sure the audio
// bucket exists.
func InitMinio(cfg *config.Config) error {
	logger.Info("Connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized")
	return nil
}

// GetMinioClient returns the shared MinIO client, nil before InitMinio.
func GetMinioClient() *minio.Client {
	return minioClient
}

// AudioMirror downloads provider audio and re-hosts it from our bucket,
// so tracks survive provider-side expiry.
type AudioMirror struct {
	client *minio.Client
	bucket string
	http   *http.Client
}

// NewAudioMirror builds a mirror over the shared client.
func NewAudioMirror(cfg *config.Config) *AudioMirror {
	return &AudioMirror{
		client: minioClient,
		bucket: cfg.MinioBucket,
		http:   &http.Client{Timeout: 2 * time.Minute},
	}
}

// Mirror fetches audioURL and stores it under audio/<uuid>.mp3,
// returning the locally served path.
func (m *AudioMirror) Mirror(ctx context.Context, audioURL string) (string, error) {
	if m.client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio download returned status %d", resp.StatusCode)
	}

	objectName := fmt.Sprintf("audio/%s.mp3", uuid.New().String())
	_, err = m.client.PutObject(ctx, m.bucket, objectName, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store audio in MinIO: %w", err)
	}

	logger.Info("Mirrored audio into object storage",
		logger.String("object", objectName),
		logger.String("source", audioURL))
	return "/" + objectName, nil
}
