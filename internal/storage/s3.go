package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"houseprice/internal/keys"
	"houseprice/internal/models"
)

// Config holds the MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Service is a client for S3-compatible storage. It serves model artifacts
// and keeps the archive of prediction events.
type S3Service struct {
	client *minio.Client
}

// NewS3Service connects to the MinIO endpoint in cfg.
func NewS3Service(cfg Config) (*S3Service, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required settings: minio.endpoint, minio.access_key, minio.secret_key")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	log.Info().Str("endpoint", cfg.Endpoint).Msg("connected to MinIO")
	return &S3Service{client: minioClient}, nil
}

// CreateBucket makes bucketName unless it already exists.
func (s *S3Service) CreateBucket(ctx context.Context, bucketName string, location string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		err = s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// GetArtifact downloads a model artifact.
func (s *S3Service) GetArtifact(ctx context.Context, bucketName, objectKey string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	raw, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucketName, objectKey, err)
	}
	return raw, nil
}

// PutArtifact uploads a model artifact, replacing any previous version at the
// same key.
func (s *S3Service) PutArtifact(ctx context.Context, bucketName, objectKey string, raw []byte) error {
	_, err := s.client.PutObject(ctx, bucketName, objectKey, bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("failed to store artifact in S3: %w", err)
	}
	log.Info().Str("bucket", bucketName).Str("key", objectKey).Int("bytes", len(raw)).Msg("stored model artifact")
	return nil
}

// StoreEvent archives a single prediction event. An existing object at the
// same key is left untouched so redelivered events are idempotent.
func (s *S3Service) StoreEvent(ctx context.Context, bucketName string, event models.PredictionEvent) error {
	objectKey := keys.Prediction(event)

	_, err := s.client.StatObject(ctx, bucketName, objectKey, minio.StatObjectOptions{})
	if err == nil {
		log.Debug().Str("key", objectKey).Msg("prediction already archived, ignoring write")
		return nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to check for existing object: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction to JSON: %w", err)
	}

	_, err = s.client.PutObject(
		ctx,
		bucketName,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}

	log.Debug().Str("bucket", bucketName).Str("key", objectKey).Msg("archived prediction")
	return nil
}

// GetEvent reads an archived prediction event.
func (s *S3Service) GetEvent(ctx context.Context, bucketName string, objectKey string) (*models.PredictionEvent, error) {
	object, err := s.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	var event models.PredictionEvent
	if err := json.NewDecoder(object).Decode(&event); err != nil {
		return nil, fmt.Errorf("failed to decode JSON from stream: %w", err)
	}
	return &event, nil
}
