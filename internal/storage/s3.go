// Package storage uploads cover images to the external asset host.
package storage

import (
	"bytes"
	"context"
	"fmt"

	appconfig "inkwell/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// UploadResult identifies a stored asset: the stable public URL readers fetch
// and the object key (public ID) used to address the asset later.
type UploadResult struct {
	URL      string
	PublicID string
}

// AssetStore is the contract the post service uses for cover images.
type AssetStore interface {
	// Upload transcodes and stores an image payload, returning its URL and key.
	Upload(ctx context.Context, content []byte) (*UploadResult, error)
	// Delete removes an asset by its public ID. Exposed but not invoked by the
	// post lifecycle; see the orphaned-asset notes in the service.
	Delete(ctx context.Context, publicID string) error
}

// s3API is the subset of the S3 client the store uses; tests stub it.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store stores cover images in an S3 bucket under a fixed logical folder.
type S3Store struct {
	client s3API
	bucket string
	region string
	folder string
}

// NewS3Store builds an S3-backed store from application configuration.
func NewS3Store(cfg *appconfig.Config) (*S3Store, error) {
	awsConfig, err := awscfg.LoadDefaultConfig(context.Background(),
		awscfg.WithRegion(cfg.S3Region),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.S3Bucket,
		region: cfg.S3Region,
		folder: cfg.AssetFolder,
	}, nil
}

// NewS3StoreWithClient builds a store around an existing client; used by tests.
func NewS3StoreWithClient(client s3API, bucket, region, folder string) *S3Store {
	return &S3Store{client: client, bucket: bucket, region: region, folder: folder}
}

// Upload validates and transcodes the payload (webp, bounded dimensions,
// fixed quality) and writes it under the configured folder.
func (s *S3Store) Upload(ctx context.Context, content []byte) (*UploadResult, error) {
	transcoded, err := Transcode(content)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.webp", s.folder, uuid.NewString())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(transcoded),
		ContentType: aws.String("image/webp"),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading asset: %w", err)
	}

	return &UploadResult{
		URL:      fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
		PublicID: key,
	}, nil
}

// Delete removes the object for publicID from the bucket.
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("deleting asset %s: %w", publicID, err)
	}
	return nil
}
