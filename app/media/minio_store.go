package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL objects are served from. When empty the
	// bucket URL on the endpoint is used.
	PublicURL string
}

// MinioStore implements Store on MinIO or any S3-compatible server.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       zerolog.Logger
	now       func() time.Time
}

// NewMinioStore connects to the endpoint and creates the bucket if needed.
func NewMinioStore(ctx context.Context, opts MinioOptions, log zerolog.Logger) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
		log.Info().Str("bucket", opts.Bucket).Msg("created media bucket")
	}

	return &MinioStore{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: publicBase(opts),
		log:       log.With().Str("component", "media").Logger(),
		now:       time.Now,
	}, nil
}

func publicBase(opts MinioOptions) string {
	if opts.PublicURL != "" {
		return strings.TrimRight(opts.PublicURL, "/")
	}
	scheme := "http"
	if opts.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
}

// Upload validates and stores an image, returning where it can be fetched.
func (s *MinioStore) Upload(ctx context.Context, filename string, r io.Reader) (*Object, error) {
	img, err := ReadImage(filename, r, s.now().UTC())
	if err != nil {
		return nil, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, img.Key, img.Reader(), img.Size(), minio.PutObjectOptions{
		ContentType: img.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", img.Key, err)
	}
	s.log.Debug().Str("key", info.Key).Int64("size", info.Size).Msg("stored upload")

	return &Object{
		Key:         img.Key,
		URL:         s.publicURL + "/" + img.Key,
		ContentType: img.ContentType,
		Size:        img.Size(),
	}, nil
}
