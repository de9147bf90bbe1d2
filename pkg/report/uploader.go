package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader ships run artifacts to an S3-compatible object store so result
// files outlive the machine the campaign ran on.
type Uploader struct {
	client *minio.Client
	bucket string
	region string
	log    Logger
}

// NewUploader connects to the object store and ensures the target bucket
// exists, creating it when missing.
func NewUploader(cfg UploadConfig, log Logger) (*Uploader, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("report: uploader endpoint cannot be empty")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("report: uploader bucket cannot be empty")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("report: connect object store: %w", err)
	}

	u := &Uploader{client: client, bucket: cfg.Bucket, region: cfg.Region, log: log}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := u.ensureBucketExists(ctx); err != nil {
		return nil, err
	}

	log.Info("connected to object store", nil, map[string]interface{}{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.Bucket,
		"secure":   cfg.UseSSL,
	})
	return u, nil
}

func (u *Uploader) ensureBucketExists(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("report: check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}

	u.log.Info("bucket does not exist, creating it", nil, map[string]interface{}{
		"bucket": u.bucket,
		"region": u.region,
	})
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region}); err != nil {
		return fmt.Errorf("report: create bucket %s: %w", u.bucket, err)
	}
	return nil
}

// UploadFile puts one local artifact into the bucket and returns its object
// key. A non-empty prefix (typically the run id) namespaces the key.
func (u *Uploader) UploadFile(ctx context.Context, path, prefix string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("report: open %s: %w", path, err)
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			u.log.Error("failed to close artifact file", err, map[string]interface{}{
				"path": path,
			})
		}
	}(file)

	stat, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("report: stat %s: %w", path, err)
	}

	key := filepath.Base(path)
	if prefix != "" {
		key = prefix + "/" + key
	}

	info, err := u.client.PutObject(ctx, u.bucket, key, file, stat.Size(), minio.PutObjectOptions{
		ContentType: contentTypeFor(path),
	})
	if err != nil {
		return "", fmt.Errorf("report: upload %s: %w", path, err)
	}

	u.log.Info("artifact uploaded", nil, map[string]interface{}{
		"bucket": u.bucket,
		"key":    key,
		"size":   info.Size,
	})
	return key, nil
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
