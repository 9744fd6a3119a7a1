package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appconfig "github.com/xxxsen/super3/internal/config"
)

const defaultContentType = "application/octet-stream"

// s3Source serves rom archives from one bucket of an S3 compatible store.
type s3Source struct {
	api    *s3.Client
	bucket string
}

// NewS3Client connects to the bucket described by cfg. Static keys are used
// when both halves are set, otherwise the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg appconfig.S3Config) (Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := normalizeEndpoint(cfg.Host)
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return &s3Source{api: api, bucket: cfg.Bucket}, nil
}

// List returns every object below prefix.
func (c *s3Source) List(ctx context.Context, prefix string) ([]Object, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(c.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	var out []Object
	pages := s3.NewListObjectsV2Paginator(c.api, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", c.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			out = append(out, Object{Key: key, Size: aws.ToInt64(obj.Size)})
		}
	}
	return out, nil
}

// UploadFile puts filePath at key. An empty contentType is guessed from the
// file extension.
func (c *s3Source) UploadFile(ctx context.Context, key, filePath string, contentType string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open upload %s: %w", filePath, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat upload %s: %w", filePath, err)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filePath)))
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	if _, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
	}); err != nil {
		return fmt.Errorf("put %s/%s: %w", c.bucket, key, err)
	}
	logutil.GetLogger(ctx).Debug("uploaded object",
		zap.String("key", key), zap.String("size", humanize.Bytes(uint64(info.Size()))))
	return nil
}

// DownloadToFile writes the object at key to destPath, creating its parent
// directory. Callers that need atomic replacement pass a scratch name.
func (c *s3Source) DownloadToFile(ctx context.Context, key, destPath string) error {
	res, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", c.bucket, key, err)
	}
	defer res.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", destPath, err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	n, err := io.Copy(out, res.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	logutil.GetLogger(ctx).Debug("downloaded object",
		zap.String("key", key), zap.String("size", humanize.Bytes(uint64(n))))
	return nil
}

// normalizeEndpoint turns a bare host into an https URL. Values that
// already carry a scheme pass through.
func normalizeEndpoint(host string) string {
	host = strings.TrimSpace(host)
	if host == "" || strings.Contains(host, "://") {
		return host
	}
	return "https://" + strings.TrimSuffix(host, "/")
}
