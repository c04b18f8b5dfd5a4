package portfolio

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the settings required to connect to an S3-compatible bucket.
type S3Config struct {
	BucketName      string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Source downloads images stored under a key prefix of the configured bucket.
type S3Source struct {
	bucket     string
	client     *s3.Client
	downloader *manager.Downloader
}

// NewS3Source initializes the S3 client with a custom endpoint for S3-compatible storage.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Source{
		bucket:     cfg.BucketName,
		client:     client,
		downloader: manager.NewDownloader(client),
	}, nil
}

// Fetch lists req.Directory as a key prefix and downloads every image object below it.
func (s *S3Source) Fetch(ctx context.Context, req Request) ([]Item, error) {
	prefix := strings.TrimPrefix(req.Directory, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	items := []Item{}
	for paginator.HasMorePages() && len(items) < MaxItems {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			if len(items) >= MaxItems {
				break
			}

			key := aws.ToString(obj.Key)
			size := aws.ToInt64(obj.Size)
			if size <= 0 || size > MaxImageSize {
				continue
			}

			mimeType, ok := ImageMIME(key)
			if !ok {
				continue
			}

			buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
			if _, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			}); err != nil {
				return nil, fmt.Errorf("download %s: %w", key, err)
			}

			items = append(items, Item{
				FileName: path.Base(key),
				MimeType: mimeType,
				Data:     buf.Bytes(),
			})
		}
	}

	return items, nil
}
