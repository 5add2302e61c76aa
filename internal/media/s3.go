package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"nootboard/internal/domain"
)

// S3Config configures the S3-backed resolver. Endpoint may point at any
// S3-compatible store (MinIO included).
type S3Config struct {
	Region        string
	Endpoint      string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// S3Resolver copies the platform file into a bucket so the stored URL
// outlives the platform's retention.
type S3Resolver struct {
	transport  domain.ChatTransport
	client     *s3.Client
	bucket     string
	publicBase string
	httpClient *http.Client
}

// NewS3Resolver creates the resolver and its S3 client.
func NewS3Resolver(ctx context.Context, transport domain.ChatTransport, cfg S3Config) (*S3Resolver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
	}

	return &S3Resolver{
		transport:  transport,
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Resolve implements domain.MediaResolver: fetch the platform file and
// re-host it under a date-partitioned key.
func (r *S3Resolver) Resolve(ctx context.Context, fileRef string) (string, error) {
	srcURL, err := r.transport.FileURL(ctx, fileRef)
	if err != nil {
		return "", fmt.Errorf("resolve source url: %w", err)
	}

	data, contentType, err := r.download(ctx, srcURL)
	if err != nil {
		return "", fmt.Errorf("download media: %w", err)
	}

	key := storageKey()
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	return r.publicBase + "/" + key, nil
}

func (r *S3Resolver) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("source returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func storageKey() string {
	d := time.Now().UTC()
	return fmt.Sprintf("media/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.NewString())
}
