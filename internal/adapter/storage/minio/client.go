package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/GoArmGo/ContactsApp/internal/config"
)

const bucketWaitTimeout = 30 * time.Second

// Options — параметры подключения к S3-совместимому хранилищу.
type Options struct {
	Endpoint        string // host:port без схемы
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
}

// OptionsFromConfig берёт параметры MINIO_* из конфигурации приложения.
func OptionsFromConfig(cfg *appconfig.Config) Options {
	return Options{
		Endpoint:        cfg.MinioEndpoint,
		AccessKeyID:     cfg.MinioAccessKeyID,
		SecretAccessKey: cfg.MinioSecretAccessKey,
		BucketName:      cfg.MinioBucketName,
		Region:          cfg.MinioRegion,
		UseSSL:          cfg.MinioUseSSL,
	}
}

func (o Options) baseURL() string {
	if strings.HasPrefix(o.Endpoint, "http://") || strings.HasPrefix(o.Endpoint, "https://") {
		return strings.TrimRight(o.Endpoint, "/")
	}
	if o.UseSSL {
		return "https://" + o.Endpoint
	}
	return "http://" + o.Endpoint
}

// Client — архив событий в MinIO (S3-совместимое хранилище).
type Client struct {
	s3Client   *s3.Client
	uploader   *manager.Uploader
	bucketName string
	baseURL    string
	region     string
	logger     *slog.Logger
}

// New собирает S3-клиент с path-style адресацией; к сети не обращается.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	if opts.AccessKeyID == "" || opts.SecretAccessKey == "" || opts.BucketName == "" || opts.Endpoint == "" || opts.Region == "" {
		return nil, errors.New("MinIO endpoint, credentials, bucket and region must be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for MinIO: %w", err)
	}

	baseURL := opts.baseURL()
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(baseURL)
		o.UsePathStyle = true
	})

	return &Client{
		s3Client:   s3Client,
		uploader:   manager.NewUploader(s3Client),
		bucketName: opts.BucketName,
		baseURL:    baseURL,
		region:     opts.Region,
		logger:     logger,
	}, nil
}

// NewMinioClient создаёт клиент по конфигурации и убеждается, что бакет существует.
func NewMinioClient(ctx context.Context, cfg *appconfig.Config, logger *slog.Logger) (*Client, error) {
	c, err := New(ctx, OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// EnsureBucket создаёт бакет, если его нет, и ждёт его готовности.
func (c *Client) EnsureBucket(ctx context.Context) error {
	headCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.s3Client.HeadBucket(headCtx, &s3.HeadBucketInput{Bucket: aws.String(c.bucketName)})
	if err == nil {
		c.logger.Info("bucket already exists", "bucket", c.bucketName)
		return nil
	}

	c.logger.Info("bucket not found, creating", "bucket", c.bucketName, "head_error", err)

	input := &s3.CreateBucketInput{Bucket: aws.String(c.bucketName)}
	// us-east-1 задаётся без LocationConstraint
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}
	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if !errors.As(err, &owned) {
			return fmt.Errorf("failed to create bucket %q: %w", c.bucketName, err)
		}
	}

	waiter := s3.NewBucketExistsWaiter(c.s3Client)
	if err := waiter.Wait(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucketName)}, bucketWaitTimeout); err != nil {
		return fmt.Errorf("failed waiting for bucket %q: %w", c.bucketName, err)
	}

	c.logger.Info("bucket created", "bucket", c.bucketName)
	return nil
}

// UploadFile загружает объект и возвращает его URL.
func (c *Client) UploadFile(ctx context.Context, objectKey string, fileContent io.Reader, contentType string) (string, error) {
	start := time.Now()
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(objectKey),
		Body:        fileContent,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", objectKey, c.bucketName, err)
	}

	c.logger.Debug("object uploaded",
		"bucket", c.bucketName,
		"key", objectKey,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return c.ObjectURL(objectKey), nil
}

// ObjectURL — адрес объекта в path-style виде.
func (c *Client) ObjectURL(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucketName, objectKey)
}
