package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectGetter is the subset of the S3 client the adapter uses
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Adapter reads tenant exports from an S3-compatible bucket
// (AWS S3, MinIO, RustFS).
type S3Adapter struct {
	client ObjectGetter
	bucket string
	prefix string
	opts   []ParserOption
	logger *zap.Logger
}

// S3Option is a functional option for S3Adapter
type S3Option func(*S3Adapter)

// WithS3Logger sets the adapter logger
func WithS3Logger(logger *zap.Logger) S3Option {
	return func(a *S3Adapter) {
		a.logger = logger
	}
}

// WithS3Parser passes parser options to every read
func WithS3Parser(opts ...ParserOption) S3Option {
	return func(a *S3Adapter) {
		a.opts = append(a.opts, opts...)
	}
}

// NewS3Adapter builds an S3 client from configuration.
// Static credentials are used when an access key is configured; otherwise
// the default AWS credential chain applies.
func NewS3Adapter(ctx context.Context, cfg *config.StorageConfig, opts ...S3Option) (*S3Adapter, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewS3AdapterWithClient(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

// NewS3AdapterWithClient wraps an existing client
func NewS3AdapterWithClient(client ObjectGetter, bucket, prefix string, opts ...S3Option) *S3Adapter {
	a := &S3Adapter{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the object key a tenant's table is read from
func (a *S3Adapter) Key(tenantID uuid.UUID, table syncrun.LogicalTable) string {
	return path.Join(a.prefix, tenantID.String(), table.String()+".csv")
}

// LoadRows implements syncrun.SourceAdapter
func (a *S3Adapter) LoadRows(ctx context.Context, tenantID uuid.UUID, table syncrun.LogicalTable) ([]syncrun.Row, error) {
	key := a.Key(tenantID, table)

	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			a.logger.Debug("Source table absent",
				zap.String("tenant_id", tenantID.String()),
				zap.String("table", table.String()),
				zap.String("key", key),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", a.bucket, key, err)
	}
	defer out.Body.Close()

	rows, err := ParseRows(out.Body, a.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s3://%s/%s: %w", a.bucket, key, err)
	}
	return rows, nil
}

// Ensure S3Adapter implements syncrun.SourceAdapter
var _ syncrun.SourceAdapter = (*S3Adapter)(nil)
