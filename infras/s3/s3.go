package s3

//go:generate go run go.uber.org/mock/mockgen -source=./s3.go -destination=./mocks/s3_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"facilitydesk/config"
	"facilitydesk/infras/otel"
	"facilitydesk/shared/constant"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const (
	otelAttrObjectKey = "object_key"
	otelAttrBucket    = "bucket"

	uriScheme     = "s3://"
	defaultRegion = "auto"
)

var ErrInvalidURI = errors.New("not an s3:// uri")

// Object is a downloaded bucket object.
type Object struct {
	Key         string
	ContentType string
	Body        []byte
}

// S3 reads image payloads out of a bucket for the batch import.
type S3 interface {
	GetObject(ctx context.Context, uri string) (Object, error)
}

// ObjectGetter is the part of the S3 client used here.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Impl struct {
	client ObjectGetter
	config *config.Config
	otel   otel.Otel
}

// ParseURI splits s3://bucket/key. A bare key without the scheme is not a
// bucket reference.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, uriScheme)
	if !ok {
		return constant.Empty, constant.Empty, fmt.Errorf("%q: %w", uri, ErrInvalidURI)
	}

	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == constant.Empty || key == constant.Empty {
		return constant.Empty, constant.Empty, fmt.Errorf("%q: %w", uri, ErrInvalidURI)
	}

	return bucket, key, nil
}

// IsURI reports whether ref points into a bucket.
func IsURI(ref string) bool {
	return strings.HasPrefix(ref, uriScheme)
}

func (svc *s3Impl) GetObject(ctx context.Context, uri string) (object Object, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".GetObject")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	bucket, key, err := ParseURI(uri)
	if err != nil {
		return Object{}, err
	}

	scope.SetAttributes(map[string]any{
		otelAttrObjectKey: key,
		otelAttrBucket:    bucket,
	})

	out, err := svc.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("failed to get object from S3")

		return Object{}, fmt.Errorf("failed to get object %s: %w", uri, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return Object{}, fmt.Errorf("failed to read object %s: %w", uri, err)
	}

	return Object{
		Key:         path.Base(key),
		ContentType: aws.ToString(out.ContentType),
		Body:        body,
	}, nil
}

func NewWithClient(client ObjectGetter, config *config.Config, otel otel.Otel) S3 {
	return &s3Impl{
		client: client,
		config: config,
		otel:   otel,
	}
}

func New(config *config.Config, otel otel.Otel) S3 {
	endpoint := config.External.S3.APIEndpoint
	accessKeyID := config.External.S3.AccessKeyID
	secretAccessKey := config.External.S3.SecretAccessKey

	region := config.External.S3.Region
	if region == constant.Empty {
		region = defaultRegion
	}

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(region),
	}

	if accessKeyID != constant.Empty {
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	cfg, err := awsConfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		log.Err(err).Msg("Error loading AWS configuration")
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != constant.Empty {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(s3Client, config, otel)
}
