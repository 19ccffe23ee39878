package bridge

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/admindata/internal/common"
)

// S3API is the part of the S3 client used by S3Operation.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Operation reads an object whose key is built from a template with
// {0}, {1}, ... placeholders.
//
//	S3Operation{Client: c, Bucket: "reference", KeyTemplate: "countries/{0}.json"}
type S3Operation struct {
	Client      S3API
	Bucket      string
	KeyTemplate string
}

func (o S3Operation) Invoke(ctx context.Context, args ...string) (string, error) {
	key := expand(o.KeyTemplate, args, func(s string) string { return s })

	out, err := o.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 get %s/%s: %w", common.ErrNetworkFailure, o.Bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxPayloadSize))
	if err != nil {
		return "", fmt.Errorf("%w: s3 read %s/%s: %w", common.ErrNetworkFailure, o.Bucket, key, err)
	}
	return string(body), nil
}

// S3Config holds the connection settings of NewS3Client. Empty credentials
// fall back to the default AWS chain.
type S3Config struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Client builds an S3 client. A BaseEndpoint (e.g. MinIO) switches to
// path-style addressing.
func NewS3Client(ctx context.Context, c S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}
