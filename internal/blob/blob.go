// Package blob issues presigned URLs for large binary payloads (avatars,
// attachment uploads). These uploads bypass the document store entirely;
// access is gated by write privilege, the same gate that controls module
// sync.
package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/netx"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config holds the S3-compatible backend settings.
type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
}

// WriteGate mirrors authgate's narrow storage gate.
type WriteGate interface {
	HasWritePrivilege(ctx context.Context, subject *authn.Identity) bool
}

type Service struct {
	config Config
	auth   authn.Authenticator
	gate   WriteGate
}

func NewService(config Config, auth authn.Authenticator, gate WriteGate) *Service {
	return &Service{config: config, auth: auth, gate: gate}
}

func randomStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("users/%s/%d/%d/%d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *Service) authorize(ctx context.Context) (*authn.Identity, error) {
	subject := s.auth.Current()
	if subject == nil {
		return nil, common.ErrNotSignedIn
	}
	if !s.gate.HasWritePrivilege(ctx, subject) {
		return nil, common.ErrUnauthorized
	}
	return subject, nil
}

func (s *Service) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.AccessKey,
			s.config.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// PresignedPutURL returns a fresh object key and a URL the caller may PUT
// the payload to within 15 minutes.
func (s *Service) PresignedPutURL(ctx context.Context) (string, string, error) {
	subject, err := s.authorize(ctx)
	if err != nil {
		return "", "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.Bucket
	key := randomStorageKey(subject.ID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PresignedGetURL returns a short-lived download URL for key.
func (s *Service) PresignedGetURL(ctx context.Context, key string) (string, error) {
	if _, err := s.authorize(ctx); err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// Upload presigns and pushes payload in one step, returning the object key.
func (s *Service) Upload(ctx context.Context, payload []byte) (string, error) {
	key, url, err := s.PresignedPutURL(ctx)
	if err != nil {
		return "", err
	}
	if err := netx.UploadToPresignedURL(ctx, url, payload); err != nil {
		return "", err
	}
	return key, nil
}

// Download presigns and fetches the object behind key in one step.
func (s *Service) Download(ctx context.Context, key string) ([]byte, error) {
	url, err := s.PresignedGetURL(ctx, key)
	if err != nil {
		return nil, err
	}
	return netx.DownloadFromPresignedURL(ctx, url)
}
