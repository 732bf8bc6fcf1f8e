package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/ojudge/identity/internal/server/config"
)

func newAvatarSvc() *AvatarService {
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "avatars",
	}
	return NewAvatarService(cfg)
}

func stubPresignClients(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func TestGetUploadURL_KeyAndURL(t *testing.T) {
	stubPresignClients(t)

	var requestedKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		requestedKey = *in.Key
		return &v4.PresignedHTTPRequest{URL: "http://signed.example/" + *in.Key}, nil
	}

	svc := newAvatarSvc()
	key, url, err := svc.GetUploadURL(context.Background(), "identity-42")
	if err != nil {
		t.Fatalf("GetUploadURL error: %v", err)
	}
	if !strings.HasPrefix(key, "avatars/identity-42/") {
		t.Fatalf("key = %q, want avatars/identity-42/ prefix", key)
	}
	if key != requestedKey {
		t.Fatalf("presigned key %q != returned key %q", requestedKey, key)
	}
	if url != "http://signed.example/"+key {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestGetUploadURL_FreshKeyPerCall(t *testing.T) {
	stubPresignClients(t)
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "u"}, nil
	}

	svc := newAvatarSvc()
	first, _, err := svc.GetUploadURL(context.Background(), "identity-42")
	if err != nil {
		t.Fatalf("GetUploadURL error: %v", err)
	}
	second, _, err := svc.GetUploadURL(context.Background(), "identity-42")
	if err != nil {
		t.Fatalf("GetUploadURL error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct keys, both %q", first)
	}
}

func TestGetUploadURL_PresignError(t *testing.T) {
	stubPresignClients(t)
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}

	svc := newAvatarSvc()
	_, _, err := svc.GetUploadURL(context.Background(), "identity-42")
	if err == nil || err.Error() != "presign-put-fail" {
		t.Fatalf("want presign-put-fail, got %v", err)
	}
}

func TestGetDownloadURL_UsesStoredKey(t *testing.T) {
	stubPresignClients(t)
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://signed.example/" + *in.Key}, nil
	}

	svc := newAvatarSvc()
	url, err := svc.GetDownloadURL(context.Background(), "avatars/identity-42/abc")
	if err != nil {
		t.Fatalf("GetDownloadURL error: %v", err)
	}
	if url != "http://signed.example/avatars/identity-42/abc" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestGetDownloadURL_ConfigLoadError(t *testing.T) {
	stubPresignClients(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("config-load-fail")
	}

	svc := newAvatarSvc()
	_, err := svc.GetDownloadURL(context.Background(), "avatars/identity-42/abc")
	if err == nil || err.Error() != "config-load-fail" {
		t.Fatalf("want config-load-fail, got %v", err)
	}
}
