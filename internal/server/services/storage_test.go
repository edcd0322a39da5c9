package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *objectStore {
	return &objectStore{config: &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "avatars",
	}}
}

func TestObjectStore_PresignsAgainstConfiguredEndpoint(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	put, err := store.PutURL(ctx, "avatars/u1/x.png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(put, "http://127.0.0.1:9000/avatars/avatars/u1/x.png?"), put)
	assert.Contains(t, put, "X-Amz-Signature=")
	assert.Contains(t, put, "X-Amz-Expires=900")

	get, err := store.GetURL(ctx, "avatars/u1/x.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(get, "http://127.0.0.1:9000/avatars/avatars/u1/x.png?"), get)
}

func TestObjectStore_ErrorFromConfigLoader(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	store := newTestStore()

	_, err := store.PutURL(context.Background(), "k", "image/png")
	assert.EqualError(t, err, "load aws config: load-fail")

	_, err = store.GetURL(context.Background(), "k")
	assert.EqualError(t, err, "load aws config: load-fail")
}

func TestObjectStore_ErrorFromPresigner(t *testing.T) {
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() { presignPutObject, presignGetObject = origPut, origGet })

	presignPutObject = func(*s3.PresignClient, context.Context, *s3.PutObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign-fail")
	}
	presignGetObject = func(*s3.PresignClient, context.Context, *s3.GetObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign-fail")
	}

	store := newTestStore()

	_, err := store.PutURL(context.Background(), "k", "")
	assert.EqualError(t, err, "presign put: sign-fail")

	_, err = store.GetURL(context.Background(), "k")
	assert.EqualError(t, err, "presign get: sign-fail")
}
