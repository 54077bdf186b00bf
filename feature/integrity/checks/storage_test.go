package checks

import (
	"context"
	"testing"

	"rcconf-manager/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func objectChan(keys ...string) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k}
	}
	close(ch)
	return ch
}

func TestCheckStorage(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "etc").Return(false, nil)

		_, err := CheckStorage(context.Background(), mockClient, "etc")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("Bucket Error", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "etc").Return(false, assert.AnError)

		_, err := CheckStorage(context.Background(), mockClient, "etc")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "etc").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "etc", mock.Anything).Return(objectChan())

		missing, err := CheckStorage(context.Background(), mockClient, "etc")
		assert.NoError(t, err)
		assert.Equal(t, []string{"generated"}, missing)
	})

	t.Run("Present", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "etc").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "etc", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "generated/"
		})).Return(objectChan("generated/"))

		missing, err := CheckStorage(context.Background(), mockClient, "etc")
		assert.NoError(t, err)
		assert.Empty(t, missing)
	})
}

func TestFixStorage(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "etc", "generated/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	err := FixStorage(context.Background(), mockClient, "etc", zap.NewNop(), []string{"generated"})
	assert.NoError(t, err)
	mockClient.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestFixStorage_Error(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "etc", mock.Anything, mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, assert.AnError)

	err := FixStorage(context.Background(), mockClient, "etc", zap.NewNop(), []string{"generated"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCheckPublished(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "etc").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "etc", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
		return opts.Prefix == "generated/rc.conf"
	})).Return(objectChan("generated/rc.conf"))
	mockClient.On("ListObjects", mock.Anything, "etc", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
		return opts.Prefix == "generated/nginx/nginx.conf"
	})).Return(objectChan("generated/nginx/nginx.conf.bak"))

	missing, err := CheckPublished(context.Background(), mockClient, "etc", []string{"rc.conf", "nginx/nginx.conf"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"nginx/nginx.conf"}, missing)
}
