package storage_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"rcconf-manager/core/storage"
	"rcconf-manager/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			Bucket:    "etc",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "generated/rc.conf", storage.ObjectName("rc.conf"))
	assert.Equal(t, "generated/local/smb4.conf", storage.ObjectName("local/smb4.conf"))
	assert.Equal(t, "generated/passwd", storage.ObjectName("../../passwd"))
}

func TestPublishAndFetch(t *testing.T) {
	ctx := context.Background()
	data := []byte("hostname=\"freenas\"\n")

	t.Run("Publish", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("PutObject", mock.Anything, "etc", "generated/rc.conf", mock.Anything, int64(len(data)), mock.Anything).
			Return(minio.UploadInfo{}, nil)

		require.NoError(t, storage.Publish(ctx, client, "etc", "rc.conf", data))
		client.AssertExpectations(t)
	})

	t.Run("Publish error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("PutObject", mock.Anything, "etc", "generated/rc.conf", mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, assert.AnError)

		err := storage.Publish(ctx, client, "etc", "rc.conf", data)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("Fetch", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "etc", "generated/rc.conf", mock.Anything).
			Return(io.NopCloser(bytes.NewReader(data)), nil)

		got, err := storage.Fetch(ctx, client, "etc", "rc.conf")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("Fetch error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "etc", "generated/rc.conf", mock.Anything).
			Return(nil, assert.AnError)

		_, err := storage.Fetch(ctx, client, "etc", "rc.conf")
		assert.ErrorIs(t, err, assert.AnError)
	})
}
