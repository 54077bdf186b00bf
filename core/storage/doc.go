// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client. Generated files are published under the
// "generated/" prefix of the configured bucket so that a fleet of appliances,
// or an operator, can inspect the exact rc.conf each one booted with.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.Publish(ctx, client, "etc", "rc.conf", data)
package storage
