package integrity

import (
	"context"
	"errors"

	"rcconf-manager/core/storage"
	"rcconf-manager/feature/defaults"
	"rcconf-manager/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrStorageDisabled is returned by storage checks when no client is configured.
	ErrStorageDisabled = errors.New("storage is not enabled")
	// ErrDatabaseDisabled is returned by database checks when no database is connected.
	ErrDatabaseDisabled = errors.New("database is not connected")
)

// FileLister lists managed file names.
type FileLister interface {
	Names() []string
}

// Service handles integrity checks.
type Service struct {
	client storage.Client
	bucket string
	db     *gorm.DB
	files  FileLister
	logger *zap.Logger
}

// NewService creates a new integrity service. client, db and files may be nil.
func NewService(client storage.Client, bucket string, db *gorm.DB, files FileLister, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		db:     db,
		files:  files,
		logger: logger,
	}
}

// CheckDefaults lints the embedded rc.conf.
func (s *Service) CheckDefaults() (checks.LintReport, error) {
	doc, err := defaults.Load()
	if err != nil {
		return checks.LintReport{}, err
	}
	return checks.Lint(doc, defaults.DocumentedKeys), nil
}

// CheckDatabase verifies the override table schema.
func (s *Service) CheckDatabase() (*checks.SchemaReport, error) {
	if s.db == nil {
		return nil, ErrDatabaseDisabled
	}
	return checks.CheckDatabase(s.db)
}

// CheckStorage returns the required folders missing from the bucket.
func (s *Service) CheckStorage(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	return checks.CheckStorage(ctx, s.client, s.bucket)
}

// FixStorage creates the missing folders.
func (s *Service) FixStorage(ctx context.Context, missing []string) error {
	if s.client == nil {
		return ErrStorageDisabled
	}
	return checks.FixStorage(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckPublished returns the managed files without a published copy.
func (s *Service) CheckPublished(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	var names []string
	if s.files != nil {
		names = s.files.Names()
	} else {
		names = []string{defaults.FileName}
	}
	return checks.CheckPublished(ctx, s.client, s.bucket, names)
}
