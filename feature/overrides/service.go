package overrides

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rcconf-manager/core/events"
	"rcconf-manager/core/rcconf"
	"rcconf-manager/feature/defaults"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when the override store is not connected.
var ErrUnavailable = errors.New("override store is not available")

// Service manages database overrides of the shipped defaults.
type Service struct {
	repo      *Repository
	defaults  *defaults.Service
	publisher events.Publisher
	logger    *zap.Logger

	mu       sync.RWMutex
	onChange []func(key string)
}

// NewService creates a new overrides service. repo may be nil when no database
// is connected; the effective configuration is then the defaults alone.
func NewService(repo *Repository, defs *defaults.Service, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	return &Service{
		repo:      repo,
		defaults:  defs,
		publisher: publisher,
		logger:    logger,
	}
}

// Available reports whether an override store is connected.
func (s *Service) Available() bool {
	return s.repo != nil
}

// Repository returns the underlying repository, nil when unavailable.
func (s *Service) Repository() *Repository {
	return s.repo
}

// OnChange registers fn to run after an override is set or deleted.
func (s *Service) OnChange(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Service) changed(key string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.onChange {
		fn(key)
	}
}

// List returns every override. Without a store there are none.
func (s *Service) List(ctx context.Context) ([]Override, error) {
	if s.repo == nil {
		return []Override{}, nil
	}
	return s.repo.List(ctx)
}

// Get returns the override for key. Without a store nothing is overridden.
func (s *Service) Get(ctx context.Context, key string) (Override, error) {
	if s.repo == nil {
		return Override{}, ErrNotFound
	}
	return s.repo.Get(ctx, key)
}

// Set validates and stores an override, then announces it.
func (s *Service) Set(ctx context.Context, key, value string) (Override, error) {
	if s.repo == nil {
		return Override{}, ErrUnavailable
	}
	if !rcconf.ValidKey(key) {
		return Override{}, fmt.Errorf("%w: %q", rcconf.ErrInvalidKey, key)
	}
	if len(key) > MaxKeyLength {
		return Override{}, fmt.Errorf("%w: longer than %d characters", rcconf.ErrInvalidKey, MaxKeyLength)
	}
	if !rcconf.ValidValue(value) {
		return Override{}, fmt.Errorf("%w: value of %s spans lines", rcconf.ErrInvalidValue, key)
	}

	row, err := s.repo.Set(ctx, key, value)
	if err != nil {
		return Override{}, err
	}

	s.changed(key)
	s.logger.Info("Override set", zap.String("key", key), zap.String("value", value))
	if err := s.publisher.Publish(ctx, events.TopicOverrideSet, events.OverrideSet{Key: key, Value: value}); err != nil {
		s.logger.Warn("Failed to publish override event", zap.String("key", key), zap.Error(err))
	}
	return row, nil
}

// Delete removes an override so the default applies again.
func (s *Service) Delete(ctx context.Context, key string) error {
	if s.repo == nil {
		return ErrUnavailable
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}

	s.changed(key)
	s.logger.Info("Override deleted", zap.String("key", key))
	if err := s.publisher.Publish(ctx, events.TopicOverrideDeleted, events.OverrideDeleted{Key: key}); err != nil {
		s.logger.Warn("Failed to publish override event", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Values returns the overrides mapping. Without a store it is empty.
func (s *Service) Values(ctx context.Context) (map[string]string, error) {
	if s.repo == nil {
		return map[string]string{}, nil
	}
	return s.repo.Map(ctx)
}

// Effective returns the defaults with every override applied.
func (s *Service) Effective(ctx context.Context) (*rcconf.Document, error) {
	values, err := s.Values(ctx)
	if err != nil {
		return nil, err
	}
	return s.defaults.Document().Overlay(values), nil
}
