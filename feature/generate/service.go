package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rcconf-manager/core/events"
	"rcconf-manager/core/storage"
	"rcconf-manager/feature/defaults"

	"go.uber.org/zap"
)

// OverrideSource supplies the database overrides.
type OverrideSource interface {
	Values(ctx context.Context) (map[string]string, error)
}

// Options configures the generation service.
type Options struct {
	// Mountpoint is the directory files are written under.
	Mountpoint string
	// PluginDirs are scanned for templates in order of precedence.
	PluginDirs []string
	// Storage receives a copy of every generated file when not nil.
	Storage storage.Client
	// Bucket is the storage bucket for published copies.
	Bucket string
	// Publisher receives etcd.file.generated events.
	Publisher events.Publisher
	// Renderers overrides DefaultRenderers.
	Renderers map[string]Renderer
}

// Generated describes a file written by GenerateFile.
type Generated struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int    `json:"size"`
	Published bool   `json:"published"`
}

// Service renders and writes managed files.
type Service struct {
	registry   *Registry
	defaults   *defaults.Service
	overrides  OverrideSource
	mountpoint string
	client     storage.Client
	bucket     string
	publisher  events.Publisher
	logger     *zap.Logger

	locks sync.Map

	mu          sync.RWMutex
	onGenerated []func(Generated)
}

// NewService creates the service and performs the first plugin scan.
func NewService(opts Options, defs *defaults.Service, overrides OverrideSource, logger *zap.Logger) (*Service, error) {
	renderers := opts.Renderers
	if renderers == nil {
		renderers = DefaultRenderers()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	mountpoint := opts.Mountpoint
	if mountpoint == "" {
		mountpoint = "/etc"
	}

	builtin := []Template{{Name: defaults.FileName, Ext: ".rcconf", Embedded: true}}
	s := &Service{
		registry:   NewRegistry(opts.PluginDirs, renderers, builtin, logger),
		defaults:   defs,
		overrides:  overrides,
		mountpoint: mountpoint,
		client:     opts.Storage,
		bucket:     opts.Bucket,
		publisher:  publisher,
		logger:     logger,
	}
	if err := s.Rescan(); err != nil {
		return nil, err
	}
	return s, nil
}

// Mountpoint returns the directory files are written under.
func (s *Service) Mountpoint() string {
	return s.mountpoint
}

// ManagedFiles returns the templates of every managed file.
func (s *Service) ManagedFiles() []Template {
	return s.registry.Templates()
}

// Names returns the managed file names sorted.
func (s *Service) Names() []string {
	return s.registry.Names()
}

// Rescan re-reads the plugin directories.
func (s *Service) Rescan() error {
	if err := s.registry.Scan(); err != nil {
		return err
	}
	s.logger.Info("Plugin directories scanned", zap.Int("managed_files", len(s.Names())))
	return nil
}

// Env builds the render environment for name from the current overrides.
func (s *Service) Env(ctx context.Context, name string) (Env, error) {
	overrides, err := s.overrides.Values(ctx)
	if err != nil {
		return Env{}, fmt.Errorf("failed to load overrides: %w", err)
	}
	return Env{
		Name:      name,
		Vars:      s.defaults.Document().Overlay(overrides).Map(),
		Overrides: overrides,
	}, nil
}

// Render returns the content name would be generated with.
func (s *Service) Render(ctx context.Context, name string) ([]byte, error) {
	tpl, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	renderer, err := s.registry.Renderer(tpl)
	if err != nil {
		return nil, err
	}

	var src []byte
	if tpl.Embedded {
		src = defaults.Raw()
	} else if src, err = os.ReadFile(tpl.Path); err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", tpl.Path, err)
	}

	env, err := s.Env(ctx, name)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, tpl, src, env)
}

// OnGenerated registers fn to run after a file is written under the mount
// point, before it is published.
func (s *Service) OnGenerated(fn func(Generated)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onGenerated = append(s.onGenerated, fn)
}

func (s *Service) generated(g Generated) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.onGenerated {
		fn(g)
	}
}

// GenerateFile renders name and replaces <mountpoint>/<name> with the result.
func (s *Service) GenerateFile(ctx context.Context, name string) (*Generated, error) {
	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	data, err := s.Render(ctx, name)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(s.mountpoint, filepath.FromSlash(name))
	if err := writeFileAtomic(target, data, 0o644); err != nil {
		return nil, err
	}

	result := &Generated{Name: name, Path: target, Size: len(data)}
	s.generated(*result)
	if s.client != nil {
		if err := storage.Publish(ctx, s.client, s.bucket, name, data); err != nil {
			return result, err
		}
		result.Published = true
	}

	s.logger.Info("Generated file",
		zap.String("name", name),
		zap.String("path", target),
		zap.Int("size", result.Size),
		zap.Bool("published", result.Published))

	event := events.FileGenerated{
		Name:      name,
		Path:      target,
		Size:      result.Size,
		Published: result.Published,
		At:        time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.TopicFileGenerated, event); err != nil {
		s.logger.Warn("Failed to publish generation event", zap.String("name", name), zap.Error(err))
	}
	return result, nil
}

// GenerateAll generates every managed file. A failing file does not stop the
// others; all failures are returned joined.
func (s *Service) GenerateAll(ctx context.Context) ([]Generated, error) {
	var (
		results []Generated
		errs    []error
	)
	for _, name := range s.Names() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.GenerateFile(ctx, name)
		if err != nil {
			s.logger.Error("Failed to generate file", zap.String("name", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}

func (s *Service) lock(name string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
